package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
)

// OpenAIConfig configures NewOpenAIModel.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int // 0 leaves the provider default
	Timeout     time.Duration
}

// NewOpenAIModel creates a ChatModel backed by the OpenAI chat completions
// API, or any API compatible with it when BaseURL is set.
func NewOpenAIModel(ctx context.Context, cfg OpenAIConfig, logger *slog.Logger) (*ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, &ModelError{Kind: KindAuthentication, Err: fmt.Errorf("api key is required")}
	}

	temperature := cfg.Temperature
	mc := &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: &temperature,
		Timeout:     cfg.Timeout,
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		mc.MaxTokens = &maxTokens
	}

	cm, err := openai.NewChatModel(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai model: %w", err)
	}

	return NewChatModel(cm, "openai/"+cfg.Model, logger), nil
}
