package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
)

// Model renders a template and returns the generated text. Implementations
// must be safe for concurrent use.
type Model interface {
	Generate(ctx context.Context, tmpl *Template, vars map[string]any) (string, error)
}

// ChatModel adapts an eino chat model to Model. Each call is tagged with the
// template name and logged through a LogHandler.
type ChatModel struct {
	model   model.BaseChatModel
	name    string
	handler callbacks.Handler
}

// NewChatModel wraps m. name identifies the backing model in logs; a nil
// logger uses slog.Default().
func NewChatModel(m model.BaseChatModel, name string, logger *slog.Logger) *ChatModel {
	return &ChatModel{
		model:   m,
		name:    name,
		handler: NewLogHandler(logger),
	}
}

func (m *ChatModel) Generate(ctx context.Context, tmpl *Template, vars map[string]any) (string, error) {
	msgs, err := tmpl.Format(ctx, vars)
	if err != nil {
		return "", err
	}

	ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      tmpl.Name(),
		Type:      m.name,
		Component: components.ComponentOfChatModel,
	}, m.handler)

	out, err := m.model.Generate(ctx, msgs)
	if err != nil {
		return "", Classify(fmt.Errorf("generate %s: %w", tmpl.Name(), err))
	}

	if out == nil {
		return "", &ModelError{Kind: KindUnknown, Err: fmt.Errorf("generate %s: empty response", tmpl.Name())}
	}

	return out.Content, nil
}
