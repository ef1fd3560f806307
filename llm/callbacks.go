package llm

import (
	"context"
	"log/slog"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// LogHandler logs chat model callbacks: starts and completions at Debug,
// failures at Error.
type LogHandler struct {
	logger *slog.Logger
}

var _ callbacks.Handler = (*LogHandler)(nil)

func NewLogHandler(logger *slog.Logger) *LogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogHandler{logger: logger}
}

func (h *LogHandler) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	attrs := runAttrs(info)
	if in := model.ConvCallbackInput(input); in != nil {
		attrs = append(attrs, slog.Int("messages", len(in.Messages)))
	}
	h.logger.LogAttrs(ctx, slog.LevelDebug, "model call started", attrs...)
	return ctx
}

func (h *LogHandler) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	attrs := runAttrs(info)
	if out := model.ConvCallbackOutput(output); out != nil && out.TokenUsage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", out.TokenUsage.PromptTokens),
			slog.Int("completion_tokens", out.TokenUsage.CompletionTokens),
		)
	}
	h.logger.LogAttrs(ctx, slog.LevelDebug, "model call completed", attrs...)
	return ctx
}

func (h *LogHandler) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	attrs := append(runAttrs(info), slog.String("error", err.Error()))
	h.logger.LogAttrs(ctx, slog.LevelError, "model call failed", attrs...)
	return ctx
}

func (h *LogHandler) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo,
	input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	input.Close()
	return ctx
}

func (h *LogHandler) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo,
	output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	output.Close()
	return ctx
}

func runAttrs(info *callbacks.RunInfo) []slog.Attr {
	if info == nil {
		return nil
	}
	return []slog.Attr{
		slog.String("template", info.Name),
		slog.String("model", info.Type),
	}
}
