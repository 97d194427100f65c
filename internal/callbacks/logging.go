// Package callbacks provides eino callback handlers that report chat model
// calls to the structured logger.
package callbacks

import (
	"context"
	"log/slog"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	ub "github.com/cloudwego/eino/utils/callbacks"
)

// maxErrorLen bounds provider error bodies in log lines.
const maxErrorLen = 500

// NewLoggingHandler creates a handler that logs model call start, usage and
// failures. A nil logger uses slog.Default at call time.
func NewLoggingHandler(logger *slog.Logger) callbacks.Handler {
	log := func() *slog.Logger {
		if logger != nil {
			return logger
		}
		return slog.Default()
	}

	modelHandler := &ub.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *callbacks.RunInfo, input *model.CallbackInput) context.Context {
			n := 0
			if input != nil {
				n = len(input.Messages)
			}
			log().DebugContext(ctx, "model call", "model", info.Name, "messages", n)
			return ctx
		},
		OnEnd: func(ctx context.Context, info *callbacks.RunInfo, output *model.CallbackOutput) context.Context {
			args := []any{"model", info.Name}
			if output != nil && output.TokenUsage != nil {
				args = append(args,
					"tokens_in", output.TokenUsage.PromptTokens,
					"tokens_out", output.TokenUsage.CompletionTokens,
				)
			}
			log().DebugContext(ctx, "model call completed", args...)
			return ctx
		},
		OnError: func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
			log().WarnContext(ctx, "model call failed", "model", info.Name, "error", truncatePayload(err.Error(), maxErrorLen))
			return ctx
		},
	}

	return ub.NewHandlerHelper().
		ChatModel(modelHandler).
		Handler()
}

// WithModel attaches handlers to ctx for one call to the named chat model.
func WithModel(ctx context.Context, name string, handlers ...callbacks.Handler) context.Context {
	if len(handlers) == 0 {
		return ctx
	}
	return callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      name,
		Type:      "ChatModel",
		Component: components.ComponentOfChatModel,
	}, handlers...)
}

func truncatePayload(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "... (truncated)"
}
