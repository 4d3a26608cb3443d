package llm

import (
	"context"
	"log/slog"
	"time"
)

type loggingLLM struct {
	next   CoreLLM
	logger *slog.Logger
}

// LoggingMiddleware logs each request at debug level and failures at warn
// level. A nil logger uses slog.Default.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next CoreLLM) CoreLLM {
		return &loggingLLM{next: next, logger: logger}
	}
}

func (l *loggingLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	start := time.Now()
	response, tokensIn, tokensOut, err := l.next.DoRequest(ctx, prompt, opts)

	attrs := []any{
		slog.String("model", l.next.GetModel()),
		slog.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		l.logger.WarnContext(ctx, "llm request failed", append(attrs, slog.Any("error", err))...)
		return response, tokensIn, tokensOut, err
	}
	l.logger.DebugContext(ctx, "llm request completed",
		append(attrs, slog.Int("tokens_in", tokensIn), slog.Int("tokens_out", tokensOut))...)
	return response, tokensIn, tokensOut, nil
}

func (l *loggingLLM) GetModel() string { return l.next.GetModel() }

func (l *loggingLLM) SetModel(m string) { l.next.SetModel(m) }
