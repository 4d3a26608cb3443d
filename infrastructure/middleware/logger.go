package middleware

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ahrav/interview-gavel/internal/config"
)

// loggerContextKey is the private context key used to store a *slog.Logger.
type loggerContextKey struct{}

// SetupLogger returns a JSON logger on stderr tagged with the service name
// and environment. Development runs log at debug level.
func SetupLogger(cfg config.Config) *slog.Logger {
	return SetupLoggerWithWriter(os.Stderr, cfg)
}

// SetupLoggerWithWriter is SetupLogger writing to w.
func SetupLoggerWithWriter(w io.Writer, cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{}
	if cfg.IsDev() {
		opts.Level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, opts)).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
	)
}

// ContextWithLogger attaches a non-nil logger to the context.
func ContextWithLogger(ctx context.Context, lg *slog.Logger) context.Context {
	if ctx == nil || lg == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey{}, lg)
}

// LoggerFromContext returns the logger stored in the context or the default
// slog logger when none is present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if lg, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && lg != nil {
		return lg
	}
	return slog.Default()
}
