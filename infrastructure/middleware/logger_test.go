package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/interview-gavel/internal/config"
)

// TestSetupLogger verifies service attributes and level selection.
func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name      string
		env       string
		wantDebug bool
	}{
		{name: "dev logs debug", env: "dev", wantDebug: true},
		{name: "prod hides debug", env: "prod", wantDebug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			lg := SetupLoggerWithWriter(&buf, config.Config{AppEnv: tt.env, OTELServiceName: "interview-gavel"})

			lg.Debug("hello")
			if !tt.wantDebug {
				assert.Empty(t, buf.String())
				lg.Info("hello")
			}

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "interview-gavel", entry["service"])
			assert.Equal(t, tt.env, entry["env"])
			assert.Equal(t, "hello", entry["msg"])
		})
	}
}

// TestLoggerContext verifies round-tripping a logger through a context.
func TestLoggerContext(t *testing.T) {
	lg := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	ctx := ContextWithLogger(context.Background(), lg)
	assert.Same(t, lg, LoggerFromContext(ctx))

	assert.Same(t, slog.Default(), LoggerFromContext(context.Background()))
	assert.Equal(t, context.Background(), ContextWithLogger(context.Background(), nil))
}
