package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/interview-gavel/internal/domain"
	"github.com/ahrav/interview-gavel/internal/ports"
)

// TestLoad_Defaults verifies the documented defaults.
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JUDGE_API_KEY", "")
	t.Setenv("PERPLEXITY_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "perplexity", cfg.JudgeProvider)
	assert.Equal(t, "sonar-pro", cfg.JudgeModel)
	assert.Equal(t, 25*time.Second, cfg.JudgeTimeout)
	assert.Equal(t, 20*time.Second, cfg.SampleTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SampleCacheTTL)
	assert.Equal(t, StoreMemory, cfg.Driver())
	assert.True(t, cfg.IsDev())
	assert.False(t, cfg.IsProd())
	assert.False(t, cfg.RemoteJudgeEnabled())
}

// TestLoad_Overrides verifies environment values are parsed.
func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JUDGE_TIMEOUT", "3s")
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("LLM_RATE_LIMIT", "2.5")
	t.Setenv("REDIS_ADDR", "cache:6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, 3*time.Second, cfg.JudgeTimeout)
	assert.Equal(t, StoreRedis, cfg.Driver())
	assert.Equal(t, 2.5, cfg.LLMRateLimit)
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
}

// TestConfig_APIKey verifies the key precedence.
func TestConfig_APIKey(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "judge key wins", cfg: Config{JudgeAPIKey: "a", PerplexityAPIKey: "b"}, want: "a"},
		{name: "perplexity key fallback", cfg: Config{PerplexityAPIKey: "b"}, want: "b"},
		{name: "none", cfg: Config{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.APIKey())
			assert.Equal(t, tt.want != "", tt.cfg.RemoteJudgeEnabled())
		})
	}
}

// TestLoad_Invalid verifies rejected settings surface as config errors.
func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantKey string
	}{
		{name: "unknown store", env: map[string]string{"STORE_DRIVER": "mongo"}, wantKey: "STORE_DRIVER"},
		{name: "zero judge timeout", env: map[string]string{"JUDGE_TIMEOUT": "0s"}, wantKey: "JUDGE_TIMEOUT"},
		{name: "negative retries", env: map[string]string{"LLM_MAX_RETRIES": "-1"}, wantKey: "LLM_MAX_RETRIES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)

			var ce *ports.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantKey, ce.ConfigKey)
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
		})
	}

	t.Run("unparseable duration", func(t *testing.T) {
		t.Setenv("SAMPLE_TIMEOUT", "soon")
		_, err := Load()
		assert.Error(t, err)
	})
}
