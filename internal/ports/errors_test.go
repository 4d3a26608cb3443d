package ports

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLLMError tests the message and retry classification.
func TestLLMError(t *testing.T) {
	err := NewLLMError("sonar-pro", "Evaluate", ErrInvalidResponse)
	assert.Equal(t, "llm Evaluate (sonar-pro): invalid response", err.Error())
	assert.ErrorIs(t, err, ErrInvalidResponse)

	for _, base := range []error{ErrRateLimited, ErrServiceUnavailable, ErrTimeout} {
		assert.True(t, NewLLMError("m", "op", base).IsRetryable(), "%v should be retryable", base)
	}
	for _, base := range []error{ErrInvalidResponse, ErrAuthenticationFailed} {
		assert.False(t, NewLLMError("m", "op", base).IsRetryable(), "%v should not be retryable", base)
	}
}

// TestErrorMessages verifies the formatted messages of the wrapper types.
func TestErrorMessages(t *testing.T) {
	base := errors.New("connection refused")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"cache", NewCacheError("sample:abc", "Get", base), "cache Get sample:abc: connection refused"},
		{"store", NewStoreError("redis", "AppendResponse", base), "redis store AppendResponse: connection refused"},
		{"config", NewConfigError("JUDGE_API_KEY", base), "config JUDGE_API_KEY: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.ErrorIs(t, tt.err, base)
		})
	}
}
