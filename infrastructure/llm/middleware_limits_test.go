package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ahrav/interview-gavel/internal/ports"
)

// TestRateLimitMiddleware_BurstThenDelay verifies requests beyond the burst
// wait for the bucket to refill.
func TestRateLimitMiddleware_BurstThenDelay(t *testing.T) {
	mock := NewMockCoreLLM()
	wrapped := RateLimitMiddleware(rate.Limit(20), 2)(mock)
	ctx := context.Background()

	start := time.Now()
	for range 2 {
		_, _, _, err := wrapped.DoRequest(ctx, "p", nil)
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 40*time.Millisecond, "burst is served immediately")

	_, _, _, err := wrapped.DoRequest(ctx, "p", nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond, "third request waits for a token")
	assert.Equal(t, 3, mock.GetCallCount())
}

// TestRateLimitMiddleware_DeadlineIsTimeout verifies a request that cannot
// be admitted in time is reported as a retryable timeout and never reaches
// the provider.
func TestRateLimitMiddleware_DeadlineIsTimeout(t *testing.T) {
	mock := NewMockCoreLLM()
	wrapped := RateLimitMiddleware(rate.Every(time.Hour), 1)(mock)

	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, _, err = wrapped.DoRequest(ctx, "p", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.ErrorIs(t, err, ports.ErrTimeout)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.True(t, pe.IsRetryable())
	assert.Equal(t, 1, mock.GetCallCount())
}

// TestRateLimitMiddleware_SharedLimiter verifies every client built from one
// middleware value draws from the same bucket.
func TestRateLimitMiddleware_SharedLimiter(t *testing.T) {
	mw := RateLimitMiddleware(rate.Every(time.Hour), 1)
	judge := mw(NewMockCoreLLM())
	sampler := mw(NewMockCoreLLM())

	_, _, _, err := judge.DoRequest(context.Background(), "p", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, _, err = sampler.DoRequest(ctx, "p", nil)
	assert.Error(t, err)
}

// TestRateLimitMiddleware_PassesProviderErrors verifies provider errors
// pass through unchanged and the model accessors reach the provider.
func TestRateLimitMiddleware_PassesProviderErrors(t *testing.T) {
	mock := NewMockCoreLLM()
	boom := errors.New("boom")
	mock.Error = boom
	wrapped := RateLimitMiddleware(rate.Inf, 1)(mock)

	_, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
	assert.ErrorIs(t, err, boom)

	wrapped.SetModel("sonar-pro")
	assert.Equal(t, "sonar-pro", mock.GetModel())
}

// TestTimeoutMiddleware tests success, expiry and passthrough behavior.
func TestTimeoutMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		delay   time.Duration
		wantErr bool
	}{
		{name: "completes within timeout", timeout: 200 * time.Millisecond, delay: 5 * time.Millisecond},
		{name: "exceeds timeout", timeout: 10 * time.Millisecond, delay: 200 * time.Millisecond, wantErr: true},
		{name: "zero timeout is passthrough", timeout: 0, delay: 20 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockCoreLLM()
			mock.ResponseDelay = tt.delay
			wrapped := TimeoutMiddleware(tt.timeout)(mock)

			resp, _, _, err := wrapped.DoRequest(context.Background(), "p", nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, context.DeadlineExceeded)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "test response", resp)
		})
	}
}

// TestTimeoutMiddleware_ShorterParentDeadline verifies the caller's tighter
// deadline wins.
func TestTimeoutMiddleware_ShorterParentDeadline(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.ResponseDelay = 200 * time.Millisecond
	wrapped := TimeoutMiddleware(time.Minute)(mock)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, _, err := wrapped.DoRequest(ctx, "p", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}
