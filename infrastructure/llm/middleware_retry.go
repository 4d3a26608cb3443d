package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type retryLLM struct {
	next       CoreLLM
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// RetryMiddleware retries failed requests up to maxRetries times with
// jittered exponential backoff between baseDelay and maxDelay. Errors that
// are not retryable, an open circuit, and caller cancellation stop the loop
// immediately.
func RetryMiddleware(maxRetries int, baseDelay, maxDelay time.Duration) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &retryLLM{
			next:       next,
			maxRetries: max(0, maxRetries),
			baseDelay:  baseDelay,
			maxDelay:   maxDelay,
		}
	}
}

func (r *retryLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	var (
		response            string
		tokensIn, tokensOut int
		attempts            int
	)

	op := func() error {
		attempts++
		var err error
		response, tokensIn, tokensOut, err = r.next.DoRequest(ctx, prompt, opts)
		if err == nil {
			return nil
		}
		if !shouldRetry(ctx, err) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(r.policy(), uint64(r.maxRetries)), ctx))
	if err != nil {
		if attempts <= 1 {
			return "", 0, 0, err
		}
		return "", 0, 0, fmt.Errorf("request failed after %d attempts: %w", attempts, err)
	}
	return response, tokensIn, tokensOut, nil
}

func (r *retryLLM) policy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if r.baseDelay > 0 {
		b.InitialInterval = r.baseDelay
	}
	if r.maxDelay > 0 {
		b.MaxInterval = r.maxDelay
	}
	// The attempt budget is bounded by WithMaxRetries, not elapsed time.
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, ErrCircuitOpen) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	return true
}

func (r *retryLLM) GetModel() string { return r.next.GetModel() }

func (r *retryLLM) SetModel(m string) { r.next.SetModel(m) }
