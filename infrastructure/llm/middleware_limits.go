package llm

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// passthrough forwards model accessors so request-shaping middleware only
// has to implement DoRequest.
type passthrough struct{ CoreLLM }

type rateLimitedLLM struct {
	passthrough
	limiter *rate.Limiter
}

// RateLimitMiddleware admits requests through a token bucket shared by
// every client built from the returned middleware, so the judge and the
// sample generator draw from one provider quota.
//
// A request that cannot get a token before its deadline fails as a
// timeout ProviderError. The judge treats that like any other transient
// failure and falls back to local scoring.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)
	return func(next CoreLLM) CoreLLM {
		return &rateLimitedLLM{passthrough: passthrough{next}, limiter: limiter}
	}
}

func (r *rateLimitedLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		errType := ErrorTypeTimeout
		if errors.Is(ctx.Err(), context.Canceled) {
			errType = ErrorTypeCanceled
		}
		return "", 0, 0, NewProviderError(r.GetModel(), errType, 0, "rate limit wait", err)
	}
	return r.CoreLLM.DoRequest(ctx, prompt, opts)
}

type timeoutLLM struct {
	passthrough
	timeout time.Duration
}

// TimeoutMiddleware caps each request at timeout. The caller's deadline
// still applies when it is sooner; a non-positive timeout adds no cap.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next CoreLLM) CoreLLM {
		if timeout <= 0 {
			return next
		}
		return &timeoutLLM{passthrough: passthrough{next}, timeout: timeout}
	}
}

func (t *timeoutLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.CoreLLM.DoRequest(ctx, prompt, opts)
}
