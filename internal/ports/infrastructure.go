package ports

import (
	"context"
	"time"
)

// LLMClient defines the interface for interacting with text-generation
// providers. Implementations handle authentication, request formatting and
// response parsing.
type LLMClient interface {
	// Complete sends a completion request and returns the generated text.
	//
	// Common options:
	//   - "system": string, the system instruction
	//   - "temperature": float64
	//   - "max_tokens": int
	//   - "model": string
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// EstimateTokens returns an approximate token count for text.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier used by this client.
	GetModel() string
}

// CacheStore stores opaque byte values with an expiry. Implementations may
// be in-process or backed by Redis.
type CacheStore interface {
	// Get returns the value and true if found. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key. A zero expiration means no expiry.
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every value owned by this store.
	Clear(ctx context.Context) error
}

// MetricsCollector records operational metrics. Implementations must be
// safe for concurrent use and must not block the caller.
type MetricsCollector interface {
	RecordLatency(operation string, duration time.Duration, labels map[string]string)
	RecordCounter(metric string, value float64, labels map[string]string)
	RecordGauge(metric string, value float64, labels map[string]string)
	RecordHistogram(metric string, value float64, labels map[string]string)
}
