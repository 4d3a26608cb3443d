package llm

import (
	"fmt"
	"net/url"
	"time"
)

// Request parameter bounds shared by all providers.
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinTopP        = 0.0
	MaxTopP        = 1.0

	// DefaultMaxTokens applies when a request does not set max_tokens.
	DefaultMaxTokens = 1024

	MinTimeout = 1 * time.Second
	MaxTimeout = 10 * time.Minute
)

func isValidTemperature(v float64) bool { return v >= MinTemperature && v <= MaxTemperature }

func isValidTopP(v float64) bool { return v >= MinTopP && v <= MaxTopP }

func isPositive(v int) bool { return v > 0 }

func isNonEmpty(v string) bool { return v != "" }

// ValidateBaseURL checks that baseURL is an absolute http(s) URL. An empty
// string is accepted and returned unchanged.
func ValidateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}
	return parsed.String(), nil
}

// ValidateTimeout bounds a positive timeout to [MinTimeout, MaxTimeout].
// Non-positive values mean no timeout and are returned as zero.
func ValidateTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 0
	}
	return max(MinTimeout, min(MaxTimeout, timeout))
}

func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
