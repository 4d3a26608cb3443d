package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ahrav/interview-gavel/internal/ports"
)

var (
	ErrEmptyAPIKey      = errors.New("API key cannot be empty")
	ErrEmptyResponse    = errors.New("empty response from API")
	ErrNoResponseChoice = errors.New("no response choices returned")
)

// ErrorType is the provider-independent category of a failed judge or
// sampler request.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeAuthentication
	ErrorTypeRateLimit
	ErrorTypeBadRequest
	ErrorTypeNotFound
	ErrorTypeServerError
	ErrorTypeContentPolicy
	ErrorTypeNetwork
	ErrorTypeTimeout
	ErrorTypeCanceled
)

type errorTypeInfo struct {
	label     string
	retryable bool
	sentinel  error
}

// errorTypes drives String, IsRetryable and the ports sentinel mapping.
// Types missing from the table are unknown: not retryable and reported as
// an invalid response.
var errorTypes = map[ErrorType]errorTypeInfo{
	ErrorTypeAuthentication: {"authentication", false, ports.ErrAuthenticationFailed},
	ErrorTypeRateLimit:      {"rate_limit", true, ports.ErrRateLimited},
	ErrorTypeBadRequest:     {"bad_request", false, ports.ErrInvalidResponse},
	ErrorTypeNotFound:       {"not_found", false, ports.ErrInvalidResponse},
	ErrorTypeServerError:    {"server_error", true, ports.ErrServiceUnavailable},
	ErrorTypeContentPolicy:  {"content_policy", false, ports.ErrInvalidResponse},
	ErrorTypeNetwork:        {"network", true, ports.ErrServiceUnavailable},
	ErrorTypeTimeout:        {"timeout", true, ports.ErrTimeout},
	ErrorTypeCanceled:       {"canceled", false, ports.ErrTimeout},
}

func (t ErrorType) String() string { return errorTypes[t].label }

// ProviderError is what every provider returns once its SDK error has been
// classified. errors.Is matches it against the ports sentinels, so the
// judge fallback and retry middleware never inspect SDK types.
type ProviderError struct {
	Type         ErrorType
	Provider     string
	StatusCode   int
	Message      string
	WrappedError error
}

// NewProviderError builds a ProviderError.
func NewProviderError(provider string, errType ErrorType, statusCode int, message string, wrapped error) *ProviderError {
	return &ProviderError{
		Type:         errType,
		Provider:     provider,
		StatusCode:   statusCode,
		Message:      message,
		WrappedError: wrapped,
	}
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	b.WriteString(" error")
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if label := e.Type.String(); label != "" {
		fmt.Fprintf(&b, " [%s]", label)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.WrappedError != nil {
		fmt.Fprintf(&b, ": %v", e.WrappedError)
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error { return e.WrappedError }

// IsRetryable reports whether repeating the request may succeed.
func (e *ProviderError) IsRetryable() bool { return errorTypes[e.Type].retryable }

// Sentinel returns the ports error this failure is reported as.
func (e *ProviderError) Sentinel() error {
	if s := errorTypes[e.Type].sentinel; s != nil {
		return s
	}
	return ports.ErrInvalidResponse
}

func (e *ProviderError) Is(target error) bool { return target == e.Sentinel() }

// ErrorClassifier turns transport failures of one provider into
// ProviderErrors.
type ErrorClassifier struct {
	Provider string
}

// ClassifyHTTPError categorizes a failed response by status code.
// Authentication and rate limit failures get a provider-specific message;
// other statuses keep the message the provider sent.
func (ec *ErrorClassifier) ClassifyHTTPError(statusCode int, message string, err error) *ProviderError {
	errType := ErrorTypeUnknown
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		errType = ErrorTypeAuthentication
		message = ec.Provider + " authentication failed"
	case statusCode == http.StatusTooManyRequests:
		errType = ErrorTypeRateLimit
		message = ec.Provider + " rate limit exceeded"
	case statusCode == http.StatusNotFound:
		errType = ErrorTypeNotFound
	case statusCode >= 500:
		errType = ErrorTypeServerError
	case statusCode >= 400:
		errType = ErrorTypeBadRequest
	}
	return NewProviderError(ec.Provider, errType, statusCode, message, err)
}

// ClassifyContextError categorizes deadline and cancellation failures.
func (ec *ErrorClassifier) ClassifyContextError(err error) *ProviderError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewProviderError(ec.Provider, ErrorTypeTimeout, 0, "context deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return NewProviderError(ec.Provider, ErrorTypeCanceled, 0, "request canceled", err)
	default:
		return NewProviderError(ec.Provider, ErrorTypeUnknown, 0, "", err)
	}
}

// classifyError is the catch-all used after provider-specific SDK errors
// have been handled. Anything not yet classified is a network failure.
func (ec *ErrorClassifier) classifyError(err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ec.ClassifyContextError(err)
	}
	return NewProviderError(ec.Provider, ErrorTypeNetwork, 0, "request failed", err)
}
