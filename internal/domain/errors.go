package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrKeyNotFound reports a pipeline step reading a State key that no
	// earlier step wrote.
	ErrKeyNotFound = errors.New("key not found")

	// ErrTypeMismatch reports a State key holding a value of another type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidConfiguration marks scoring configuration or tables that
	// failed validation.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInterviewNotFound is returned for unknown interview IDs and for
	// interviews owned by another user. The two cases are deliberately
	// indistinguishable to callers.
	ErrInterviewNotFound = errors.New("interview not found")

	// ErrNoResponses means a session has nothing to finalize.
	ErrNoResponses = errors.New("no responses to finalize")

	// ErrWeightMismatch means a caller weight vector is not aligned with
	// the responses.
	ErrWeightMismatch = errors.New("weights do not match responses")
)

// StateError ties a State failure to the key and accessor involved.
type StateError struct {
	Key       string
	Operation string
	Err       error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state %s %q: %v", e.Operation, e.Key, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }

// NewStateError builds a StateError.
func NewStateError(key, operation string, err error) *StateError {
	return &StateError{Key: key, Operation: operation, Err: err}
}

// ValidationError collects every problem found in one request or config
// document so callers can report them together.
type ValidationError struct {
	Entity string
	Errors []string
}

func (e *ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return fmt.Sprintf("invalid %s", e.Entity)
	case 1:
		return fmt.Sprintf("invalid %s: %s", e.Entity, e.Errors[0])
	default:
		return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(e.Errors, "; "))
	}
}

// AddError records one problem.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors reports whether any problem was recorded.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError starts an empty ValidationError for entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{Entity: entity, Errors: []string{}}
}

// FinalizationError reports why a session score could not be computed.
// It wraps ErrNoResponses or ErrWeightMismatch.
type FinalizationError struct {
	InterviewID string
	Err         error
}

func (e *FinalizationError) Error() string {
	if e.InterviewID == "" {
		return fmt.Sprintf("finalize session: %v", e.Err)
	}
	return fmt.Sprintf("finalize interview %s: %v", e.InterviewID, e.Err)
}

func (e *FinalizationError) Unwrap() error { return e.Err }
