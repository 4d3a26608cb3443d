// Package units provides the processing steps of the answer evaluation
// pipeline. Each unit implements ports.Unit, reads its inputs from
// domain.State and returns a new State with its outputs.
package units

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/interview-gavel/internal/domain"
)

// Common errors returned by unit constructors.
var (
	// ErrEmptyUnitName is returned when attempting to create a unit with an empty name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrNilDependency is returned when a required collaborator is nil.
	ErrNilDependency = errors.New("required dependency is nil")
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// requireState reads key from state, prefixing any *domain.StateError with
// the unit name.
func requireState[T any](unit string, state domain.State, key domain.Key[T]) (T, error) {
	v, err := domain.Require(state, key)
	if err != nil {
		return v, fmt.Errorf("unit %s: %w", unit, err)
	}
	return v, nil
}

func checkName(name string) error {
	if name == "" {
		return ErrEmptyUnitName
	}
	return nil
}
