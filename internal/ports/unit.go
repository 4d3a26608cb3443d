// Package ports defines the boundaries between the evaluation pipeline and
// the outside world: processing units, LLM transport, judges, caches,
// metrics and interview storage.
package ports

import (
	"context"

	"github.com/ahrav/interview-gavel/internal/domain"
)

// Unit is one processing step of the answer evaluation pipeline. A unit
// reads the values it needs from the incoming State and returns a new
// State carrying its results; it never mutates its input.
type Unit interface {
	// Name returns the unique name of the unit, used for tracing, metrics
	// and error messages.
	Name() string

	// Execute runs the unit. Implementations must honor ctx cancellation
	// on any blocking call.
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// Validate checks the unit's configuration before it is placed in a
	// pipeline.
	Validate() error
}

// MergeStrategy combines the states produced by units that ran
// concurrently from the same base state.
type MergeStrategy interface {
	Merge(baseState domain.State, states []domain.State) (domain.State, error)
}

// Executable is anything the pipeline can run: a unit adapter, a layer of
// concurrent units, or a nested pipeline.
type Executable interface {
	Execute(ctx context.Context, state domain.State) (domain.State, error)
	ID() string
}

// Pipeline runs its executables sequentially, threading state through.
type Pipeline interface {
	Executable
	Add(exec Executable) error
	Executables() []Executable
}

// Layer runs its executables concurrently and merges their states.
type Layer interface {
	Executable
	Add(exec Executable) error
	Executables() []Executable
	SetMergeStrategy(strategy MergeStrategy)
}
