// Package application orchestrates answer evaluation: it assembles the
// evaluation pipeline from units, runs it for each submitted answer, and
// manages interview sessions through a ports.InterviewStore.
package application

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/interview-gavel/internal/domain"
	"github.com/ahrav/interview-gavel/internal/ports"
)

var (
	_ ports.Pipeline      = (*Pipeline)(nil)
	_ ports.Layer         = (*Layer)(nil)
	_ ports.MergeStrategy = KeyUnionMerge{}
)

// ErrMergeConflict is returned when two concurrent executables write
// different values to the same state key.
var ErrMergeConflict = errors.New("conflicting writes to state key")

// Pipeline runs executables in order; each one's output state is the next
// one's input.
type Pipeline struct {
	id          string
	executables []ports.Executable
	// idSet tracks executable IDs for O(1) duplicate detection.
	idSet map[string]struct{}
	// completeOnCancel keeps running steps after ctx is done. Steps still
	// receive ctx and are expected to degrade rather than fail.
	completeOnCancel bool
	mu               sync.RWMutex
}

// NewPipeline creates an empty pipeline.
func NewPipeline(id string) *Pipeline {
	return &Pipeline{
		id:          id,
		executables: make([]ports.Executable, 0),
		idSet:       make(map[string]struct{}),
	}
}

// Execute runs every executable in order. It stops at the first error and,
// unless SetCompleteOnCancel is enabled, when ctx is cancelled between
// steps.
func (p *Pipeline) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	p.mu.RLock()
	executables := append([]ports.Executable(nil), p.executables...)
	complete := p.completeOnCancel
	p.mu.RUnlock()

	current := state
	for _, exec := range executables {
		if err := ctx.Err(); err != nil && !complete {
			return current, err
		}
		next, err := exec.Execute(ctx, current)
		if err != nil {
			return current, fmt.Errorf("pipeline %s: execution failed at %s: %w", p.id, exec.ID(), err)
		}
		current = next
	}
	return current, nil
}

// ID returns the pipeline identifier.
func (p *Pipeline) ID() string { return p.id }

// Add appends exec. Nil executables and duplicate IDs are rejected.
func (p *Pipeline) Add(exec ports.Executable) error {
	if exec == nil {
		return fmt.Errorf("cannot add nil executable to pipeline")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	id := exec.ID()
	if _, exists := p.idSet[id]; exists {
		return fmt.Errorf("executable with ID %s already exists in pipeline", id)
	}
	p.executables = append(p.executables, exec)
	p.idSet[id] = struct{}{}
	return nil
}

// SetCompleteOnCancel makes Execute run every step even after ctx is
// cancelled. Steps must then tolerate a done ctx.
func (p *Pipeline) SetCompleteOnCancel(complete bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completeOnCancel = complete
}

// Executables returns a copy of the ordered executables.
func (p *Pipeline) Executables() []ports.Executable {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]ports.Executable(nil), p.executables...)
}

// Layer runs independent executables concurrently from the same input state
// and merges their outputs. The evaluation pipeline uses one layer for the
// confidence, judge, and suggested-answer signals.
type Layer struct {
	id               string
	executables      []ports.Executable
	idSet            map[string]struct{}
	mergeStrategy    ports.MergeStrategy
	concurrencyLimit int
	mu               sync.RWMutex
}

// NewLayer creates an empty layer that merges with KeyUnionMerge.
func NewLayer(id string) *Layer {
	return &Layer{
		id:            id,
		executables:   make([]ports.Executable, 0),
		idSet:         make(map[string]struct{}),
		mergeStrategy: KeyUnionMerge{},
	}
}

// Execute runs all executables concurrently. If any fails, the shared
// context is cancelled, the remaining executables are awaited, and every
// failure is reported. Results are merged in the order executables were
// added, regardless of completion order. A cancelled ctx is not an error
// by itself: members that returned results despite it are merged.
func (l *Layer) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	l.mu.RLock()
	executables := append([]ports.Executable(nil), l.executables...)
	limit := l.concurrencyLimit
	strategy := l.mergeStrategy
	l.mu.RUnlock()

	if len(executables) == 0 {
		return state, nil
	}
	if limit <= 0 {
		limit = len(executables)
	}
	if strategy == nil {
		strategy = KeyUnionMerge{}
	}

	states := make([]domain.State, len(executables))
	errs := make([]error, len(executables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, exec := range executables {
		g.Go(func() error {
			out, err := exec.Execute(gctx, state)
			if err != nil {
				errs[i] = fmt.Errorf("executable %s: %w", exec.ID(), err)
				return errs[i]
			}
			states[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		joined := errors.Join(errs...)
		if joined == nil {
			joined = err
		}
		return state, fmt.Errorf("layer %s: %w", l.id, joined)
	}

	merged, err := strategy.Merge(state, states)
	if err != nil {
		return state, fmt.Errorf("layer %s: merge failed: %w", l.id, err)
	}
	return merged, nil
}

// ID returns the layer identifier.
func (l *Layer) ID() string { return l.id }

// Add includes exec in the layer. Nil executables and duplicate IDs are
// rejected.
func (l *Layer) Add(exec ports.Executable) error {
	if exec == nil {
		return fmt.Errorf("cannot add nil executable to layer")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id := exec.ID()
	if _, exists := l.idSet[id]; exists {
		return fmt.Errorf("executable with ID %s already exists in layer", id)
	}
	l.executables = append(l.executables, exec)
	l.idSet[id] = struct{}{}
	return nil
}

// Executables returns a copy of the layer's executables.
func (l *Layer) Executables() []ports.Executable {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]ports.Executable(nil), l.executables...)
}

// SetMergeStrategy replaces the merge strategy. Nil restores KeyUnionMerge.
func (l *Layer) SetMergeStrategy(strategy ports.MergeStrategy) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mergeStrategy = strategy
}

// SetConcurrencyLimit bounds how many executables run at once. Values <= 0
// restore the default of one goroutine per executable.
func (l *Layer) SetConcurrencyLimit(limit int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.concurrencyLimit = limit
}

// KeyUnionMerge folds every key that an executable added or changed
// relative to the base state into the result. Two executables writing
// different values to the same key is an ErrMergeConflict; identical
// writes are accepted.
type KeyUnionMerge struct{}

// Merge implements ports.MergeStrategy.
func (KeyUnionMerge) Merge(base domain.State, states []domain.State) (domain.State, error) {
	updates := make(map[string]any)
	for _, s := range states {
		for _, k := range s.Keys() {
			v, _ := s.GetRaw(k)
			if old, ok := base.GetRaw(k); ok && reflect.DeepEqual(old, v) {
				continue
			}
			if prev, ok := updates[k]; ok && !reflect.DeepEqual(prev, v) {
				return base, fmt.Errorf("%w: %s", ErrMergeConflict, k)
			}
			updates[k] = v
		}
	}
	if len(updates) == 0 {
		return base, nil
	}
	return base.WithMultiple(updates), nil
}
