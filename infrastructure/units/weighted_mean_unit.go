package units

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/interview-gavel/internal/domain"
	"github.com/ahrav/interview-gavel/internal/ports"
)

var _ ports.Unit = (*WeightedMeanUnit)(nil)

// WeightedMeanUnit computes the session-level score of an interview as the
// weighted mean of its response scores.
//
// Reads domain.KeyResponses and, when present, domain.KeyWeights, which
// overrides the per-record weights. Writes domain.KeyFinalScore.
type WeightedMeanUnit struct {
	name   string
	tracer trace.Tracer
}

// NewWeightedMeanUnit creates a WeightedMeanUnit.
func NewWeightedMeanUnit(name string) (*WeightedMeanUnit, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	return &WeightedMeanUnit{name: name, tracer: otel.Tracer("weighted-mean-unit")}, nil
}

// Name returns the unit name.
func (u *WeightedMeanUnit) Name() string { return u.name }

// Execute finalizes the responses in state. An empty response list yields a
// *domain.FinalizationError wrapping domain.ErrNoResponses.
func (u *WeightedMeanUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := u.tracer.Start(ctx, "WeightedMeanUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "weighted_mean"),
			attribute.String("unit.id", u.name),
		),
	)
	defer span.End()

	responses, err := requireState(u.name, state, domain.KeyResponses)
	if err != nil {
		span.RecordError(err)
		return state, err
	}
	weights, _ := domain.Get(state, domain.KeyWeights)

	score, err := domain.FinalizeWeighted(responses, weights)
	if err != nil {
		span.RecordError(err)
		return state, fmt.Errorf("unit %s: %w", u.name, err)
	}

	span.SetAttributes(
		attribute.Int("eval.final_score", score),
		attribute.Int("eval.responses_count", len(responses)),
		attribute.Bool("eval.custom_weights", weights != nil),
	)

	return domain.With(state, domain.KeyFinalScore, score), nil
}

// Validate always succeeds; the unit has no configuration.
func (u *WeightedMeanUnit) Validate() error { return nil }
