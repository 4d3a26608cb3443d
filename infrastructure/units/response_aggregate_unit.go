package units

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"

	"github.com/ahrav/interview-gavel/internal/domain"
	"github.com/ahrav/interview-gavel/internal/ports"
)

var _ ports.Unit = (*ResponseAggregateUnit)(nil)

// Unicode case folder shared by all instances; cases.Caser is safe for
// concurrent String calls.
var foldCaser = cases.Fold()

// ResponseAggregateConfig controls how the signals of one answer are merged.
type ResponseAggregateConfig struct {
	// ContentWeight is the share of the judge score in the final score.
	ContentWeight float64 `yaml:"content_weight" json:"content_weight" validate:"min=0,max=1"`

	// ConfidenceWeight is the share of the delivery-confidence score.
	ConfidenceWeight float64 `yaml:"confidence_weight" json:"confidence_weight" validate:"min=0,max=1"`

	// DedupeThreshold is the normalized Levenshtein similarity at or above
	// which two strengths (or two improvements) are treated as duplicates.
	// A value of 1 only removes exact duplicates after case folding. Zero
	// disables deduplication and keeps the judge's lists verbatim.
	DedupeThreshold float64 `yaml:"dedupe_threshold" json:"dedupe_threshold" validate:"min=0,max=1"`
}

// DefaultResponseAggregateConfig returns the 70/30 split with a 0.9 dedupe
// threshold.
func DefaultResponseAggregateConfig() ResponseAggregateConfig {
	return ResponseAggregateConfig{
		ContentWeight:    domain.DefaultContentWeight,
		ConfidenceWeight: domain.DefaultConfidenceWeight,
		DedupeThreshold:  0.9,
	}
}

// ResponseAggregateUnit builds the AnswerRecord for one answer from the
// outputs of the signal units. It runs whether the judge result came from
// the remote judge or the local fallback and never inspects its source.
//
// Reads domain.KeyQuestion, domain.KeyAnswer, domain.KeyJudgeResult and
// domain.KeyConfidence; optionally domain.KeySuggestedAnswer and
// domain.KeyTopic. Writes domain.KeyAnswerRecord and domain.KeyEvaluation.
type ResponseAggregateUnit struct {
	name   string
	config ResponseAggregateConfig
	agg    domain.Aggregator
	tracer trace.Tracer
	now    func() time.Time
}

// NewResponseAggregateUnit creates a ResponseAggregateUnit. The weights must
// sum to 1.
func NewResponseAggregateUnit(name string, config ResponseAggregateConfig) (*ResponseAggregateUnit, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := validateAggregateConfig(config); err != nil {
		return nil, err
	}

	return &ResponseAggregateUnit{
		name:   name,
		config: config,
		agg: domain.WeightedAggregator{
			ContentWeight:    config.ContentWeight,
			ConfidenceWeight: config.ConfidenceWeight,
		},
		tracer: otel.Tracer("response-aggregate-unit"),
		now:    time.Now,
	}, nil
}

func validateAggregateConfig(config ResponseAggregateConfig) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if !domain.ValidWeights(config.ContentWeight, config.ConfidenceWeight) {
		return fmt.Errorf("weights %.2f/%.2f must sum to 1: %w",
			config.ContentWeight, config.ConfidenceWeight, domain.ErrInvalidConfiguration)
	}
	return nil
}

// Name returns the unit name.
func (u *ResponseAggregateUnit) Name() string { return u.name }

// Execute merges the signals into an AnswerRecord.
func (u *ResponseAggregateUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := u.tracer.Start(ctx, "ResponseAggregateUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "response_aggregate"),
			attribute.String("unit.id", u.name),
			attribute.Float64("config.content_weight", u.config.ContentWeight),
			attribute.Float64("config.confidence_weight", u.config.ConfidenceWeight),
		),
	)
	defer span.End()

	question, err := requireState(u.name, state, domain.KeyQuestion)
	if err != nil {
		span.RecordError(err)
		return state, err
	}
	answer, err := requireState(u.name, state, domain.KeyAnswer)
	if err != nil {
		span.RecordError(err)
		return state, err
	}
	judgeRes, err := requireState(u.name, state, domain.KeyJudgeResult)
	if err != nil {
		span.RecordError(err)
		return state, err
	}
	conf, err := requireState(u.name, state, domain.KeyConfidence)
	if err != nil {
		span.RecordError(err)
		return state, err
	}

	// Optional inputs fall back to the record defaults.
	suggested, _ := domain.Get(state, domain.KeySuggestedAnswer)
	topic, _ := domain.Get(state, domain.KeyTopic)

	judgeRes.Strengths = u.dedupe(judgeRes.Strengths)
	judgeRes.Improvements = u.dedupe(judgeRes.Improvements)

	rec := domain.NewAnswerRecord(u.agg, question, answer, judgeRes, conf, suggested, topic)
	rec.CreatedAt = u.now().UTC()

	span.SetAttributes(
		attribute.Int("eval.score", rec.Score),
		attribute.Int("eval.content_score", judgeRes.Score),
		attribute.Int("eval.confidence", rec.Confidence),
		attribute.String("eval.judge_source", string(judgeRes.Source)),
	)

	return state.WithMultiple(map[string]any{
		domain.KeyAnswerRecord.Name(): rec,
		domain.KeyEvaluation.Name():   rec.Evaluation(),
	}), nil
}

// dedupe drops blank entries and entries that are near-duplicates of an
// earlier one, keeping first-seen order.
func (u *ResponseAggregateUnit) dedupe(items []string) []string {
	if u.config.DedupeThreshold <= 0 {
		if items == nil {
			return []string{}
		}
		return items
	}
	out := make([]string, 0, len(items))
	seen := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		folded := foldCaser.String(item)
		dup := false
		for _, prev := range seen {
			if similarity(folded, prev) >= u.config.DedupeThreshold {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen = append(seen, folded)
		out = append(out, item)
	}
	return out
}

// similarity returns 1 - distance/maxRunes, in [0, 1].
func similarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	maxLen := max(utf8.RuneCountInString(s1), utf8.RuneCountInString(s2))
	if maxLen == 0 {
		return 1.0
	}
	sim := 1.0 - float64(levenshtein.ComputeDistance(s1, s2))/float64(maxLen)
	if sim < 0 {
		sim = 0
	}
	return sim
}

// Validate checks the unit's configuration.
func (u *ResponseAggregateUnit) Validate() error {
	return validateAggregateConfig(u.config)
}
