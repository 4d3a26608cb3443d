package units

import (
	"context"
	"fmt"

	"github.com/ahrav/interview-gavel/internal/domain"
	"github.com/ahrav/interview-gavel/internal/ports"
)

var (
	_ ports.Unit = (*ConfidenceUnit)(nil)
	_ ports.Unit = (*JudgeUnit)(nil)
	_ ports.Unit = (*SuggestedAnswerUnit)(nil)
)

// ConfidenceUnit rates delivery confidence from the answer text.
//
// Reads domain.KeyAnswer; writes domain.KeyConfidence.
type ConfidenceUnit struct {
	name     string
	analyzer ports.ConfidenceAnalyzer
}

// NewConfidenceUnit creates a ConfidenceUnit.
func NewConfidenceUnit(name string, analyzer ports.ConfidenceAnalyzer) (*ConfidenceUnit, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if analyzer == nil {
		return nil, fmt.Errorf("confidence analyzer: %w", ErrNilDependency)
	}
	return &ConfidenceUnit{name: name, analyzer: analyzer}, nil
}

// Name returns the unit name.
func (u *ConfidenceUnit) Name() string { return u.name }

// Execute analyzes the answer. It never blocks.
func (u *ConfidenceUnit) Execute(_ context.Context, state domain.State) (domain.State, error) {
	answer, err := requireState(u.name, state, domain.KeyAnswer)
	if err != nil {
		return state, err
	}
	return domain.With(state, domain.KeyConfidence, u.analyzer.Analyze(answer)), nil
}

// Validate reports whether the unit is usable.
func (u *ConfidenceUnit) Validate() error {
	if u.analyzer == nil {
		return fmt.Errorf("unit %s: %w", u.name, ErrNilDependency)
	}
	return nil
}

// JudgeUnit grades answer content with a ports.Judge and labels the
// question's topic. Wrap the judge in judge.FallbackJudge to guarantee a
// result; a judge error is returned as-is.
//
// Reads domain.KeyQuestion and domain.KeyAnswer; writes
// domain.KeyJudgeResult and domain.KeyTopic.
type JudgeUnit struct {
	name       string
	judge      ports.Judge
	classifier ports.TopicClassifier
}

// NewJudgeUnit creates a JudgeUnit.
func NewJudgeUnit(name string, judge ports.Judge, classifier ports.TopicClassifier) (*JudgeUnit, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if judge == nil || classifier == nil {
		return nil, fmt.Errorf("judge and topic classifier: %w", ErrNilDependency)
	}
	return &JudgeUnit{name: name, judge: judge, classifier: classifier}, nil
}

// Name returns the unit name.
func (u *JudgeUnit) Name() string { return u.name }

// Execute evaluates the answer.
func (u *JudgeUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	question, err := requireState(u.name, state, domain.KeyQuestion)
	if err != nil {
		return state, err
	}
	answer, err := requireState(u.name, state, domain.KeyAnswer)
	if err != nil {
		return state, err
	}

	res, err := u.judge.Evaluate(ctx, question, answer)
	if err != nil {
		return state, fmt.Errorf("unit %s: judge evaluation failed: %w", u.name, err)
	}

	return state.WithMultiple(map[string]any{
		domain.KeyJudgeResult.Name(): res,
		domain.KeyTopic.Name():       u.classifier.Classify(question),
	}), nil
}

// Validate reports whether the unit is usable.
func (u *JudgeUnit) Validate() error {
	if u.judge == nil || u.classifier == nil {
		return fmt.Errorf("unit %s: %w", u.name, ErrNilDependency)
	}
	return nil
}

// SuggestedAnswerUnit fetches a sample answer for the question. It is best
// effort: when the sampler fails the state is returned without a
// suggestion and the aggregator applies its default.
//
// Reads domain.KeyQuestion; writes domain.KeySuggestedAnswer.
type SuggestedAnswerUnit struct {
	name    string
	sampler ports.SampleAnswerer
}

// NewSuggestedAnswerUnit creates a SuggestedAnswerUnit.
func NewSuggestedAnswerUnit(name string, sampler ports.SampleAnswerer) (*SuggestedAnswerUnit, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if sampler == nil {
		return nil, fmt.Errorf("sample answerer: %w", ErrNilDependency)
	}
	return &SuggestedAnswerUnit{name: name, sampler: sampler}, nil
}

// Name returns the unit name.
func (u *SuggestedAnswerUnit) Name() string { return u.name }

// Execute requests the suggestion.
func (u *SuggestedAnswerUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	question, err := requireState(u.name, state, domain.KeyQuestion)
	if err != nil {
		return state, err
	}
	suggestion, err := u.sampler.SuggestAnswer(ctx, question)
	if err != nil || suggestion == "" {
		return state, nil
	}
	return domain.With(state, domain.KeySuggestedAnswer, suggestion), nil
}

// Validate reports whether the unit is usable.
func (u *SuggestedAnswerUnit) Validate() error {
	if u.sampler == nil {
		return fmt.Errorf("unit %s: %w", u.name, ErrNilDependency)
	}
	return nil
}
