package judge

import (
	"context"

	"github.com/ahrav/interview-gavel/internal/domain"
	"github.com/ahrav/interview-gavel/internal/ports"
	"github.com/ahrav/interview-gavel/internal/scoring"
)

// LocalFeedbackPrefix marks feedback produced by the heuristic scorer.
const LocalFeedbackPrefix = "local evaluation: "

// LocalJudge grades answers with the deterministic heuristics. It never
// fails and never blocks.
type LocalJudge struct {
	scorer     *scoring.Scorer
	classifier *scoring.Classifier
}

var _ ports.Judge = (*LocalJudge)(nil)

// NewLocalJudge builds a LocalJudge from tables. Nil selects the built-in
// tables.
func NewLocalJudge(tables *scoring.Tables) *LocalJudge {
	if tables == nil {
		tables = scoring.DefaultTables()
	}
	return &LocalJudge{
		scorer:     scoring.NewScorer(tables),
		classifier: scoring.NewClassifier(tables),
	}
}

// Evaluate returns Result; the error is always nil.
func (j *LocalJudge) Evaluate(_ context.Context, question, answer string) (domain.JudgeResult, error) {
	return j.Result(question, answer), nil
}

// Result computes the heuristic verdict.
func (j *LocalJudge) Result(question, answer string) domain.JudgeResult {
	score := j.scorer.Score(question, answer)
	return domain.JudgeResult{
		Score:        score,
		Feedback:     LocalFeedbackPrefix + j.scorer.Feedback(score),
		Topic:        j.classifier.Classify(question),
		Strengths:    []string{},
		Improvements: []string{},
		Source:       domain.SourceLocal,
	}
}
