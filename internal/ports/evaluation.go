package ports

import (
	"context"

	"github.com/ahrav/interview-gavel/internal/domain"
)

// Judge evaluates the content of an answer. A remote judge returns an error
// on transport failure; a local judge never does. Callers compose the two
// so that an evaluation always resolves.
type Judge interface {
	Evaluate(ctx context.Context, question, answer string) (domain.JudgeResult, error)
}

// SampleAnswerer produces a model answer for a question.
type SampleAnswerer interface {
	SuggestAnswer(ctx context.Context, question string) (string, error)
}

// QuestionGenerator produces interview questions for a role and level.
type QuestionGenerator interface {
	Questions(ctx context.Context, role, level string) ([]string, error)
}

// ConfidenceAnalyzer rates delivery confidence from answer text.
type ConfidenceAnalyzer interface {
	Analyze(answer string) domain.ConfidenceResult
}

// TopicClassifier maps a question to a topic label.
type TopicClassifier interface {
	Classify(question string) string
}
