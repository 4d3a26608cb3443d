package scoring

import (
	"strings"

	"github.com/ahrav/interview-gavel/internal/domain"
)

const (
	fillerPenalty     = 10
	confidentBonus    = 5
	confidentMinWords = 15
	briefPenalty      = 15
	briefWordLimit    = 10
)

// Analyzer estimates how confidently an answer was delivered from its text
// alone. It is pure and safe for concurrent use.
type Analyzer struct {
	tables *Tables
}

// NewAnalyzer returns an Analyzer backed by t, or by the built-in tables
// when t is nil.
func NewAnalyzer(t *Tables) *Analyzer {
	if t == nil {
		t = DefaultTables()
	}
	return &Analyzer{tables: t}
}

// Analyze returns the confidence score and its banded feedback. A blank
// answer scores 0 with "No answer provided.".
func (a *Analyzer) Analyze(answer string) domain.ConfidenceResult {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return domain.ConfidenceResult{Score: 0, Feedback: domain.NoAnswerFeedback}
	}

	m := a.tables.compiled
	words := WordCount(trimmed)
	score := wordTier(words)

	if m.fillers.MatchString(trimmed) {
		score = max(0, score-fillerPenalty)
	}
	if m.confidentPhrases.MatchString(trimmed) && words > confidentMinWords {
		score = min(domain.MaxScore, score+confidentBonus)
	}
	if m.confidenceStruct.MatchString(trimmed) {
		score = min(domain.MaxScore, score+structureBonus)
	}
	if words < briefWordLimit {
		score = max(0, score-briefPenalty)
	}

	score = domain.ClampScore(score)
	return domain.ConfidenceResult{Score: score, Feedback: a.Feedback(score)}
}

// Feedback returns the banded feedback text for a confidence score.
func (a *Analyzer) Feedback(score int) string {
	return bandText(a.tables.compiled.confidenceBands, score)
}

func wordTier(words int) int {
	switch {
	case words >= 50:
		return 85
	case words >= 30:
		return 75
	case words >= 20:
		return 65
	case words >= 10:
		return 50
	case words >= 5:
		return 35
	}
	return 30
}
