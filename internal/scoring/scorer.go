package scoring

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ahrav/interview-gavel/internal/domain"
)

// Scoring constants of the local content heuristic.
const (
	minAnswerRunes  = 10
	tooShortScore   = 20
	baseScore       = 30
	relevanceWeight = 25
	termPoints      = 2
	maxTermBonus    = 15
	structureBonus  = 5
	exampleBonus    = 5
)

// Scorer grades answer content with a fixed, inspectable formula. It is the
// fallback whenever the remote judge is unavailable and supplies defaults for
// fields the judge omits. The zero value is not usable; call NewScorer.
type Scorer struct {
	tables *Tables
}

// NewScorer returns a Scorer backed by t, or by the built-in tables when t
// is nil.
func NewScorer(t *Tables) *Scorer {
	if t == nil {
		t = DefaultTables()
	}
	return &Scorer{tables: t}
}

// Score returns the local content score of answer for question in [0,100].
// It never fails; degenerate input yields the minimum of 20.
func (s *Scorer) Score(question, answer string) int {
	trimmed := strings.TrimSpace(answer)
	if utf8.RuneCountInString(trimmed) < minAnswerRunes {
		return tooShortScore
	}

	m := s.tables.compiled
	answerLower := lower(answer)

	score := baseScore
	score += lengthBonus(WordCount(trimmed))

	qk := s.tables.Keywords(lower(question))
	ak := s.tables.Keywords(answerLower)
	score += int(math.Round(relevance(qk, ak) * relevanceWeight))

	terms := 0
	for _, term := range m.terms {
		if strings.Contains(answerLower, term) {
			terms++
		}
	}
	score += min(maxTermBonus, terms*termPoints)

	if m.structure.MatchString(answer) {
		score += structureBonus
	}
	if m.example.MatchString(answer) {
		score += exampleBonus
	}

	score += completenessBonus(utf8.RuneCountInString(answer))
	return domain.ClampScore(score)
}

// Feedback returns the banded feedback text for a content score.
func (s *Scorer) Feedback(score int) string {
	return bandText(s.tables.compiled.contentBands, score)
}

func lengthBonus(words int) int {
	switch {
	case words >= 50:
		return 20
	case words >= 30:
		return 15
	case words >= 20:
		return 10
	case words >= 10:
		return 5
	}
	return 0
}

func completenessBonus(runes int) int {
	switch {
	case runes > 200:
		return 15
	case runes > 100:
		return 10
	case runes > 50:
		return 5
	}
	return 0
}
