package domain

import (
	"math"
	"time"
)

// Score bounds shared by every score-producing component.
const (
	MinScore = 0
	MaxScore = 100
)

// Default texts used whenever a component produced no value for a field.
// An AnswerRecord is never persisted with these fields empty.
const (
	DefaultFeedback           = "No feedback available"
	DefaultConfidenceFeedback = "Unable to analyze confidence"
	DefaultSuggestedAnswer    = "Focus on clear explanations"
	DefaultJudgeFeedback      = "Good attempt at answering the question."
	NoAnswerFeedback          = "No answer provided."
	GeneralTopic              = "General"
)

// JudgeSource records which tier produced a JudgeResult.
type JudgeSource string

const (
	// SourceRemote marks a result parsed from the judge's JSON payload.
	SourceRemote JudgeSource = "remote"
	// SourceRecovered marks a result whose score was scraped from free text.
	SourceRecovered JudgeSource = "recovered"
	// SourceLocal marks a result computed by the local heuristic.
	SourceLocal JudgeSource = "local"
)

// JudgeResult is the content evaluation of a single answer. Every field is
// populated; lists are empty rather than nil.
type JudgeResult struct {
	Score        int         `json:"score"`
	Feedback     string      `json:"feedback"`
	Topic        string      `json:"topic"`
	Strengths    []string    `json:"strengths"`
	Improvements []string    `json:"improvements"`
	Source       JudgeSource `json:"source,omitempty"`
}

// ConfidenceResult is the delivery-confidence analysis of a single answer.
type ConfidenceResult struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Evaluation is the response body returned to the caller for one submitted
// answer.
type Evaluation struct {
	Score              int      `json:"score"`
	Feedback           string   `json:"feedback"`
	Confidence         int      `json:"confidence"`
	ConfidenceFeedback string   `json:"confidenceFeedback"`
	SuggestedAnswer    string   `json:"suggestedAnswer"`
	Topic              string   `json:"topic"`
	Strengths          []string `json:"strengths"`
	Improvements       []string `json:"improvements"`
}

// AnswerRecord is the persisted, immutable result of evaluating one answer.
// Records are append-only within an interview.
type AnswerRecord struct {
	Question           string    `json:"question"`
	Answer             string    `json:"answer"`
	Score              int       `json:"score"`
	Feedback           string    `json:"feedback"`
	Confidence         int       `json:"confidence"`
	ConfidenceFeedback string    `json:"confidenceFeedback"`
	SuggestedAnswer    string    `json:"suggestedAnswer"`
	Topic              string    `json:"topic"`
	Strengths          []string  `json:"strengths"`
	Improvements       []string  `json:"improvements"`
	Weight             float64   `json:"weight,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// EffectiveWeight returns the weight used during finalization. Unset or
// non-positive weights count as 1.
func (r AnswerRecord) EffectiveWeight() float64 {
	if r.Weight <= 0 || math.IsNaN(r.Weight) || math.IsInf(r.Weight, 0) {
		return 1
	}
	return r.Weight
}

// Evaluation projects the record onto the response body returned to callers.
func (r AnswerRecord) Evaluation() Evaluation {
	return Evaluation{
		Score:              r.Score,
		Feedback:           r.Feedback,
		Confidence:         r.Confidence,
		ConfidenceFeedback: r.ConfidenceFeedback,
		SuggestedAnswer:    r.SuggestedAnswer,
		Topic:              r.Topic,
		Strengths:          nonNil(r.Strengths),
		Improvements:       nonNil(r.Improvements),
	}
}

// InterviewSession groups the answer records of one interview. FinalScore is
// nil until the session has been finalized.
type InterviewSession struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	Role           string         `json:"type"`
	Difficulty     string         `json:"difficulty"`
	TotalQuestions int            `json:"totalQuestions"`
	Responses      []AnswerRecord `json:"responses"`
	FinalScore     *int           `json:"finalScore"`
	CreatedAt      time.Time      `json:"createdAt"`
	CompletedAt    *time.Time     `json:"completedAt,omitempty"`
}

// Finalized reports whether a final score has been recorded.
func (s InterviewSession) Finalized() bool { return s.FinalScore != nil }

// Summary returns the history row for the session.
func (s InterviewSession) Summary() InterviewSummary {
	return InterviewSummary{
		ID:         s.ID,
		Role:       s.Role,
		Difficulty: s.Difficulty,
		CreatedAt:  s.CreatedAt,
		FinalScore: s.FinalScore,
	}
}

// InterviewSummary is one row of a user's interview history.
type InterviewSummary struct {
	ID         string    `json:"id"`
	Role       string    `json:"type"`
	Difficulty string    `json:"difficulty"`
	CreatedAt  time.Time `json:"createdAt"`
	FinalScore *int      `json:"finalScore"`
}

// ClampScore bounds a score to [MinScore, MaxScore].
func ClampScore(score int) int {
	return max(MinScore, min(MaxScore, score))
}

// RoundScore rounds half away from zero and clamps the result. NaN maps to
// MinScore.
func RoundScore(v float64) int {
	if math.IsNaN(v) {
		return MinScore
	}
	if math.IsInf(v, 1) {
		return MaxScore
	}
	if math.IsInf(v, -1) {
		return MinScore
	}
	return ClampScore(int(math.Round(v)))
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
