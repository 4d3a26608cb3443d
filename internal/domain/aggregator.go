package domain

import "math"

// Default contribution of each signal to an answer's final score.
const (
	DefaultContentWeight    = 0.7
	DefaultConfidenceWeight = 0.3
)

// Aggregator combines the content score and the delivery-confidence score of
// one answer into the score stored on its AnswerRecord.
// Implementations must return a value in [MinScore, MaxScore] for any input
// and must not depend on whether the content score came from the remote
// judge or the local heuristic.
type Aggregator interface {
	Aggregate(content, confidence int) int
}

// WeightedAggregator is a linear Aggregator. The zero value uses the default
// 70/30 split.
type WeightedAggregator struct {
	ContentWeight    float64
	ConfidenceWeight float64
}

// Aggregate returns round(content*wc + confidence*wf), clamped.
func (a WeightedAggregator) Aggregate(content, confidence int) int {
	wc, wf := a.ContentWeight, a.ConfidenceWeight
	if wc == 0 && wf == 0 {
		wc, wf = DefaultContentWeight, DefaultConfidenceWeight
	}
	return RoundScore(float64(ClampScore(content))*wc + float64(ClampScore(confidence))*wf)
}

// CombineScores applies the default 70/30 weighting.
//
//	CombineScores(80, 60) == 74
func CombineScores(content, confidence int) int {
	return WeightedAggregator{}.Aggregate(content, confidence)
}

// NewAnswerRecord assembles the record for one evaluated answer. Missing
// optional values are replaced by their documented defaults; topic is
// expected to be resolved by the caller when the judge left it empty.
func NewAnswerRecord(agg Aggregator, question, answer string, judge JudgeResult, conf ConfidenceResult, suggested, topic string) AnswerRecord {
	if agg == nil {
		agg = WeightedAggregator{}
	}
	feedback := judge.Feedback
	if feedback == "" {
		feedback = DefaultFeedback
	}
	confFeedback := conf.Feedback
	if confFeedback == "" {
		confFeedback = DefaultConfidenceFeedback
	}
	if suggested == "" {
		suggested = DefaultSuggestedAnswer
	}
	if judge.Topic != "" {
		topic = judge.Topic
	}
	if topic == "" {
		topic = GeneralTopic
	}
	return AnswerRecord{
		Question:           question,
		Answer:             answer,
		Score:              agg.Aggregate(judge.Score, conf.Score),
		Feedback:           feedback,
		Confidence:         ClampScore(conf.Score),
		ConfidenceFeedback: confFeedback,
		SuggestedAnswer:    suggested,
		Topic:              topic,
		Strengths:          nonNil(judge.Strengths),
		Improvements:       nonNil(judge.Improvements),
		Weight:             1,
	}
}

// ValidWeights reports whether a pair of aggregation weights is usable:
// both non-negative, finite, and summing to 1.
func ValidWeights(content, confidence float64) bool {
	if content < 0 || confidence < 0 || math.IsNaN(content+confidence) {
		return false
	}
	return math.Abs(content+confidence-1) < 1e-9
}
