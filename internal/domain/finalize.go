package domain

// Finalize computes the session-level score as the weight-averaged mean of
// the response scores, rounded and clamped. A response with an unset or
// non-positive weight counts with weight 1. An empty list yields a
// *FinalizationError wrapping ErrNoResponses.
func Finalize(responses []AnswerRecord) (int, error) {
	return FinalizeWeighted(responses, nil)
}

// FinalizeWeighted is Finalize with an optional caller weight vector that
// overrides the per-record weights. A non-nil vector must have one entry per
// response; non-positive entries count as 1.
func FinalizeWeighted(responses []AnswerRecord, weights []float64) (int, error) {
	if len(responses) == 0 {
		return 0, &FinalizationError{Err: ErrNoResponses}
	}
	if weights != nil && len(weights) != len(responses) {
		return 0, &FinalizationError{Err: ErrWeightMismatch}
	}

	var sum, total float64
	for i, r := range responses {
		w := r.EffectiveWeight()
		if weights != nil {
			w = AnswerRecord{Weight: weights[i]}.EffectiveWeight()
		}
		sum += float64(ClampScore(r.Score)) * w
		total += w
	}
	return RoundScore(sum / total), nil
}
