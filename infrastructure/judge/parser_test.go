package judge

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/interview-gavel/internal/domain"
)

func localResult() domain.JudgeResult {
	return domain.JudgeResult{
		Score:        47,
		Feedback:     LocalFeedbackPrefix + "local band",
		Topic:        "Data Structures",
		Strengths:    []string{},
		Improvements: []string{},
		Source:       domain.SourceLocal,
	}
}

// TestParseResponse_Parsed tests the JSON tier including defaulting of
// missing fields.
func TestParseResponse_Parsed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.JudgeResult
	}{
		{
			name: "complete object",
			raw:  `{"score": 85, "feedback": "Solid", "topic": "Algorithms", "strengths": ["clear"], "improvements": ["depth"]}`,
			want: domain.JudgeResult{
				Score: 85, Feedback: "Solid", Topic: "Algorithms",
				Strengths: []string{"clear"}, Improvements: []string{"depth"}, Source: domain.SourceRemote,
			},
		},
		{
			name: "score above range is clamped",
			raw:  `{"score": 140, "feedback": "x"}`,
			want: domain.JudgeResult{
				Score: 100, Feedback: "x", Topic: "Data Structures",
				Strengths: []string{}, Improvements: []string{}, Source: domain.SourceRemote,
			},
		},
		{
			name: "missing fields use defaults",
			raw:  `Here you go: {"strengths": "not a list"} thanks`,
			want: domain.JudgeResult{
				Score: 47, Feedback: domain.DefaultJudgeFeedback, Topic: "Data Structures",
				Strengths: []string{}, Improvements: []string{}, Source: domain.SourceRemote,
			},
		},
		{
			name: "non-numeric score uses local score",
			raw:  `{"score": "excellent", "feedback": "ok"}`,
			want: domain.JudgeResult{
				Score: 47, Feedback: "ok", Topic: "Data Structures",
				Strengths: []string{}, Improvements: []string{}, Source: domain.SourceRemote,
			},
		},
		{
			name: "numeric string score is accepted",
			raw:  `{"score": "72.6"}`,
			want: domain.JudgeResult{
				Score: 73, Feedback: domain.DefaultJudgeFeedback, Topic: "Data Structures",
				Strengths: []string{}, Improvements: []string{}, Source: domain.SourceRemote,
			},
		},
		{
			name: "zero score is kept",
			raw:  `{"score": 0, "feedback": "off topic"}`,
			want: domain.JudgeResult{
				Score: 0, Feedback: "off topic", Topic: "Data Structures",
				Strengths: []string{}, Improvements: []string{}, Source: domain.SourceRemote,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseResponse(tt.raw)
			require.Equal(t, Parsed, res.Kind)
			assert.Equal(t, tt.want, res.Resolve(localResult()))
		})
	}
}

// TestParseResponse_FieldValidation verifies fields failing validation
// degrade to their defaults while the rest of the payload is kept.
func TestParseResponse_FieldValidation(t *testing.T) {
	longTopic := strings.Repeat("t", 81)
	longItem := strings.Repeat("s", 501)
	many := make([]string, 25)
	for i := range many {
		many[i] = fmt.Sprintf("%q", fmt.Sprintf("point %d", i))
	}

	tests := []struct {
		name             string
		raw              string
		wantTopic        string
		wantFeedback     string
		wantStrengths    []string
		wantImprovements int
	}{
		{
			name:             "overlong topic uses local topic",
			raw:              `{"score": 70, "feedback": "ok", "topic": "` + longTopic + `"}`,
			wantTopic:        "Data Structures",
			wantFeedback:     "ok",
			wantStrengths:    []string{},
			wantImprovements: 0,
		},
		{
			name:             "overlong and blank items are dropped",
			raw:              `{"score": 70, "feedback": "ok", "topic": "Testing", "strengths": ["clear", "` + longItem + `", "  ", 3]}`,
			wantTopic:        "Testing",
			wantFeedback:     "ok",
			wantStrengths:    []string{"clear"},
			wantImprovements: 0,
		},
		{
			name:             "item lists are capped",
			raw:              `{"score": 70, "improvements": [` + strings.Join(many, ",") + `]}`,
			wantTopic:        "Data Structures",
			wantFeedback:     domain.DefaultJudgeFeedback,
			wantStrengths:    []string{},
			wantImprovements: maxItems,
		},
		{
			name:             "overlong feedback uses default",
			raw:              `{"score": 70, "feedback": "` + strings.Repeat("f", 4001) + `"}`,
			wantTopic:        "Data Structures",
			wantFeedback:     domain.DefaultJudgeFeedback,
			wantStrengths:    []string{},
			wantImprovements: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseResponse(tt.raw)
			require.Equal(t, Parsed, res.Kind)

			got := res.Resolve(localResult())
			assert.Equal(t, 70, got.Score)
			assert.Equal(t, tt.wantTopic, got.Topic)
			assert.Equal(t, tt.wantFeedback, got.Feedback)
			assert.Equal(t, tt.wantStrengths, got.Strengths)
			assert.Len(t, got.Improvements, tt.wantImprovements)
			assert.Equal(t, domain.SourceRemote, got.Source)
		})
	}
}

// TestParseResponse_FencedAndBareAgree verifies a fenced reply parses like
// the bare object.
func TestParseResponse_FencedAndBareAgree(t *testing.T) {
	obj := `{"score": 64, "feedback": "Uses {braces} in text", "topic": "Testing"}`
	bare := ParseResponse(obj).Resolve(localResult())

	for _, raw := range []string{
		"```json\n" + obj + "\n```",
		"```\n" + obj + "\n```",
		"Sure! Here is my evaluation:\n```json\n" + obj + "\n```\nLet me know.",
	} {
		got := ParseResponse(raw)
		require.Equal(t, Parsed, got.Kind, raw)
		assert.Equal(t, bare, got.Resolve(localResult()), raw)
	}
	assert.Equal(t, "Uses {braces} in text", bare.Feedback)
}

// TestParseResponse_RecoveredScore tests the free-text score tier.
func TestParseResponse_RecoveredScore(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "score label", raw: "Overall Score: 78. Good structure.", want: 78},
		{name: "quoted label", raw: `"score" 91`, want: 91},
		{name: "ratio", raw: "I would rate this 65 / 100 overall.", want: 65},
		{name: "out of range is clamped", raw: "score: 250", want: 100},
		{name: "invalid json falls through", raw: "{score: 55, feedback: nice}", want: 55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseResponse(tt.raw)
			require.Equal(t, RecoveredScore, res.Kind)

			got := res.Resolve(localResult())
			assert.Equal(t, tt.want, got.Score)
			assert.Equal(t, tt.raw, got.Feedback)
			assert.Equal(t, "Data Structures", got.Topic)
			assert.Equal(t, domain.SourceRecovered, got.Source)
			assert.NotNil(t, got.Strengths)
			assert.NotNil(t, got.Improvements)
		})
	}
}

// TestParseResponse_Unparseable verifies the full local result is used
// rather than an arbitrary default score.
func TestParseResponse_Unparseable(t *testing.T) {
	for _, raw := range []string{"", "   ", "The candidate did fine.", "{ unterminated"} {
		res := ParseResponse(raw)
		assert.Equal(t, Unparseable, res.Kind, raw)
		assert.Equal(t, localResult(), res.Resolve(localResult()), raw)
	}
}

// TestExtractJSON tests balanced-object extraction edge cases.
func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "nested", in: `x {"a": {"b": 1}} y`, want: `{"a": {"b": 1}}`},
		{name: "escaped quote in string", in: `{"a": "say \"}\""}`, want: `{"a": "say \"}\""}`},
		{name: "first of two objects", in: `{"a":1} {"b":2}`, want: `{"a":1}`},
		{name: "unclosed then closed", in: `{ oops {"a":1}`, want: `{"a":1}`},
		{name: "none", in: "no braces", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

// TestParseKind_String tests the kind names used in logs.
func TestParseKind_String(t *testing.T) {
	assert.Equal(t, "parsed", Parsed.String())
	assert.Equal(t, "recovered_score", RecoveredScore.String())
	assert.Equal(t, "unparseable", Unparseable.String())
}
