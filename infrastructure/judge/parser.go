package judge

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ahrav/interview-gavel/internal/domain"
)

// ParseKind identifies which tier of ParseResponse produced a result.
type ParseKind int

const (
	// Unparseable means neither a JSON object nor a score was found.
	Unparseable ParseKind = iota
	// RecoveredScore means only a score could be scraped from free text.
	RecoveredScore
	// Parsed means a JSON object was decoded.
	Parsed
)

func (k ParseKind) String() string {
	switch k {
	case Parsed:
		return "parsed"
	case RecoveredScore:
		return "recovered_score"
	default:
		return "unparseable"
	}
}

// ParseResult is the tagged outcome of parsing a judge reply. Only the
// fields of the matching tier are set.
type ParseResult struct {
	Kind ParseKind

	// Parsed tier. Score is nil when absent or not a number.
	Score        *float64
	Feedback     string
	Topic        string
	Strengths    []string
	Improvements []string

	// RecoveredScore tier.
	Recovered int
	Text      string
}

var (
	scoreLabelPattern = regexp.MustCompile(`(?i)score["\s:]*(\d+)`)
	scoreRatioPattern = regexp.MustCompile(`(\d+)\s*/\s*100`)
)

// ParseResponse classifies a raw judge reply. The first balanced JSON
// object, inside or outside a code fence, wins; otherwise a "score: NN" or
// "NN/100" mention is recovered; otherwise the reply is unparseable.
func ParseResponse(raw string) ParseResult {
	if obj := extractJSON(raw); obj != "" {
		if res, ok := decodePayload(obj); ok {
			return res
		}
	}

	for _, re := range []*regexp.Regexp{scoreLabelPattern, scoreRatioPattern} {
		if m := re.FindStringSubmatch(raw); m != nil {
			return ParseResult{
				Kind:      RecoveredScore,
				Recovered: parseScoreDigits(m[1]),
				Text:      strings.TrimSpace(raw),
			}
		}
	}
	return ParseResult{Kind: Unparseable}
}

// Resolve turns the parse result into a complete JudgeResult, taking every
// missing field from local.
func (r ParseResult) Resolve(local domain.JudgeResult) domain.JudgeResult {
	switch r.Kind {
	case Parsed:
		out := domain.JudgeResult{
			Score:        local.Score,
			Feedback:     r.Feedback,
			Topic:        r.Topic,
			Strengths:    nonNil(r.Strengths),
			Improvements: nonNil(r.Improvements),
			Source:       domain.SourceRemote,
		}
		if r.Score != nil {
			out.Score = domain.RoundScore(*r.Score)
		}
		if out.Feedback == "" {
			out.Feedback = domain.DefaultJudgeFeedback
		}
		if out.Topic == "" {
			out.Topic = local.Topic
		}
		return out
	case RecoveredScore:
		feedback := r.Text
		if feedback == "" {
			feedback = domain.DefaultJudgeFeedback
		}
		return domain.JudgeResult{
			Score:        domain.ClampScore(r.Recovered),
			Feedback:     feedback,
			Topic:        local.Topic,
			Strengths:    []string{},
			Improvements: []string{},
			Source:       domain.SourceRecovered,
		}
	default:
		return local
	}
}

// Validation rules for decoded text fields. A value that fails its rule
// degrades to the field default, the same as a wrongly typed value.
const (
	feedbackRule = "max=4000"
	topicRule    = "max=80"
	itemRule     = "required,max=500"
	maxItems     = 20
)

// payload mirrors the requested JSON shape with loose types so that a
// wrongly typed field degrades to its default instead of failing the
// decode.
type payload struct {
	Score        any `json:"score"`
	Feedback     any `json:"feedback"`
	Topic        any `json:"topic"`
	Strengths    any `json:"strengths"`
	Improvements any `json:"improvements"`
}

func decodePayload(obj string) (ParseResult, bool) {
	var p payload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return ParseResult{}, false
	}
	res := ParseResult{
		Kind:         Parsed,
		Feedback:     validText(asString(p.Feedback), feedbackRule),
		Topic:        validText(asString(p.Topic), topicRule),
		Strengths:    asStrings(p.Strengths),
		Improvements: asStrings(p.Improvements),
	}
	if score, ok := asNumber(p.Score); ok {
		res.Score = &score
	}
	return res, true
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// validText trims s and returns it when it satisfies rule, or "" otherwise.
func validText(s, rule string) string {
	s = strings.TrimSpace(s)
	if err := validate.Var(s, rule); err != nil {
		return ""
	}
	return s
}

// asStrings keeps the valid string items of a JSON array, up to maxItems.
func asStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, min(len(items), maxItems))
	for _, item := range items {
		if len(out) == maxItems {
			break
		}
		s, _ := item.(string)
		if s = validText(s, itemRule); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseScoreDigits(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		// Only overflow can fail here; the pattern admits digits only.
		return domain.MaxScore
	}
	return n
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// extractJSON returns the first balanced JSON object in response. The
// contents of a markdown code fence are preferred when present, so fenced
// and bare replies yield the same object. Braces inside string literals are
// ignored.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)
	if fenced, ok := fencedBlock(response); ok {
		if obj := balancedObject(fenced); obj != "" {
			return obj
		}
	}
	return balancedObject(response)
}

func fencedBlock(response string) (string, bool) {
	start := strings.Index(response, "```")
	if start == -1 {
		return "", false
	}
	start += 3
	// Skip a language tag such as "json".
	if nl := strings.IndexByte(response[start:], '\n'); nl != -1 {
		start += nl + 1
	}
	end := strings.Index(response[start:], "```")
	if end == -1 {
		return response[start:], true
	}
	return response[start : start+end], true
}

func balancedObject(s string) string {
	for start := strings.IndexByte(s, '{'); start != -1; {
		if end := matchBrace(s, start); end != -1 {
			return s[start : end+1]
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next == -1 {
			break
		}
		start += next + 1
	}
	return ""
}

// matchBrace returns the index of the brace closing the one at start, or
// -1 when the object is not closed.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
