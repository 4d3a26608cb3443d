package scoring

import "strings"

// Sampler returns canned sample answers keyed on words in the question.
type Sampler struct {
	tables *Tables
}

// NewSampler returns a Sampler backed by t, or by the built-in tables when t
// is nil.
func NewSampler(t *Tables) *Sampler {
	if t == nil {
		t = DefaultTables()
	}
	return &Sampler{tables: t}
}

// SampleAnswer returns the snippet of the first rule matching question, or
// the generic approach outline.
func (s *Sampler) SampleAnswer(question string) string {
	q := lower(question)
	for _, rule := range s.tables.Samples {
		if rule.matches(q) {
			return rule.Text
		}
	}
	return s.tables.DefaultSample
}

func (r SampleRule) matches(q string) bool {
	for _, kw := range r.All {
		if !strings.Contains(q, strings.ToLower(kw)) {
			return false
		}
	}
	if len(r.Any) == 0 {
		return true
	}
	for _, kw := range r.Any {
		if strings.Contains(q, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// FallbackQuestions returns the static question list for role and level,
// falling back to the configured default role and level when either is
// unknown. Lookups ignore case.
func (t *Tables) FallbackQuestions(role, level string) []string {
	if qs, ok := lookupFold(t.Questions, role, level); ok {
		return append([]string(nil), qs...)
	}
	qs := t.Questions[t.FallbackRole][t.FallbackLevel]
	return append([]string(nil), qs...)
}

func lookupFold(table map[string]map[string][]string, role, level string) ([]string, bool) {
	for r, levels := range table {
		if !strings.EqualFold(r, strings.TrimSpace(role)) {
			continue
		}
		for l, qs := range levels {
			if strings.EqualFold(l, strings.TrimSpace(level)) {
				return qs, true
			}
		}
	}
	return nil, false
}
