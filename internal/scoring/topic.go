package scoring

import (
	"strings"

	"github.com/ahrav/interview-gavel/internal/domain"
)

// Classifier maps a question to a coarse topic label using an ordered rule
// table; the first matching rule wins.
type Classifier struct {
	tables *Tables
}

// NewClassifier returns a Classifier backed by t, or by the built-in tables
// when t is nil.
func NewClassifier(t *Tables) *Classifier {
	if t == nil {
		t = DefaultTables()
	}
	return &Classifier{tables: t}
}

// Classify returns the topic label for question. An empty question yields
// "General"; a question matching no rule yields the default topic.
func (c *Classifier) Classify(question string) string {
	if strings.TrimSpace(question) == "" {
		return domain.GeneralTopic
	}
	for _, rule := range c.tables.compiled.topics {
		if rule.re.MatchString(question) {
			return rule.label
		}
	}
	return c.tables.DefaultTopic
}
