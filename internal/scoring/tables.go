// Package scoring implements the deterministic heuristics used to grade an
// interview answer without a remote judge: the local content scorer, the
// delivery-confidence analyzer, the topic classifier, and the canned sample
// answers. All word lists live in Tables so they can be inspected and
// overridden without touching code.
package scoring

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/interview-gavel/internal/domain"
)

//go:embed defaults.yaml
var defaultTablesYAML []byte

var validate = validator.New()

// Band maps every score at or above Min to a feedback text. Bands are
// evaluated from the highest Min downwards.
type Band struct {
	Min  int    `yaml:"min" validate:"min=0,max=100"`
	Text string `yaml:"text" validate:"required"`
}

// TopicRule assigns Label to any question containing one of Keywords at a
// word start.
type TopicRule struct {
	Label    string   `yaml:"label" validate:"required"`
	Keywords []string `yaml:"keywords" validate:"required,min=1,dive,required"`
}

// SampleRule selects a canned sample answer. A rule matches when every
// entry of All and, if present, at least one entry of Any appear in the
// lower-cased question.
type SampleRule struct {
	Name string   `yaml:"name" validate:"required"`
	All  []string `yaml:"all" validate:"required_without=Any,dive,required"`
	Any  []string `yaml:"any" validate:"required_without=All,dive,required"`
	Text string   `yaml:"text" validate:"required"`
}

// Tables holds every word list and lookup table used by the heuristics.
type Tables struct {
	StopWords                  []string `yaml:"stop_words"`
	TechnicalTerms             []string `yaml:"technical_terms" validate:"required,dive,required"`
	StructureMarkers           []string `yaml:"structure_markers" validate:"required,dive,required"`
	ExampleMarkers             []string `yaml:"example_markers" validate:"required,dive,required"`
	ConfidenceStructureMarkers []string `yaml:"confidence_structure_markers" validate:"required,dive,required"`
	FillerWords                []string `yaml:"filler_words" validate:"required,dive,required"`
	ConfidentPhrases           []string `yaml:"confident_phrases" validate:"required,dive,required"`

	ContentBands    []Band `yaml:"content_bands" validate:"required,dive"`
	ConfidenceBands []Band `yaml:"confidence_bands" validate:"required,dive"`

	DefaultTopic string      `yaml:"default_topic" validate:"required"`
	Topics       []TopicRule `yaml:"topics" validate:"required,dive"`

	Samples       []SampleRule `yaml:"samples" validate:"dive"`
	DefaultSample string       `yaml:"default_sample" validate:"required"`

	FallbackRole  string                         `yaml:"fallback_role" validate:"required"`
	FallbackLevel string                         `yaml:"fallback_level" validate:"required"`
	Questions     map[string]map[string][]string `yaml:"questions" validate:"required"`

	compiled *matchers
}

type matchers struct {
	stopWords        map[string]struct{}
	terms            []string
	structure        *regexp.Regexp
	example          *regexp.Regexp
	confidenceStruct *regexp.Regexp
	fillers          *regexp.Regexp
	confidentPhrases *regexp.Regexp
	topics           []compiledTopic
	contentBands     []Band
	confidenceBands  []Band
}

type compiledTopic struct {
	label string
	re    *regexp.Regexp
}

var defaultTables = sync.OnceValues(func() (*Tables, error) {
	return parseTables(defaultTablesYAML, nil)
})

// DefaultTables returns the built-in tables. The result is shared and must
// not be modified.
func DefaultTables() *Tables {
	t, err := defaultTables()
	if err != nil {
		panic(fmt.Sprintf("scoring: embedded tables are invalid: %v", err))
	}
	return t
}

// ParseTables decodes YAML tables, fills sections absent from data with the
// built-in defaults, validates and compiles the result.
func ParseTables(data []byte) (*Tables, error) {
	return parseTables(data, DefaultTables())
}

func parseTables(data []byte, base *Tables) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse scoring tables: %w", err)
	}
	if base != nil {
		t.fillFrom(base)
	}
	if err := t.compile(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTables reads tables from a YAML file.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scoring tables %s: %w", path, err)
	}
	return ParseTables(data)
}

// fillFrom copies every section left empty in t from def.
func (t *Tables) fillFrom(def *Tables) {
	if t.StopWords == nil {
		t.StopWords = def.StopWords
	}
	if t.TechnicalTerms == nil {
		t.TechnicalTerms = def.TechnicalTerms
	}
	if t.StructureMarkers == nil {
		t.StructureMarkers = def.StructureMarkers
	}
	if t.ExampleMarkers == nil {
		t.ExampleMarkers = def.ExampleMarkers
	}
	if t.ConfidenceStructureMarkers == nil {
		t.ConfidenceStructureMarkers = def.ConfidenceStructureMarkers
	}
	if t.FillerWords == nil {
		t.FillerWords = def.FillerWords
	}
	if t.ConfidentPhrases == nil {
		t.ConfidentPhrases = def.ConfidentPhrases
	}
	if t.ContentBands == nil {
		t.ContentBands = def.ContentBands
	}
	if t.ConfidenceBands == nil {
		t.ConfidenceBands = def.ConfidenceBands
	}
	if t.DefaultTopic == "" {
		t.DefaultTopic = def.DefaultTopic
	}
	if t.Topics == nil {
		t.Topics = def.Topics
	}
	if t.Samples == nil {
		t.Samples = def.Samples
	}
	if t.DefaultSample == "" {
		t.DefaultSample = def.DefaultSample
	}
	if t.FallbackRole == "" {
		t.FallbackRole = def.FallbackRole
	}
	if t.FallbackLevel == "" {
		t.FallbackLevel = def.FallbackLevel
	}
	if t.Questions == nil {
		t.Questions = def.Questions
	}
}

func (t *Tables) compile() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("invalid scoring tables: %w", err)
	}
	if _, ok := t.Questions[t.FallbackRole][t.FallbackLevel]; !ok {
		return fmt.Errorf("invalid scoring tables: fallback questions %s/%s missing: %w",
			t.FallbackRole, t.FallbackLevel, domain.ErrInvalidConfiguration)
	}

	m := &matchers{
		stopWords:        make(map[string]struct{}, len(t.StopWords)),
		structure:        substringPattern(t.StructureMarkers),
		example:          substringPattern(t.ExampleMarkers),
		confidenceStruct: substringPattern(t.ConfidenceStructureMarkers),
		fillers:          wordPattern(t.FillerWords),
		confidentPhrases: wordPattern(t.ConfidentPhrases),
		contentBands:     sortedBands(t.ContentBands),
		confidenceBands:  sortedBands(t.ConfidenceBands),
	}
	for _, w := range t.StopWords {
		m.stopWords[strings.ToLower(w)] = struct{}{}
	}
	for _, term := range t.TechnicalTerms {
		m.terms = append(m.terms, strings.ToLower(term))
	}
	for _, rule := range t.Topics {
		m.topics = append(m.topics, compiledTopic{label: rule.Label, re: prefixPattern(rule.Keywords)})
	}
	t.compiled = m
	return nil
}

func sortedBands(in []Band) []Band {
	out := append([]Band(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Min > out[j].Min })
	return out
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(w))
	}
	return strings.Join(quoted, "|")
}

// substringPattern matches any of words anywhere, case-insensitively.
func substringPattern(words []string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:` + alternation(words) + `)`)
}

// wordPattern matches any of words as whole words.
func wordPattern(words []string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + alternation(words) + `)\b`)
}

// prefixPattern matches any of words starting at a word boundary, so
// "database" also matches "databases" but "hr" does not match "three".
func prefixPattern(words []string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + alternation(words) + `)`)
}

func bandText(bands []Band, score int) string {
	for _, b := range bands {
		if score >= b.Min {
			return b.Text
		}
	}
	if len(bands) == 0 {
		return ""
	}
	return bands[len(bands)-1].Text
}
