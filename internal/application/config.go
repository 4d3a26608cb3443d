package application

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/interview-gavel/infrastructure/judge"
	"github.com/ahrav/interview-gavel/infrastructure/units"
	"github.com/ahrav/interview-gavel/internal/domain"
	"github.com/ahrav/interview-gavel/internal/scoring"
)

// ScoringConfig is the optional YAML file that tunes how answers are
// scored. Every section is optional; omitted values keep their defaults.
//
//	version: "1.0.0"
//	aggregation:
//	  content_weight: 0.7
//	  confidence_weight: 0.3
//	judge:
//	  temperature: 0.2
//	tables:
//	  default_topic: General
type ScoringConfig struct {
	// Version is the schema version of the file.
	Version string `yaml:"version" validate:"omitempty,semver"`

	// Aggregation sets the content/confidence split and the duplicate
	// threshold for strengths and improvements.
	Aggregation units.ResponseAggregateConfig `yaml:"aggregation"`

	// Judge holds the prompts and request parameters of the remote judge.
	Judge judge.RemoteConfig `yaml:"judge"`

	// Sample holds the prompts and request parameters of the remote
	// sample-answer call.
	Sample judge.SampleConfig `yaml:"sample"`

	// Concurrency bounds how many signal units run at once for one answer.
	// Zero runs every signal unit at once.
	Concurrency int `yaml:"concurrency" validate:"min=0,max=64"`

	// Tables overrides sections of the built-in scoring word lists. Any
	// section left out keeps its built-in value.
	Tables yaml.Node `yaml:"tables" validate:"-"`

	tables *scoring.Tables
}

// DefaultScoringConfig returns the configuration used when no file is given.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Version:     "1.0.0",
		Aggregation: units.DefaultResponseAggregateConfig(),
		Judge:       judge.DefaultRemoteConfig(),
		Sample:      judge.DefaultSampleConfig(),
		tables:      scoring.DefaultTables(),
	}
}

// ScoringTables returns the compiled tables, falling back to the built-in
// ones when none were loaded.
func (c ScoringConfig) ScoringTables() *scoring.Tables {
	if c.tables == nil {
		return scoring.DefaultTables()
	}
	return c.tables
}

// LoadScoringConfig reads a scoring file. An empty path yields the defaults.
func LoadScoringConfig(path string) (ScoringConfig, error) {
	if path == "" {
		return DefaultScoringConfig(), nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return ScoringConfig{}, fmt.Errorf("failed to read scoring config: %w", err)
	}
	return ParseScoringConfig(data)
}

// LoadScoringConfigFromReader reads a scoring file from r.
func LoadScoringConfigFromReader(r io.Reader) (ScoringConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ScoringConfig{}, fmt.Errorf("failed to read scoring config: %w", err)
	}
	return ParseScoringConfig(data)
}

// ParseScoringConfig decodes data over the defaults, rejects unknown
// fields, validates the result and compiles the table overrides.
func ParseScoringConfig(data []byte) (ScoringConfig, error) {
	cfg := DefaultScoringConfig()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return ScoringConfig{}, fmt.Errorf("failed to parse scoring config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return ScoringConfig{}, err
	}

	if !cfg.Tables.IsZero() {
		raw, err := yaml.Marshal(&cfg.Tables)
		if err != nil {
			return ScoringConfig{}, fmt.Errorf("failed to re-encode scoring tables: %w", err)
		}
		tables, err := scoring.ParseTables(raw)
		if err != nil {
			return ScoringConfig{}, err
		}
		cfg.tables = tables
	}
	return cfg, nil
}

// Validate checks field constraints and the cross-field rules registered in
// newConfigValidator. Failures are reported as one *domain.ValidationError.
func (c ScoringConfig) Validate() error {
	v, err := newConfigValidator()
	if err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("scoring config: %w", err)
		}
		ve := domain.NewValidationError("scoring config")
		for _, fe := range verrs {
			ve.AddError(fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
		return ve
	}
	return nil
}
