package application

import (
	"fmt"
	"text/template"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/interview-gavel/infrastructure/judge"
	"github.com/ahrav/interview-gavel/infrastructure/units"
	"github.com/ahrav/interview-gavel/internal/domain"
)

// newConfigValidator returns a validator with the custom rules the scoring
// file needs on top of the struct tags.
func newConfigValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := RegisterConfigValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	return v, nil
}

// RegisterConfigValidators adds the struct-level checks for aggregation
// weights and prompt templates.
func RegisterConfigValidators(v *validator.Validate) error {
	if v == nil {
		return fmt.Errorf("nil validator")
	}
	v.RegisterStructValidation(validateAggregateWeights, units.ResponseAggregateConfig{})
	v.RegisterStructValidation(validateJudgePrompts, judge.RemoteConfig{})
	v.RegisterStructValidation(validateSamplePrompts, judge.SampleConfig{})
	return nil
}

func parsesAsTemplate(text string) bool {
	_, err := template.New("prompt").Option("missingkey=error").Parse(text)
	return err == nil
}

// validateAggregateWeights requires the content and confidence weights to
// sum to one.
func validateAggregateWeights(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(units.ResponseAggregateConfig)
	if !domain.ValidWeights(cfg.ContentWeight, cfg.ConfidenceWeight) {
		sl.ReportError(cfg.ConfidenceWeight, "ConfidenceWeight", "confidence_weight", "weightsum", "")
	}
}

func validateJudgePrompts(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(judge.RemoteConfig)
	if !parsesAsTemplate(cfg.SystemPrompt) {
		sl.ReportError(cfg.SystemPrompt, "SystemPrompt", "system_prompt", "gotemplate", "")
	}
	if !parsesAsTemplate(cfg.UserPrompt) {
		sl.ReportError(cfg.UserPrompt, "UserPrompt", "user_prompt", "gotemplate", "")
	}
}

func validateSamplePrompts(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(judge.SampleConfig)
	if !parsesAsTemplate(cfg.UserPrompt) {
		sl.ReportError(cfg.UserPrompt, "UserPrompt", "user_prompt", "gotemplate", "")
	}
}
