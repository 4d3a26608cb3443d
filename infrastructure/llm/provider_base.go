package llm

import "sync"

// BaseProvider holds the model name shared by provider implementations.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the current model name.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the provider-neutral view of a request's options map.
type RequestOptions struct {
	MaxTokens   int
	Model       string
	Temperature *float64
	TopP        *float64
	System      string
}

// ParseRequestOptions reads the common keys "max_tokens", "model",
// "system", "temperature" and "top_p". Invalid values fall back to
// defaults.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: optionValue(opts, "max_tokens", DefaultMaxTokens, isPositive),
		Model:     optionValue(opts, "model", defaultModel, isNonEmpty),
		System:    optionValue(opts, "system", "", nil),
	}
	if temp, ok := optionFloat(opts, "temperature", isValidTemperature); ok {
		options.Temperature = &temp
	}
	if topP, ok := optionFloat(opts, "top_p", isValidTopP); ok {
		options.TopP = &topP
	}
	return options
}

// tokenCount prefers the provider-reported count and falls back to the
// character estimate.
func tokenCount(reported int, text string) int {
	if reported > 0 {
		return reported
	}
	return SimpleTokenEstimator{}.EstimateTokens(text)
}
