package llm

// optionValue extracts a typed value from an options map. It returns def
// when the key is missing, holds a different type, or fails valid.
func optionValue[T any](opts map[string]any, key string, def T, valid func(T) bool) T {
	raw, ok := opts[key]
	if !ok {
		return def
	}
	v, ok := raw.(T)
	if !ok {
		return def
	}
	if valid != nil && !valid(v) {
		return def
	}
	return v
}

// optionFloat extracts a float option, accepting any numeric type since
// callers commonly pass untyped constants such as 0 or 1.
func optionFloat(opts map[string]any, key string, valid func(float64) bool) (float64, bool) {
	raw, ok := opts[key]
	if !ok {
		return 0, false
	}
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	default:
		return 0, false
	}
	if valid != nil && !valid(v) {
		return 0, false
	}
	return v, true
}
