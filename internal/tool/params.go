package tool

import "fmt"

// Params is the parameter map of a job spec, with typed accessors. JSON
// decoding turns all numbers into float64, so the accessors normalize the
// numeric types an in-process caller might pass instead.
type Params map[string]any

// String returns the named string parameter.
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", fmt.Errorf("missing parameter %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string, got %T", key, v)
	}
	return s, nil
}

// StringOr returns the named string parameter, or fallback if absent.
func (p Params) StringOr(key, fallback string) (string, error) {
	if _, ok := p[key]; !ok {
		return fallback, nil
	}
	return p.String(key)
}

// Float returns the named numeric parameter.
func (p Params) Float(key string) (float64, error) {
	v, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("missing parameter %q", key)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("parameter %q must be a number, got %T", key, v)
	}
	return f, nil
}

// FloatOr returns the named numeric parameter, or fallback if absent.
func (p Params) FloatOr(key string, fallback float64) (float64, error) {
	if _, ok := p[key]; !ok {
		return fallback, nil
	}
	return p.Float(key)
}

// Int returns the named numeric parameter as an int.
func (p Params) Int(key string) (int, error) {
	f, err := p.Float(key)
	if err != nil {
		return 0, err
	}
	n := int(f)
	if float64(n) != f {
		return 0, fmt.Errorf("parameter %q must be an integer, got %v", key, f)
	}
	return n, nil
}

// IntOr returns the named numeric parameter as an int, or fallback if
// absent.
func (p Params) IntOr(key string, fallback int) (int, error) {
	if _, ok := p[key]; !ok {
		return fallback, nil
	}
	return p.Int(key)
}

// Has reports whether the parameter is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
