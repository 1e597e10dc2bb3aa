package device

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Int reads an integer parameter. JSON numbers and numeric strings are
// accepted as long as they hold a whole number.
func (p Params) Int(key string) (int, error) {
	v, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrInvalidParam, key)
	}
	n, ok := toInt(v)
	if !ok {
		return 0, fmt.Errorf("%w: %q must be a whole number, got %v", ErrInvalidParam, key, v)
	}
	return n, nil
}

// Text reads a string parameter.
func (p Params) Text(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidParam, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string, got %T", ErrInvalidParam, key, v)
	}
	return s, nil
}

// Bool reads a boolean parameter. The strings accepted by
// strconv.ParseBool are also allowed.
func (p Params) Bool(key string) (bool, error) {
	v, ok := p[key]
	if !ok {
		return false, fmt.Errorf("%w: missing %q", ErrInvalidParam, key)
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err == nil {
			return parsed, nil
		}
	}
	return false, fmt.Errorf("%w: %q must be a boolean, got %v", ErrInvalidParam, key, v)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}

// finite reports whether v, and every number nested in it, can be
// written as JSON: NaN and ±Inf cannot.
func finite(v any) bool {
	switch val := v.(type) {
	case float64:
		return !math.IsNaN(val) && !math.IsInf(val, 0)
	case float32:
		return finite(float64(val))
	case map[string]any:
		for _, e := range val {
			if !finite(e) {
				return false
			}
		}
	case []any:
		for _, e := range val {
			if !finite(e) {
				return false
			}
		}
	}
	return true
}

// NormalizeAttributes returns a copy of attrs in which whole float64
// values (what encoding/json produces for every number) become int, so a
// device restored from JSON compares equal to the one that was saved.
// Nested maps and slices are normalized too.
func NormalizeAttributes(attrs map[string]any) Attributes {
	out := make(Attributes, len(attrs))
	for k, v := range attrs {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case float64:
		if val == math.Trunc(val) && math.Abs(val) <= math.MaxInt32 {
			return int(val)
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalizeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}
