// Package typeutil provides safe type assertion and coercion helpers for
// metadata values of erased type. Middleware reads and writes message
// metadata as map[string]any; these helpers follow the comma-ok idiom so a
// malformed value never panics a pipeline.
package typeutil

import (
	"strconv"
	"time"
)

// AsString safely asserts value to string.
// Returns the string and true if successful, or empty string and false if not.
func AsString(value any) (string, bool) {
	if value == nil {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

// AsStringDefault safely asserts value to string with a default fallback.
func AsStringDefault(value any, defaultVal string) string {
	if s, ok := AsString(value); ok {
		return s
	}
	return defaultVal
}

// AsBool safely asserts value to bool.
func AsBool(value any) (bool, bool) {
	if value == nil {
		return false, false
	}
	b, ok := value.(bool)
	return b, ok
}

// AsBoolDefault safely asserts value to bool with a default fallback.
func AsBoolDefault(value any, defaultVal bool) bool {
	if b, ok := AsBool(value); ok {
		return b
	}
	return defaultVal
}

// CoerceInt coerces value to int, accepting the numeric types that appear in
// metadata after JSON round-trips plus decimal strings. Workflow stage
// indexes arrive as int, float64, or string depending on the producer; all
// three are valid at ingress.
func CoerceInt(value any) (int, bool) {
	if value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float32:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return int(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// CoerceIntDefault coerces value to int with a default fallback.
func CoerceIntDefault(value any, defaultVal int) int {
	if n, ok := CoerceInt(value); ok {
		return n
	}
	return defaultVal
}

// AsFloat64 safely coerces value to float64. Also handles int types.
func AsFloat64(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// AsTime safely asserts value to time.Time.
func AsTime(value any) (time.Time, bool) {
	if value == nil {
		return time.Time{}, false
	}
	t, ok := value.(time.Time)
	return t, ok
}
