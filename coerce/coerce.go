// Package coerce turns untrusted argument values into safe numbers.
//
// Every pagination argument that reaches the cache policy engine passes
// through one of these functions first. They never panic and always return
// a usable value.
package coerce

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToNonNegativeIntOrFallback returns value as an int if and only if it is an
// integer greater than or equal to zero. Anything else yields fallback unchanged.
func ToNonNegativeIntOrFallback(value any, fallback int) int {
	n, ok := toFloat(value)
	if !ok || n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return fallback
	}
	return int(n)
}

// ToNumberOrFallback returns the numeric conversion of value when it is
// finite, fallback otherwise.
func ToNumberOrFallback(value any, fallback float64) float64 {
	n, ok := toFloat(value)
	if !ok {
		return fallback
	}
	return n
}

// toFloat reports false for NaN and infinities as well as for non-numeric input.
func toFloat(value any) (float64, bool) {
	var n float64
	switch v := value.(type) {
	case int:
		n = float64(v)
	case int8:
		n = float64(v)
	case int16:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint:
		n = float64(v)
	case uint8:
		n = float64(v)
	case uint16:
		n = float64(v)
	case uint32:
		n = float64(v)
	case uint64:
		n = float64(v)
	case float32:
		n = float64(v)
	case float64:
		n = v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
