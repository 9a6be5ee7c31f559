package validation

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
)

// Error collects every problem found in a payload so callers can report
// them together.
type Error struct {
	Problems []string
}

func (e Error) Error() string {
	if len(e.Problems) == 0 {
		return "validation failed"
	}
	return strings.Join(e.Problems, "; ")
}

func IsValidationError(err error) bool {
	var ve Error
	return errors.As(err, &ve)
}

// Problems returns the individual messages of a validation error.
func Problems(err error) []string {
	var ve Error
	if errors.As(err, &ve) {
		return append([]string(nil), ve.Problems...)
	}
	return nil
}

// Number extracts a finite JSON number. Strings and booleans are rejected.
func Number(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
