package features

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	ReasonMissing         = "missing"
	ReasonNull            = "null value"
	ReasonEmpty           = "empty value"
	ReasonUnparseable     = "unparseable number"
	ReasonNotFinite       = "non-finite number"
	ReasonUnsupportedType = "unsupported type"
	ReasonUnknownCategory = "unknown category"
)

// CoercionResult is the encoding of one field. Values has one entry for
// numeric and boolean fields and one per category for categorical fields.
type CoercionResult struct {
	Values      []float64
	UsedDefault bool
	Reason      string
}

// Coerce encodes a raw value for field. It never fails: anything it cannot
// interpret resolves to the field default and is flagged with UsedDefault.
func Coerce(field Field, value interface{}, present bool) CoercionResult {
	switch field.Kind {
	case Boolean:
		return coerceBoolean(field, value, present)
	case Categorical:
		return coerceCategorical(field, value, present)
	default:
		return coerceNumeric(field, value, present)
	}
}

func fallback(field Field, reason string) CoercionResult {
	if field.Kind == Categorical {
		return CoercionResult{Values: make([]float64, len(field.Categories)), UsedDefault: true, Reason: reason}
	}
	return CoercionResult{Values: []float64{field.Default}, UsedDefault: true, Reason: reason}
}

func single(v float64) CoercionResult {
	return CoercionResult{Values: []float64{v}}
}

func coerceNumeric(field Field, value interface{}, present bool) CoercionResult {
	if !present {
		return fallback(field, ReasonMissing)
	}
	if value == nil {
		return fallback(field, ReasonNull)
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return fallback(field, ReasonEmpty)
	}
	f, err := toFloat(value)
	if err != nil {
		if _, ok := value.(string); ok {
			return fallback(field, ReasonUnparseable)
		}
		return fallback(field, ReasonUnsupportedType)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback(field, ReasonNotFinite)
	}
	return single(f)
}

func coerceBoolean(field Field, value interface{}, present bool) CoercionResult {
	if !present {
		return fallback(field, ReasonMissing)
	}
	switch v := value.(type) {
	case string:
		if field.isTruthy(v) {
			return single(1)
		}
		return single(0)
	case bool:
		if v {
			return single(1)
		}
		return single(0)
	case nil:
		return fallback(field, ReasonNull)
	}
	f, err := toFloat(value)
	if err != nil {
		return fallback(field, ReasonUnsupportedType)
	}
	if f > 0 {
		return single(1)
	}
	return single(0)
}

func coerceCategorical(field Field, value interface{}, present bool) CoercionResult {
	if !present {
		return fallback(field, ReasonMissing)
	}
	label, ok := value.(string)
	if !ok {
		if value == nil {
			return fallback(field, ReasonNull)
		}
		return fallback(field, ReasonUnsupportedType)
	}
	out := make([]float64, len(field.Categories))
	matched := false
	for i, c := range field.Categories {
		if c == label {
			out[i] = 1
			matched = true
			break
		}
	}
	if !matched {
		return CoercionResult{Values: out, UsedDefault: true, Reason: ReasonUnknownCategory}
	}
	return CoercionResult{Values: out}
}

func toFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}
