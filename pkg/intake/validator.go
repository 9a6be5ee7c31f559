// Package intake holds the clinical checks and archiving applied to case
// forms submitted through the HTTP API.
package intake

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pregnancy-risk/platform/pkg/common/validation"
	"github.com/pregnancy-risk/platform/pkg/features"
)

const (
	MinMaternalAge = 15
	MaxMaternalAge = 49
)

// Validator applies the clinical plausibility rules of the intake forms.
// It runs before the feature pipeline and only on the HTTP path.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Validate(variant string, input features.RawInput) error {
	var problems []string
	switch variant {
	case features.VariantEctopic:
		problems = validateEctopic(input)
	case features.VariantMolar:
		problems = validateMolar(input)
	default:
		problems = []string{fmt.Sprintf("unknown variant %q", variant)}
	}
	if len(problems) > 0 {
		return validation.Error{Problems: problems}
	}
	return nil
}

func validateEctopic(input features.RawInput) []string {
	raw, ok := lookup(input, "age")
	if !ok || isBlank(raw) {
		return []string{"Essential field missing: age. At minimum, patient age is required."}
	}
	return nil
}

func validateMolar(input features.RawInput) []string {
	var problems []string

	age, ok := integer(input, "age")
	if !ok || age < MinMaternalAge || age > MaxMaternalAge {
		problems = append(problems, fmt.Sprintf("Age must be between %d and %d years.", MinMaternalAge, MaxMaternalAge))
	}

	gravida, hasGravida := integer(input, "gravida")
	parity, hasParity := integer(input, "parity")
	abortions, hasAbortions := integer(input, "abortions")

	if (hasGravida && gravida < 0) || (hasParity && parity < 0) || (hasAbortions && abortions < 0) {
		problems = append(problems, "Gravida, parity, and abortions must be non-negative.")
	}
	if hasGravida && hasParity && parity > gravida {
		problems = append(problems, "Parity cannot exceed gravida.")
	}
	if hasGravida && hasAbortions && abortions > gravida {
		problems = append(problems, "Abortions cannot exceed gravida.")
	}
	if hasGravida && hasParity && hasAbortions && parity+abortions > gravida {
		problems = append(problems, "Parity + abortions cannot exceed gravida.")
	}
	return problems
}

// lookup matches key ignoring case. The exact spelling wins, then the
// smallest matching key.
func lookup(input features.RawInput, key string) (interface{}, bool) {
	if v, ok := input[key]; ok {
		return v, true
	}
	var matches []string
	for k := range input {
		if strings.EqualFold(k, key) {
			matches = append(matches, k)
		}
	}
	if len(matches) == 0 {
		return nil, false
	}
	sort.Strings(matches)
	return input[matches[0]], true
}

func isBlank(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case bool:
		return !val
	}
	return false
}

// integer reads a whole number the way form fields are parsed: numbers are
// truncated and numeric strings accepted.
func integer(input features.RawInput, key string) (int, bool) {
	raw, ok := lookup(input, key)
	if !ok {
		return 0, false
	}
	if n, ok := validation.Number(raw); ok {
		return int(math.Trunc(n)), true
	}
	s, ok := raw.(string)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Trunc(f)), true
}
