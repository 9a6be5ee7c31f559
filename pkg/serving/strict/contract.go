// Package strict validates fully typed prediction payloads before they are
// handed to the tolerant feature pipeline.
package strict

import (
	"fmt"
	"math"
	"strings"

	"github.com/pregnancy-risk/platform/pkg/common/validation"
	"github.com/pregnancy-risk/platform/pkg/features"
)

type rule struct {
	key   string
	field features.Field
}

// Contract is the fixed field set a strict payload must carry for one
// variant. Keys are matched exactly.
type Contract struct {
	variant string
	rules   []rule
}

var (
	ectopicKeys = map[string]string{
		"age":                       "Age",
		"gravidity":                 "Gravidity",
		"parity":                    "Parity",
		"abortions":                 "Abortions",
		"historyOfEctopicPregnancy": "EctopicPregnancyHistory",
		"pelvicInflammatoryDisease": "PelvicInflammatoryDisease",
		"tubalSurgeryHistory":       "TubalSurgeryHistory",
		"infertilityTreatment":      "InfertilityTreatment",
		"smokingStatus":             "SmokingStatus",
		"contraceptiveUse":          "ContraceptiveUse",
		"lastMenstrualPeriodDays":   "LastMenstrualPeriodDays",
		"vaginalBleeding":           "VaginalBleeding",
		"abdominalPain":             "AbdominalPain",
		"serumHCGLevel":             "SerumHCGLevel",
		"progesteroneLevel":         "ProgesteroneLevel",
		"uterineSizeByUltrasound":   "UterineSizeByUltrasound",
		"adnexalMass":               "AdnexalMass",
		"freeFluidInPouchOfDouglas": "FreeFluidInPouchOfDouglas",
	}
	ectopicOrder = []string{
		"age", "gravidity", "parity", "abortions", "historyOfEctopicPregnancy",
		"pelvicInflammatoryDisease", "tubalSurgeryHistory", "infertilityTreatment",
		"smokingStatus", "contraceptiveUse", "lastMenstrualPeriodDays", "vaginalBleeding",
		"abdominalPain", "serumHCGLevel", "progesteroneLevel", "uterineSizeByUltrasound",
		"adnexalMass", "freeFluidInPouchOfDouglas",
	}
	molarOrder = []string{
		"age", "gravida", "parity", "historyOfMolarPregnancy", "historyOfMiscarriages",
		"numberOfMiscarriages", "vaginalBleeding", "excessiveNausea", "pelvicPain",
		"passageOfVesicles", "uterineSizeLarger", "quantitativeHCG", "bloodGroup", "rhStatus",
		"thyroidFunction", "gestationalSacPresent", "fetalHeartbeat", "snowstormAppearance",
		"ovarianCysts", "assistedReproduction", "smokingAlcohol",
	}
)

func ForVariant(variant string) (*Contract, error) {
	switch variant {
	case features.VariantEctopic:
		return newContract(features.EctopicSchema(), ectopicOrder, ectopicKeys)
	case features.VariantMolar:
		return newContract(features.MolarSchema(), molarOrder, nil)
	default:
		return nil, fmt.Errorf("no strict contract for variant %q", variant)
	}
}

// newContract resolves each payload key to its schema field. Keys without
// an explicit alias share the schema field name.
func newContract(schema *features.Schema, keys []string, aliases map[string]string) (*Contract, error) {
	c := &Contract{variant: schema.Variant()}
	for _, key := range keys {
		target := key
		if alias, ok := aliases[key]; ok {
			target = alias
		}
		field, ok := schema.Field(target)
		if !ok {
			return nil, fmt.Errorf("strict key %s has no %s schema field", key, schema.Variant())
		}
		c.rules = append(c.rules, rule{key: key, field: field})
	}
	return c, nil
}

func (c *Contract) Variant() string { return c.variant }

// Keys lists the required payload keys in declaration order.
func (c *Contract) Keys() []string {
	out := make([]string, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.key
	}
	return out
}

// Validate checks payload against the contract and rewrites it onto schema
// field names. Numeric fields need finite numbers, boolean fields 0 or 1,
// categorical fields a declared label or its index.
func (c *Contract) Validate(payload map[string]interface{}) (features.RawInput, error) {
	var problems []string
	out := make(features.RawInput, len(c.rules))

	for _, r := range c.rules {
		raw, ok := payload[r.key]
		if !ok || raw == nil {
			problems = append(problems, fmt.Sprintf("%s: field required", r.key))
			continue
		}
		value, err := check(r.field, raw)
		if err != "" {
			problems = append(problems, fmt.Sprintf("%s: %s", r.key, err))
			continue
		}
		out[r.field.Name] = value
	}

	if len(problems) > 0 {
		return nil, validation.Error{Problems: problems}
	}
	return out, nil
}

func check(field features.Field, raw interface{}) (interface{}, string) {
	switch field.Kind {
	case features.Boolean:
		if b, ok := raw.(bool); ok {
			if b {
				return 1.0, ""
			}
			return 0.0, ""
		}
		n, ok := validation.Number(raw)
		if !ok || (n != 0 && n != 1) {
			return nil, "must be 0 or 1"
		}
		return n, ""
	case features.Categorical:
		if s, ok := raw.(string); ok {
			for _, c := range field.Categories {
				if c == s {
					return s, ""
				}
			}
			return nil, fmt.Sprintf("must be one of %s", strings.Join(field.Categories, ", "))
		}
		n, ok := validation.Number(raw)
		if !ok || n != math.Trunc(n) || n < 0 || int(n) >= len(field.Categories) {
			return nil, fmt.Sprintf("must be a category label or an index below %d", len(field.Categories))
		}
		return field.Categories[int(n)], ""
	default:
		n, ok := validation.Number(raw)
		if !ok {
			return nil, "must be a number"
		}
		return n, ""
	}
}
