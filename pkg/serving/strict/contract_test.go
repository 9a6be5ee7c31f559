package strict

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pregnancy-risk/platform/pkg/common/validation"
	"github.com/pregnancy-risk/platform/pkg/features"
)

func ectopicPayload() map[string]interface{} {
	return map[string]interface{}{
		"age": 31.0, "gravidity": 2.0, "parity": 1.0, "abortions": 0.0,
		"historyOfEctopicPregnancy": 1.0, "pelvicInflammatoryDisease": 0.0,
		"tubalSurgeryHistory": 0.0, "infertilityTreatment": 0.0, "smokingStatus": 1.0,
		"contraceptiveUse": 0.0, "lastMenstrualPeriodDays": 42.0, "vaginalBleeding": 1.0,
		"abdominalPain": 1.0, "serumHCGLevel": 1800.0, "progesteroneLevel": 4.2,
		"uterineSizeByUltrasound": 6.0, "adnexalMass": json.Number("1"),
		"freeFluidInPouchOfDouglas": true,
	}
}

func molarPayload() map[string]interface{} {
	return map[string]interface{}{
		"age": 24.0, "gravida": 1.0, "parity": 0.0, "historyOfMolarPregnancy": 0.0,
		"historyOfMiscarriages": 0.0, "numberOfMiscarriages": 0.0, "vaginalBleeding": 1.0,
		"excessiveNausea": 1.0, "pelvicPain": 0.0, "passageOfVesicles": 1.0,
		"uterineSizeLarger": 1.0, "quantitativeHCG": 250000.0, "bloodGroup": "O+",
		"rhStatus": 1.0, "thyroidFunction": 1.0, "gestationalSacPresent": 0.0,
		"fetalHeartbeat": 0.0, "snowstormAppearance": 1.0, "ovarianCysts": 1.0,
		"assistedReproduction": 0.0, "smokingAlcohol": 0.0,
	}
}

func TestContractFieldCounts(t *testing.T) {
	e, err := ForVariant("ectopic")
	require.NoError(t, err)
	assert.Len(t, e.Keys(), 18)

	m, err := ForVariant("molar")
	require.NoError(t, err)
	assert.Len(t, m.Keys(), 21)

	_, err = ForVariant("other")
	assert.Error(t, err)
}

func TestValidateEctopicRewritesKeys(t *testing.T) {
	c, err := ForVariant("ectopic")
	require.NoError(t, err)

	input, err := c.Validate(ectopicPayload())
	require.NoError(t, err)
	assert.Equal(t, 1.0, input["EctopicPregnancyHistory"])
	assert.Equal(t, 1.0, input["AdnexalMass"])
	assert.Equal(t, 1.0, input["FreeFluidInPouchOfDouglas"])
	assert.Equal(t, 31.0, input["Age"])
	assert.NotContains(t, input, "historyOfEctopicPregnancy")

	vec, diags, err := features.Build(features.EctopicSchema(), input)
	require.NoError(t, err)
	assert.Equal(t, []string{"PatientID"}, diags.Fields())
	v, _ := vec.Value("EctopicPregnancyHistory")
	assert.Equal(t, 1.0, v)
}

func TestValidateMolarCategoricalIndex(t *testing.T) {
	c, err := ForVariant("molar")
	require.NoError(t, err)

	input, err := c.Validate(molarPayload())
	require.NoError(t, err)
	assert.Equal(t, "O+", input["bloodGroup"])
	assert.Equal(t, "hyperthyroid", input["thyroidFunction"])
}

func TestValidateCollectsProblems(t *testing.T) {
	c, err := ForVariant("ectopic")
	require.NoError(t, err)

	payload := ectopicPayload()
	delete(payload, "age")
	payload["vaginalBleeding"] = 2.0
	payload["serumHCGLevel"] = "high"
	payload["abdominalPain"] = "yes"

	_, err = c.Validate(payload)
	require.Error(t, err)
	assert.True(t, validation.IsValidationError(err))
	assert.ElementsMatch(t, []string{
		"age: field required",
		"vaginalBleeding: must be 0 or 1",
		"abdominalPain: must be 0 or 1",
		"serumHCGLevel: must be a number",
	}, validation.Problems(err))
}

func TestValidateRejectsBadCategories(t *testing.T) {
	c, err := ForVariant("molar")
	require.NoError(t, err)

	for _, bad := range []interface{}{"o+", 8.0, 1.5, -1.0} {
		payload := molarPayload()
		payload["bloodGroup"] = bad
		_, err := c.Validate(payload)
		assert.Error(t, err, "%v", bad)
	}
}
