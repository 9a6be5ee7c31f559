package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEctopicSchemaColumns(t *testing.T) {
	s := EctopicSchema()
	require.Equal(t, 19, s.Len())
	cols := s.Columns()
	assert.Equal(t, "PatientID", cols[0])
	assert.Equal(t, "Age", cols[1])
	assert.Equal(t, "LastMenstrualPeriodDays", cols[11])
	assert.Equal(t, "FreeFluidInPouchOfDouglas", cols[18])
}

func TestMolarSchemaColumns(t *testing.T) {
	s := MolarSchema()
	require.Equal(t, 35, s.Len())
	cols := s.Columns()
	assert.Equal(t, []string{"age_group_<20", "age_group_20-35", "age_group_>35"}, cols[2:5])
	assert.Equal(t, "bloodGroup_A+", cols[16])
	assert.Equal(t, "bloodGroup_O-", cols[23])
	assert.Equal(t, "rhStatus", cols[24])
	assert.Equal(t, "thyroidFunction_unknown", cols[28])
	assert.Equal(t, "smokingAlcohol", cols[34])
}

func TestSchemaColumnsAreCopies(t *testing.T) {
	s := EctopicSchema()
	cols := s.Columns()
	cols[0] = "mutated"
	assert.Equal(t, "PatientID", s.Columns()[0])
}

func TestNewSchemaRejectsDuplicates(t *testing.T) {
	_, err := NewSchema("x", NumericField("Age", 1), BooleanField("age"))
	assert.Error(t, err)

	_, err = NewSchema("x", CategoricalField("group", "g", "a"), NumericField("g_a", 0))
	assert.Error(t, err)
}

func TestNewSchemaRejectsEmptyCategorical(t *testing.T) {
	_, err := NewSchema("x", CategoricalField("group", "g"))
	assert.Error(t, err)
}

func TestSchemaFieldLookupIgnoresCase(t *testing.T) {
	f, ok := MolarSchema().Field("BLOODGROUP")
	require.True(t, ok)
	assert.Equal(t, Categorical, f.Kind)

	_, ok = MolarSchema().Field("unknown")
	assert.False(t, ok)
}

func TestSchemaFor(t *testing.T) {
	s, err := SchemaFor("molar")
	require.NoError(t, err)
	assert.Equal(t, VariantMolar, s.Variant())

	_, err = SchemaFor("antenatal")
	assert.Error(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "numeric", Numeric.String())
	assert.Equal(t, "boolean", Boolean.String())
	assert.Equal(t, "categorical", Categorical.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
