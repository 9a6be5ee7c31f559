package features

import "fmt"

const (
	VariantEctopic = "ectopic"
	VariantMolar   = "molar"
)

const (
	defaultAge        = 25
	defaultCycleDays  = 28
	defaultPatientID  = 0
	defaultCountValue = 0
)

var (
	BloodGroups     = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
	ThyroidStates   = []string{"normal", "hyperthyroid", "hypothyroid", "unknown"}
	MolarAgeBuckets = []string{"<20", "20-35", ">35"}
)

var ectopicSchema = MustSchema(VariantEctopic,
	NumericField("PatientID", defaultPatientID),
	NumericField("Age", defaultAge),
	NumericField("Gravidity", defaultCountValue),
	NumericField("Parity", defaultCountValue),
	NumericField("Abortions", defaultCountValue),
	BooleanField("EctopicPregnancyHistory"),
	BooleanField("PelvicInflammatoryDisease"),
	BooleanField("TubalSurgeryHistory"),
	BooleanField("InfertilityTreatment"),
	BooleanField("SmokingStatus"),
	BooleanField("ContraceptiveUse"),
	NumericField("LastMenstrualPeriodDays", defaultCycleDays),
	BooleanField("VaginalBleeding"),
	BooleanField("AbdominalPain"),
	NumericField("SerumHCGLevel", 0),
	NumericField("ProgesteroneLevel", 0),
	NumericField("UterineSizeByUltrasound", 0),
	BooleanField("AdnexalMass"),
	BooleanField("FreeFluidInPouchOfDouglas"),
)

var molarSchema = MustSchema(VariantMolar,
	NumericField("PatientID", defaultPatientID),
	NumericField("age", defaultAge),
	CategoricalField("ageGroup", "age_group", MolarAgeBuckets...),
	NumericField("gravida", defaultCountValue),
	NumericField("parity", defaultCountValue),
	BooleanField("historyOfMolarPregnancy"),
	BooleanField("historyOfMiscarriages"),
	NumericField("numberOfMiscarriages", defaultCountValue),
	BooleanField("vaginalBleeding"),
	BooleanField("excessiveNausea"),
	BooleanField("pelvicPain"),
	BooleanField("passageOfVesicles"),
	BooleanField("uterineSizeLarger"),
	NumericField("quantitativeHCG", 0),
	CategoricalField("bloodGroup", "bloodGroup", BloodGroups...),
	BooleanField("rhStatus", "positive"),
	CategoricalField("thyroidFunction", "thyroidFunction", ThyroidStates...),
	BooleanField("gestationalSacPresent"),
	BooleanField("fetalHeartbeat"),
	BooleanField("snowstormAppearance"),
	BooleanField("ovarianCysts"),
	BooleanField("assistedReproduction"),
	BooleanField("smokingAlcohol"),
)

func EctopicSchema() *Schema { return ectopicSchema }

func MolarSchema() *Schema { return molarSchema }

// Variants lists the supported predictor variants in a stable order.
func Variants() []string {
	return []string{VariantEctopic, VariantMolar}
}

func SchemaFor(variant string) (*Schema, error) {
	switch variant {
	case VariantEctopic:
		return ectopicSchema, nil
	case VariantMolar:
		return molarSchema, nil
	default:
		return nil, fmt.Errorf("unknown variant %q", variant)
	}
}
