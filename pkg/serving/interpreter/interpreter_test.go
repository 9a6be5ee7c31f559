package interpreter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pregnancy-risk/platform/pkg/common/models"
)

func TestLevelBoundaries(t *testing.T) {
	tests := []struct {
		name string
		p    float64
		want models.RiskLevel
	}{
		{"zero is Low", 0, models.RiskLow},
		{"0.3999 is Low", 0.3999, models.RiskLow},
		{"0.4 is Moderate", 0.4, models.RiskModerate},
		{"0.55 is Moderate", 0.55, models.RiskModerate},
		{"0.6999 is Moderate", 0.6999, models.RiskModerate},
		{"0.7 is High", 0.7, models.RiskHigh},
		{"one is High", 1, models.RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Level(tt.p))
		})
	}
}

func TestFormatPercentage(t *testing.T) {
	assert.Equal(t, "73.2%", FormatPercentage(0.732))
	assert.Equal(t, "0.0%", FormatPercentage(0))
	assert.Equal(t, "100.0%", FormatPercentage(1))
	assert.Equal(t, "40.0%", FormatPercentage(0.4))
}

func TestInterpretEctopic(t *testing.T) {
	i, err := ForVariant("ectopic")
	require.NoError(t, err)

	res := i.Interpret(0.732)
	assert.Equal(t, models.RiskHigh, res.RiskLevel)
	assert.Equal(t, "73.2%", res.Percentage)
	assert.Equal(t, 0.732, res.Probability)
	assert.Equal(t, EctopicRecommendations.High, res.Recommendations)

	assert.Equal(t, EctopicRecommendations.Moderate, i.Interpret(0.4).Recommendations)
	assert.Equal(t, EctopicRecommendations.Low, i.Interpret(0.1).Recommendations)
}

func TestInterpretMolarUsesOwnWording(t *testing.T) {
	i, err := ForVariant("molar")
	require.NoError(t, err)

	res := i.Interpret(0.9)
	assert.Equal(t, MolarRecommendations.High, res.Recommendations)
	assert.NotEqual(t, EctopicRecommendations.High, res.Recommendations)
}

func TestInterpretReturnsCopies(t *testing.T) {
	i := New(EctopicRecommendations)
	res := i.Interpret(0.95)
	res.Recommendations[0] = "changed"
	assert.Equal(t, "Immediate gynecological consultation required", i.Interpret(0.95).Recommendations[0])
}

func TestInterpretClampsProbability(t *testing.T) {
	i := New(EctopicRecommendations)
	assert.Equal(t, 1.0, i.Interpret(1.2).Probability)
	assert.Equal(t, 0.0, i.Interpret(-0.1).Probability)
	assert.Equal(t, models.RiskLow, i.Interpret(math.NaN()).RiskLevel)
}

func TestForVariantUnknown(t *testing.T) {
	_, err := ForVariant("antenatal")
	assert.Error(t, err)
}
