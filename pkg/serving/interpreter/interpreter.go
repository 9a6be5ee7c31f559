// Package interpreter maps a classifier probability onto a clinical risk
// tier and its recommendation list.
package interpreter

import (
	"fmt"
	"math"

	"github.com/pregnancy-risk/platform/pkg/common/models"
	"github.com/pregnancy-risk/platform/pkg/features"
)

const (
	HighThreshold     = 0.7
	ModerateThreshold = 0.4
)

type Recommendations struct {
	High     []string
	Moderate []string
	Low      []string
}

type Interpreter struct {
	recs Recommendations
}

func New(recs Recommendations) *Interpreter {
	return &Interpreter{recs: recs}
}

// ForVariant returns the interpreter carrying the variant's recommendation text.
func ForVariant(variant string) (*Interpreter, error) {
	switch variant {
	case features.VariantEctopic:
		return New(EctopicRecommendations), nil
	case features.VariantMolar:
		return New(MolarRecommendations), nil
	default:
		return nil, fmt.Errorf("no recommendations for variant %q", variant)
	}
}

// Level classifies p; boundary values belong to the higher tier.
func Level(p float64) models.RiskLevel {
	switch {
	case p >= HighThreshold:
		return models.RiskHigh
	case p >= ModerateThreshold:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

func FormatPercentage(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

func (i *Interpreter) Interpret(p float64) models.RiskResult {
	p = clamp(p)
	level := Level(p)

	var recs []string
	switch level {
	case models.RiskHigh:
		recs = i.recs.High
	case models.RiskModerate:
		recs = i.recs.Moderate
	default:
		recs = i.recs.Low
	}

	return models.RiskResult{
		RiskLevel:       level,
		Percentage:      FormatPercentage(p),
		Probability:     p,
		Recommendations: append([]string{}, recs...),
	}
}

func clamp(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
