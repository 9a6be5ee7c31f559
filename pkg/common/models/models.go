package models

import (
	"time"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// RiskResult is the interpreted output of a prediction.
type RiskResult struct {
	RiskLevel       RiskLevel `json:"riskLevel"`
	Percentage      string    `json:"percentage"`
	Probability     float64   `json:"probability"`
	Recommendations []string  `json:"recommendations"`
}

// Outcome is either a RiskResult or an error object; it serializes to one
// flat JSON object in both cases.
type Outcome struct {
	*RiskResult
	Error string `json:"error,omitempty"`
}

func (o Outcome) Failed() bool {
	return o.RiskResult == nil
}

// StrictResponse is returned by the pre-validated classify path.
type StrictResponse struct {
	Prediction int      `json:"prediction"`
	Proba      *float64 `json:"proba"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type ModelInfo struct {
	Variant      string   `json:"variant"`
	Path         string   `json:"path"`
	Format       string   `json:"format"`
	Algorithm    string   `json:"algorithm,omitempty"`
	Columns      int      `json:"columns"`
	FeatureNames []string `json:"feature_names,omitempty"`
}

// Event is the envelope published on the message bus.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}
