package model

import (
	"fmt"

	"github.com/pregnancy-risk/platform/pkg/common/models"
	"github.com/pregnancy-risk/platform/pkg/ml/linear"
)

// Logistic is a loaded logistic regression classifier. It is immutable and
// safe to share between goroutines.
type Logistic struct {
	weights      linear.Weights
	featureNames []string
	threshold    float64
	algorithm    string
	path         string
	format       Format
}

func newLogistic(a Artifact, path string, format Format) *Logistic {
	threshold := a.Model.Threshold
	if threshold == 0 {
		threshold = defaultThreshold
	}
	return &Logistic{
		weights: linear.Weights{
			Bias:         a.Model.Weights.Bias,
			Coefficients: append([]float64(nil), a.Model.Weights.Coefficients...),
		},
		featureNames: append([]string(nil), a.Model.FeatureNames...),
		threshold:    threshold,
		algorithm:    a.Model.Algorithm,
		path:         path,
		format:       format,
	}
}

// NewLogistic wraps in-memory weights, mostly for tests and embedding.
func NewLogistic(weights linear.Weights, featureNames []string) (*Logistic, error) {
	if err := weights.Validate(len(featureNames)); err != nil {
		return nil, err
	}
	var a Artifact
	a.Model.Weights = weights
	a.Model.FeatureNames = featureNames
	return newLogistic(a, "", ""), nil
}

func (m *Logistic) PredictProbability(vector []float64) ([]float64, error) {
	if len(vector) != len(m.weights.Coefficients) {
		return nil, fmt.Errorf("model expects %d features, got %d", len(m.weights.Coefficients), len(vector))
	}
	p := linear.Predict(m.weights, vector)
	return []float64{1 - p, p}, nil
}

func (m *Logistic) Predict(vector []float64) (int, error) {
	proba, err := m.PredictProbability(vector)
	if err != nil {
		return 0, err
	}
	if proba[1] >= m.threshold {
		return 1, nil
	}
	return 0, nil
}

// FeatureNames is the column order the model was trained with, if recorded.
func (m *Logistic) FeatureNames() []string {
	return append([]string(nil), m.featureNames...)
}

func (m *Logistic) Info(variant string) models.ModelInfo {
	algorithm := m.algorithm
	if algorithm == "" {
		algorithm = "logistic"
	}
	return models.ModelInfo{
		Variant:      variant,
		Path:         m.path,
		Format:       string(m.format),
		Algorithm:    algorithm,
		Columns:      len(m.weights.Coefficients),
		FeatureNames: m.FeatureNames(),
	}
}
