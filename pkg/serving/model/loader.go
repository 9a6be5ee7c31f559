// Package model loads trained classifier artifacts from disk.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pregnancy-risk/platform/pkg/common/logger"
	"github.com/pregnancy-risk/platform/pkg/ml/linear"
)

var ErrModelUnavailable = errors.New("model unavailable")

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const defaultThreshold = 0.5

type Artifact struct {
	Model struct {
		Type         string         `json:"type" yaml:"type"`
		Algorithm    string         `json:"algorithm" yaml:"algorithm"`
		FeatureNames []string       `json:"feature_names" yaml:"feature_names"`
		Threshold    float64        `json:"threshold,omitempty" yaml:"threshold,omitempty"`
		Weights      linear.Weights `json:"weights" yaml:"weights"`
	} `json:"model" yaml:"model"`
}

// Load reads a logistic artifact. JSON is tried first and YAML is the
// fallback; the artifact must decode cleanly in one of them.
func Load(path string) (*Logistic, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	artifact, format, err := decode(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, path, err)
	}
	if err := validate(artifact); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, path, err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"path":     path,
		"format":   format,
		"features": len(artifact.Model.Weights.Coefficients),
	}).Info("model loaded")

	return newLogistic(artifact, path, format), nil
}

func decode(content []byte) (Artifact, Format, error) {
	var artifact Artifact
	jsonErr := json.NewDecoder(bytes.NewReader(content)).Decode(&artifact)
	if jsonErr == nil {
		return artifact, FormatJSON, nil
	}

	artifact = Artifact{}
	yamlErr := yaml.Unmarshal(content, &artifact)
	if yamlErr == nil && len(artifact.Model.Weights.Coefficients) > 0 {
		return artifact, FormatYAML, nil
	}
	if yamlErr == nil {
		yamlErr = errors.New("no model weights")
	}
	return Artifact{}, "", fmt.Errorf("json: %v; yaml: %v", jsonErr, yamlErr)
}

func validate(a Artifact) error {
	switch strings.ToLower(a.Model.Algorithm) {
	case "", "logistic", "logistic_regression", "logisticregression":
	default:
		return fmt.Errorf("unsupported algorithm %q", a.Model.Algorithm)
	}
	if t := a.Model.Type; t != "" && !strings.EqualFold(t, "classification") {
		return fmt.Errorf("unsupported model type %q", t)
	}
	if err := a.Model.Weights.Validate(len(a.Model.FeatureNames)); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}
	if th := a.Model.Threshold; th < 0 || th > 1 {
		return fmt.Errorf("threshold %v outside [0,1]", th)
	}
	return nil
}
