// Command risk-predictor scores one intake form and prints the result as a
// single JSON object:
//
//	risk-predictor <ectopic|molar> '<json>'
//
// Logs go to stderr. The exit status is always 0; failures are reported in
// the "error" field.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pregnancy-risk/platform/pkg/common/config"
	"github.com/pregnancy-risk/platform/pkg/common/logger"
	"github.com/pregnancy-risk/platform/pkg/common/models"
	"github.com/pregnancy-risk/platform/pkg/features"
	"github.com/pregnancy-risk/platform/pkg/serving"
	"github.com/pregnancy-risk/platform/pkg/serving/interpreter"
	"github.com/pregnancy-risk/platform/pkg/serving/predictor"
)

const usage = "usage: risk-predictor <ectopic|molar> '<json>'"

func main() {
	logger.InitWithOutput(os.Stderr)
	cfg := config.Load()

	paths := map[string]string{
		features.VariantEctopic: cfg.EctopicModelPath,
		features.VariantMolar:   cfg.MolarModelPath,
	}
	run(context.Background(), os.Args[1:], os.Stdout, paths)
}

func run(ctx context.Context, args []string, out io.Writer, paths map[string]string) {
	outcome := assess(ctx, args, paths)
	if err := json.NewEncoder(out).Encode(outcome); err != nil {
		logger.Log.WithError(err).Error("failed to write result")
	}
}

func assess(ctx context.Context, args []string, paths map[string]string) (outcome models.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithField("panic", r).Error("prediction panicked")
			outcome = models.Outcome{Error: fmt.Sprint(r)}
		}
	}()

	if len(args) < 2 {
		return models.Outcome{Error: usage}
	}
	variant := args[0]

	input, err := parseInput(args[1])
	if err != nil {
		return models.Outcome{Error: err.Error()}
	}

	p, err := newPredictor(variant, paths[variant])
	if err != nil {
		return models.Outcome{Error: "Invalid model type"}
	}
	return p.Assess(ctx, input)
}

func parseInput(raw string) (features.RawInput, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var input features.RawInput
	if err := dec.Decode(&input); err != nil {
		return nil, fmt.Errorf("invalid JSON input: %v", err)
	}
	if input == nil {
		input = features.RawInput{}
	}
	return input, nil
}

// newPredictor fails only for an unknown variant. A model that cannot be
// loaded yields an unloaded predictor so the result reports it.
func newPredictor(variant, path string) (*predictor.Predictor, error) {
	schema, err := features.SchemaFor(variant)
	if err != nil {
		return nil, err
	}
	p, _, err := serving.LoadPredictor(variant, path)
	if err == nil {
		return p, nil
	}
	logger.Log.WithError(err).WithFields(map[string]interface{}{
		"variant": variant,
		"path":    path,
	}).Error("failed to load model")

	interp, ierr := interpreter.ForVariant(variant)
	if ierr != nil {
		return nil, ierr
	}
	return predictor.New(schema, nil, interp)
}
