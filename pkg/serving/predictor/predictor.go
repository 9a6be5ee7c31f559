package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/pregnancy-risk/platform/pkg/common/logger"
	"github.com/pregnancy-risk/platform/pkg/common/models"
	"github.com/pregnancy-risk/platform/pkg/features"
)

var (
	ErrModelNotLoaded = errors.New("model not loaded")
	ErrInvalidInput   = errors.New("invalid input data")
)

// Classifier is a trained binary model. Implementations must be safe for
// concurrent use once loaded.
type Classifier interface {
	Predict(vector []float64) (int, error)
	PredictProbability(vector []float64) ([]float64, error)
}

type Interpreter interface {
	Interpret(probability float64) models.RiskResult
}

// Predictor runs one variant's pipeline: normalize, coerce, build, score,
// interpret. It holds no per-request state.
type Predictor struct {
	variant     string
	layout      features.Layout
	classifier  Classifier
	interpreter Interpreter
}

type Option func(*Predictor) error

// WithFeatureNames binds the vector to the column order a model was
// trained with. An empty list keeps the schema order.
func WithFeatureNames(names []string) Option {
	return func(p *Predictor) error {
		layout, err := p.layout.Schema().Layout(names)
		if err != nil {
			return err
		}
		p.layout = layout
		return nil
	}
}

// New builds a predictor. A nil classifier is allowed and makes every
// prediction fail with ErrModelNotLoaded.
func New(schema *features.Schema, classifier Classifier, interpreter Interpreter, opts ...Option) (*Predictor, error) {
	if schema == nil {
		return nil, errors.New("predictor requires a schema")
	}
	if interpreter == nil {
		return nil, errors.New("predictor requires an interpreter")
	}
	p := &Predictor{
		variant:     schema.Variant(),
		layout:      schema.DefaultLayout(),
		classifier:  classifier,
		interpreter: interpreter,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("predictor %s: %w", p.variant, err)
		}
	}
	return p, nil
}

func (p *Predictor) Variant() string { return p.variant }

func (p *Predictor) Columns() []string { return p.layout.Columns() }

func (p *Predictor) Loaded() bool { return p.classifier != nil }

// Vectorize builds the classifier input for input.
func (p *Predictor) Vectorize(input features.RawInput) (features.Vector, features.Diagnostics, error) {
	vec, diags, err := features.BuildLayout(p.layout, input)
	if err != nil {
		logger.Log.WithError(err).WithField("variant", p.variant).Error("feature vector construction failed")
		return features.Vector{}, diags, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	p.logDiagnostics(diags)
	return vec, diags, nil
}

// Score returns the probability of the positive class for vec.
func (p *Predictor) Score(ctx context.Context, vec features.Vector) (float64, error) {
	if p.classifier == nil {
		return 0, ErrModelNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	proba, err := p.probabilities(vec)
	if err != nil {
		return 0, err
	}
	return proba[1], nil
}

// Interpret maps a probability to the variant's risk result.
func (p *Predictor) Interpret(probability float64) models.RiskResult {
	return p.interpreter.Interpret(probability)
}

// Predict runs the full tolerant pipeline.
func (p *Predictor) Predict(ctx context.Context, input features.RawInput) (models.RiskResult, features.Diagnostics, error) {
	if p.classifier == nil {
		return models.RiskResult{}, nil, ErrModelNotLoaded
	}
	vec, diags, err := p.Vectorize(input)
	if err != nil {
		return models.RiskResult{}, diags, err
	}
	probability, err := p.Score(ctx, vec)
	if err != nil {
		return models.RiskResult{}, diags, err
	}
	return p.Interpret(probability), diags, nil
}

// Classify serves the strict convention: the predicted label and the
// probability the model assigns to that label.
func (p *Predictor) Classify(ctx context.Context, input features.RawInput) (models.StrictResponse, error) {
	if p.classifier == nil {
		return models.StrictResponse{}, ErrModelNotLoaded
	}
	vec, _, err := p.Vectorize(input)
	if err != nil {
		return models.StrictResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.StrictResponse{}, err
	}

	var label int
	err = guard(func() error {
		var perr error
		label, perr = p.classifier.Predict(vec.Values)
		return perr
	})
	if err != nil {
		return models.StrictResponse{}, p.inferenceError(err)
	}

	proba, err := p.probabilities(vec)
	if err != nil {
		return models.StrictResponse{}, err
	}
	resp := models.StrictResponse{Prediction: label}
	if label >= 0 && label < len(proba) {
		v := proba[label]
		resp.Proba = &v
	}
	return resp, nil
}

// Assess never fails: errors are folded into the outcome's error field.
func (p *Predictor) Assess(ctx context.Context, input features.RawInput) models.Outcome {
	res, _, err := p.Predict(ctx, input)
	if err != nil {
		return models.Outcome{Error: ErrorMessage(err)}
	}
	return models.Outcome{RiskResult: &res}
}

// ErrorMessage renders err the way callers of the prediction API expect.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrModelNotLoaded):
		return "Model not loaded"
	case errors.Is(err, ErrInvalidInput):
		return "Invalid input data"
	default:
		return err.Error()
	}
}

func (p *Predictor) probabilities(vec features.Vector) ([]float64, error) {
	var proba []float64
	err := guard(func() error {
		var perr error
		proba, perr = p.classifier.PredictProbability(vec.Values)
		return perr
	})
	if err != nil {
		return nil, p.inferenceError(err)
	}
	if len(proba) < 2 {
		return nil, p.inferenceError(fmt.Errorf("expected 2 class probabilities, got %d", len(proba)))
	}
	for _, v := range proba {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, p.inferenceError(fmt.Errorf("non-finite probability %v", v))
		}
	}
	return proba, nil
}

func (p *Predictor) inferenceError(err error) error {
	logger.Log.WithError(err).WithField("variant", p.variant).Error("classifier inference failed")
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

func (p *Predictor) logDiagnostics(diags features.Diagnostics) {
	if len(diags) == 0 {
		return
	}
	var missing []string
	for _, d := range diags {
		if d.Reason == features.ReasonMissing {
			missing = append(missing, d.Field)
			continue
		}
		logger.Log.WithFields(map[string]interface{}{
			"variant": p.variant,
			"field":   d.Field,
			"reason":  d.Reason,
		}).Warn("invalid value, using default")
	}
	if len(missing) > 0 {
		logger.Log.WithFields(map[string]interface{}{
			"variant": p.variant,
			"fields":  missing,
		}).Info("using defaults for missing fields")
	}
}

func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()
	return fn()
}
