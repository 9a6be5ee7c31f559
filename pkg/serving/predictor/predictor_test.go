package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pregnancy-risk/platform/pkg/common/models"
	"github.com/pregnancy-risk/platform/pkg/features"
	"github.com/pregnancy-risk/platform/pkg/serving/interpreter"
)

type stubClassifier struct {
	p        float64
	label    int
	err      error
	panicMsg string
	proba    []float64
	seen     [][]float64
}

func (s *stubClassifier) Predict(vector []float64) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.label, nil
}

func (s *stubClassifier) PredictProbability(vector []float64) ([]float64, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return nil, s.err
	}
	s.seen = append(s.seen, append([]float64(nil), vector...))
	if s.proba != nil {
		return s.proba, nil
	}
	return []float64{1 - s.p, s.p}, nil
}

func newEctopic(t *testing.T, c Classifier, opts ...Option) *Predictor {
	t.Helper()
	p, err := New(features.EctopicSchema(), c, interpreter.New(interpreter.EctopicRecommendations), opts...)
	require.NoError(t, err)
	return p
}

func TestPredictEctopicScenario(t *testing.T) {
	stub := &stubClassifier{p: 0.55}
	p := newEctopic(t, stub)

	input := features.RawInput{"age": 32, "serumHCGLevel": 1500, "vaginalBleeding": "yes"}
	res, diags, err := p.Predict(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, models.RiskModerate, res.RiskLevel)
	assert.Equal(t, "55.0%", res.Percentage)
	assert.Equal(t, 0.55, res.Probability)
	assert.Equal(t, interpreter.EctopicRecommendations.Moderate, res.Recommendations)
	assert.Len(t, diags, 16)

	require.Len(t, stub.seen, 1)
	vec := stub.seen[0]
	assert.Len(t, vec, 19)
	assert.Equal(t, 32.0, vec[1])
	assert.Equal(t, 28.0, vec[11])
	assert.Equal(t, 1.0, vec[12])
	assert.Equal(t, 1500.0, vec[14])
}

func TestPredictEmptyInput(t *testing.T) {
	stub := &stubClassifier{p: 0.1}
	p := newEctopic(t, stub)

	out := p.Assess(context.Background(), features.RawInput{})
	require.False(t, out.Failed())
	assert.Equal(t, models.RiskLow, out.RiskLevel)
	assert.Len(t, stub.seen[0], features.EctopicSchema().Len())
}

func TestPredictIsIdempotent(t *testing.T) {
	p := newEctopic(t, &stubClassifier{p: 0.81})
	input := features.RawInput{"Age": "29", "AbdominalPain": true}

	first, _, err := p.Predict(context.Background(), input)
	require.NoError(t, err)
	second, _, err := p.Predict(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPredictMissingSingleFieldNeverFails(t *testing.T) {
	full := features.RawInput{}
	for _, col := range features.EctopicSchema().Columns() {
		full[col] = "1"
	}
	p := newEctopic(t, &stubClassifier{p: 0.72})

	for _, col := range features.EctopicSchema().Columns() {
		input := features.RawInput{}
		for k, v := range full {
			if k != col {
				input[k] = v
			}
		}
		out := p.Assess(context.Background(), input)
		require.False(t, out.Failed(), col)

		raw, err := json.Marshal(out)
		require.NoError(t, err)
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		for _, key := range []string{"riskLevel", "percentage", "probability", "recommendations"} {
			assert.Contains(t, decoded, key)
		}
		assert.NotContains(t, decoded, "error")
	}
}

func TestPredictModelNotLoaded(t *testing.T) {
	p := newEctopic(t, nil)
	assert.False(t, p.Loaded())

	_, _, err := p.Predict(context.Background(), features.RawInput{})
	assert.ErrorIs(t, err, ErrModelNotLoaded)

	out := p.Assess(context.Background(), features.RawInput{})
	assert.True(t, out.Failed())
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Model not loaded"}`, string(raw))
}

func TestPredictClassifierFailures(t *testing.T) {
	cases := map[string]*stubClassifier{
		"error":       {err: errors.New("shape mismatch")},
		"panic":       {panicMsg: "boom"},
		"short proba": {proba: []float64{0.3}},
	}
	for name, stub := range cases {
		t.Run(name, func(t *testing.T) {
			p := newEctopic(t, stub)
			_, _, err := p.Predict(context.Background(), features.RawInput{})
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, "Invalid input data", p.Assess(context.Background(), nil).Error)
		})
	}
}

func TestPredictCancelledContext(t *testing.T) {
	p := newEctopic(t, &stubClassifier{p: 0.2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := p.Predict(ctx, features.RawInput{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassify(t *testing.T) {
	p := newEctopic(t, &stubClassifier{p: 0.8, label: 1})
	resp, err := p.Classify(context.Background(), features.RawInput{"Age": 30})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Prediction)
	require.NotNil(t, resp.Proba)
	assert.Equal(t, 0.8, *resp.Proba)

	p = newEctopic(t, &stubClassifier{p: 0.8, label: 0})
	resp, err = p.Classify(context.Background(), features.RawInput{})
	require.NoError(t, err)
	require.NotNil(t, resp.Proba)
	assert.InDelta(t, 0.2, *resp.Proba, 1e-12)

	p = newEctopic(t, &stubClassifier{p: 0.8, label: 7})
	resp, err = p.Classify(context.Background(), features.RawInput{})
	require.NoError(t, err)
	assert.Nil(t, resp.Proba)
}

func TestWithFeatureNames(t *testing.T) {
	cols := features.EctopicSchema().Columns()
	swapped := append([]string(nil), cols...)
	swapped[0], swapped[1] = swapped[1], swapped[0]

	stub := &stubClassifier{p: 0.5}
	p := newEctopic(t, stub, WithFeatureNames(swapped))
	assert.Equal(t, swapped, p.Columns())

	_, _, err := p.Predict(context.Background(), features.RawInput{"age": 44, "patientid": 7})
	require.NoError(t, err)
	assert.Equal(t, []float64{44, 7}, stub.seen[0][:2])

	_, err = New(features.EctopicSchema(), stub, interpreter.New(interpreter.EctopicRecommendations), WithFeatureNames([]string{"Age"}))
	assert.Error(t, err)
}

func TestNewRequiresSchemaAndInterpreter(t *testing.T) {
	_, err := New(nil, nil, interpreter.New(interpreter.EctopicRecommendations))
	assert.Error(t, err)
	_, err = New(features.EctopicSchema(), nil, nil)
	assert.Error(t, err)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Model not loaded", ErrorMessage(ErrModelNotLoaded))
	assert.Equal(t, "Invalid input data", ErrorMessage(errors.Join(errors.New("x"), ErrInvalidInput)))
	assert.Equal(t, "other", ErrorMessage(errors.New("other")))
}
