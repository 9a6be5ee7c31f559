package serving

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pregnancy-risk/platform/pkg/common/logger"
	"github.com/pregnancy-risk/platform/pkg/common/models"
	"github.com/pregnancy-risk/platform/pkg/features"
	"github.com/pregnancy-risk/platform/pkg/intake"
	"github.com/pregnancy-risk/platform/pkg/observability/metrics"
	"github.com/pregnancy-risk/platform/pkg/serving/cache"
	"github.com/pregnancy-risk/platform/pkg/serving/interpreter"
	"github.com/pregnancy-risk/platform/pkg/serving/model"
	"github.com/pregnancy-risk/platform/pkg/serving/predictor"
	"github.com/pregnancy-risk/platform/pkg/serving/strict"
)

const (
	AlertEventType = "risk.high"
	AlertSource    = "risk-service"
)

var ErrUnknownVariant = errors.New("unknown variant")

// Publisher hands high-risk alerts to the message bus.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// Archiver stores submitted intake forms.
type Archiver interface {
	Archive(ctx context.Context, variant string, input features.RawInput) (*intake.CaseModel, error)
}

type entry struct {
	predictor *predictor.Predictor
	contract  *strict.Contract
	info      models.ModelInfo
}

type Service struct {
	entries   map[string]*entry
	order     []string
	cache     cache.Cache
	alerts    Publisher
	archive   Archiver
	validator *intake.Validator
	metrics   *metrics.Recorder
	now       func() time.Time
}

type Option func(*Service)

func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

func WithAlerts(p Publisher) Option {
	return func(s *Service) { s.alerts = p }
}

func WithArchive(a Archiver) Option {
	return func(s *Service) { s.archive = a }
}

// WithClinicalValidation runs v on every tolerant HTTP prediction.
func WithClinicalValidation(v *intake.Validator) Option {
	return func(s *Service) { s.validator = v }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

func NewService(opts ...Option) *Service {
	s := &Service{
		entries: make(map[string]*entry),
		cache:   cache.Noop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a variant's predictor. Registering a variant twice replaces
// the earlier predictor but keeps its listing position.
func (s *Service) Register(p *predictor.Predictor, info models.ModelInfo) error {
	contract, err := strict.ForVariant(p.Variant())
	if err != nil {
		return err
	}
	if info.Variant == "" {
		info.Variant = p.Variant()
	}
	if info.Columns == 0 {
		info.Columns = len(p.Columns())
	}
	if _, ok := s.entries[p.Variant()]; !ok {
		s.order = append(s.order, p.Variant())
	}
	s.entries[p.Variant()] = &entry{predictor: p, contract: contract, info: info}
	if s.metrics != nil {
		s.metrics.SetModelLoaded(p.Variant(), p.Loaded())
	}
	return nil
}

// LoadPredictor reads the artifact at path and builds the variant's
// predictor bound to the artifact's feature names.
func LoadPredictor(variant, path string) (*predictor.Predictor, models.ModelInfo, error) {
	schema, err := features.SchemaFor(variant)
	if err != nil {
		return nil, models.ModelInfo{}, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	interp, err := interpreter.ForVariant(variant)
	if err != nil {
		return nil, models.ModelInfo{}, err
	}
	clf, err := model.Load(path)
	if err != nil {
		return nil, models.ModelInfo{}, err
	}
	p, err := predictor.New(schema, clf, interp, predictor.WithFeatureNames(clf.FeatureNames()))
	if err != nil {
		return nil, models.ModelInfo{}, fmt.Errorf("%w: %v", model.ErrModelUnavailable, err)
	}
	return p, clf.Info(variant), nil
}

// Models lists registered variants in registration order.
func (s *Service) Models() []models.ModelInfo {
	out := make([]models.ModelInfo, 0, len(s.order))
	for _, v := range s.order {
		out = append(out, s.entries[v].info)
	}
	return out
}

func (s *Service) lookup(variant string) (*entry, error) {
	e, ok := s.entries[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	return e, nil
}

// Predict runs the tolerant pipeline with the service's collaborators.
func (s *Service) Predict(ctx context.Context, variant string, input features.RawInput) (models.RiskResult, error) {
	e, err := s.lookup(variant)
	if err != nil {
		return models.RiskResult{}, err
	}
	if input == nil {
		input = features.RawInput{}
	}
	if s.validator != nil {
		if err := s.validator.Validate(variant, input); err != nil {
			return models.RiskResult{}, err
		}
	}
	s.archiveForm(ctx, variant, input)

	res, err := s.score(ctx, e.predictor, input)
	if err != nil {
		s.observeFailure(variant, err)
		return models.RiskResult{}, err
	}
	if res.RiskLevel == models.RiskHigh {
		s.alert(ctx, variant, input, res)
	}
	return res, nil
}

// Classify validates payload against the variant's strict contract and
// returns the predicted label with its probability.
func (s *Service) Classify(ctx context.Context, variant string, payload map[string]interface{}) (models.StrictResponse, error) {
	e, err := s.lookup(variant)
	if err != nil {
		return models.StrictResponse{}, err
	}
	input, err := e.contract.Validate(payload)
	if err != nil {
		return models.StrictResponse{}, err
	}
	resp, err := e.predictor.Classify(ctx, input)
	if err != nil {
		s.observeFailure(variant, err)
		return models.StrictResponse{}, err
	}
	return resp, nil
}

func (s *Service) score(ctx context.Context, p *predictor.Predictor, input features.RawInput) (models.RiskResult, error) {
	if !p.Loaded() {
		return models.RiskResult{}, predictor.ErrModelNotLoaded
	}
	start := s.now()
	vec, diags, err := p.Vectorize(input)
	if err != nil {
		return models.RiskResult{}, err
	}
	if s.metrics != nil {
		for _, d := range diags {
			s.metrics.ObserveDefault(p.Variant(), d.Field, d.Reason)
		}
	}

	key := cache.Key(p.Variant(), vec)
	cached, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Log.WithError(err).WithField("variant", p.Variant()).Warn("prediction cache lookup failed")
	}
	if s.metrics != nil {
		s.metrics.ObserveCache(p.Variant(), hit)
	}
	if hit {
		s.observe(p.Variant(), cached, start)
		return cached, nil
	}

	probability, err := p.Score(ctx, vec)
	if err != nil {
		return models.RiskResult{}, err
	}
	res := p.Interpret(probability)
	if err := s.cache.Set(ctx, key, res); err != nil {
		logger.Log.WithError(err).WithField("variant", p.Variant()).Warn("prediction cache store failed")
	}
	s.observe(p.Variant(), res, start)
	return res, nil
}

func (s *Service) observe(variant string, res models.RiskResult, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObservePrediction(variant, string(res.RiskLevel), s.now().Sub(start))
	}
}

func (s *Service) observeFailure(variant string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveFailure(variant, failureLabel(err))
	}
}

// failureLabel keeps the error label to a fixed set of values.
func failureLabel(err error) string {
	switch {
	case errors.Is(err, predictor.ErrModelNotLoaded), errors.Is(err, predictor.ErrInvalidInput):
		return predictor.ErrorMessage(err)
	default:
		return "internal"
	}
}

func (s *Service) archiveForm(ctx context.Context, variant string, input features.RawInput) {
	if s.archive == nil {
		return
	}
	rec, err := s.archive.Archive(ctx, variant, input)
	if err != nil {
		logger.Log.WithError(err).WithField("variant", variant).Error("failed to archive intake form")
		return
	}
	if rec != nil {
		logger.Log.WithFields(map[string]interface{}{
			"variant": variant,
			"case_id": rec.ID.String(),
		}).Debug("intake form archived")
	}
}

func (s *Service) alert(ctx context.Context, variant string, input features.RawInput, res models.RiskResult) {
	if s.alerts == nil {
		return
	}
	data := map[string]interface{}{
		"variant":     variant,
		"risk_level":  string(res.RiskLevel),
		"probability": res.Probability,
		"percentage":  res.Percentage,
	}
	if id, ok := patientID(input); ok {
		data["patient_id"] = id
	}
	err := s.alerts.PublishEvent(ctx, AlertEventType, AlertSource, data)
	if err != nil {
		logger.Log.WithError(err).WithField("variant", variant).Error("failed to publish high-risk alert")
	}
	if s.metrics != nil {
		s.metrics.ObserveAlert(variant, err)
	}
}
