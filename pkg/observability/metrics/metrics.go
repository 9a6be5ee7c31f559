package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pregnancy_risk"

// Recorder owns the service collectors. Each Recorder has its own registry
// so tests can create as many as they like.
type Recorder struct {
	registry *prometheus.Registry

	predictions  *prometheus.CounterVec
	failures     *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	alerts       *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	modelsLoaded *prometheus.GaugeVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Risk predictions served, by variant and risk level.",
		}, []string{"variant", "risk_level"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Predictions that returned an error object.",
		}, []string{"variant", "error"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feature_defaults_total",
			Help:      "Fields replaced by their default during coercion.",
		}, []string{"variant", "field", "reason"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_cache_lookups_total",
			Help:      "Prediction cache lookups by result.",
		}, []string{"variant", "result"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "High-risk alerts handed to the message bus.",
		}, []string{"variant", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "End to end prediction latency.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"variant"}),
		modelsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_loaded",
			Help:      "1 when the variant's classifier is loaded.",
		}, []string{"variant"}),
	}
	r.registry.MustRegister(
		r.predictions, r.failures, r.fallbacks, r.cacheLookups, r.alerts, r.latency, r.modelsLoaded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) ObservePrediction(variant, riskLevel string, elapsed time.Duration) {
	r.predictions.WithLabelValues(variant, riskLevel).Inc()
	r.latency.WithLabelValues(variant).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveFailure(variant, message string) {
	r.failures.WithLabelValues(variant, message).Inc()
}

func (r *Recorder) ObserveDefault(variant, field, reason string) {
	r.fallbacks.WithLabelValues(variant, field, reason).Inc()
}

func (r *Recorder) ObserveCache(variant string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(variant, result).Inc()
}

func (r *Recorder) ObserveAlert(variant string, err error) {
	status := "published"
	if err != nil {
		status = "failed"
	}
	r.alerts.WithLabelValues(variant, status).Inc()
}

func (r *Recorder) SetModelLoaded(variant string, loaded bool) {
	v := 0.0
	if loaded {
		v = 1
	}
	r.modelsLoaded.WithLabelValues(variant).Set(v)
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
