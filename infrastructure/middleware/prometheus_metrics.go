package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/interview-gavel/infrastructure/llm"
	"github.com/ahrav/interview-gavel/internal/ports"
)

// Metric names with dedicated Prometheus series. Any other name is routed
// to the generic operation, gauge, or histogram vectors.
const (
	MetricEvaluationScore = "evaluation_score"
	MetricFallbacks       = "fallbacks_total"
)

// PrometheusMetrics implements ports.MetricsCollector using Prometheus. It
// exposes LLM traffic, unit latency, evaluation scores, fallback counts, and
// circuit breaker state.
type PrometheusMetrics struct {
	llmRequests      *prometheus.CounterVec
	llmTokens        *prometheus.CounterVec
	llmLatency       *prometheus.HistogramVec
	unitLatency      *prometheus.HistogramVec
	evaluationScores *prometheus.HistogramVec
	fallbacks        *prometheus.CounterVec
	breakerState     *prometheus.GaugeVec
	breakerEvents    *prometheus.CounterVec
	operationCounter *prometheus.CounterVec
	histograms       *prometheus.HistogramVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates the metric vectors and registers them with
// reg. A nil reg uses the default registerer. Each registry accepts only one
// PrometheusMetrics instance.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		llmRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: llm.MetricLLMRequests,
				Help: "Total number of LLM requests by outcome.",
			},
			[]string{"provider", "model", "status"},
		),
		llmTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: llm.MetricLLMTokens,
				Help: "Total number of tokens exchanged with LLM providers.",
			},
			[]string{"provider", "model", "token_type"},
		),
		llmLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    llm.MetricLLMLatency,
				Help:    "Latency of LLM requests.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"provider", "status"},
		),
		unitLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "unit_execution_duration_seconds",
				Help:    "Execution time of pipeline units.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "unit", "status"},
		),
		evaluationScores: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evaluation_score",
				Help:    "Distribution of answer scores.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"source"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricFallbacks,
				Help: "Number of times a local fallback replaced a remote result.",
			},
			[]string{"component"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "llm_circuit_breaker_state",
				Help: "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
			},
			[]string{"breaker"},
		),
		breakerEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_circuit_breaker_events_total",
				Help: "Circuit breaker trips, successes, and failures.",
			},
			[]string{"breaker", "event"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluation_operations_total",
				Help: "Total number of pipeline operations.",
			},
			[]string{"operation", "status", "unit"},
		),
		histograms: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evaluation_observations",
				Help:    "Generic observations recorded by pipeline components.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"metric", "unit"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "evaluation_system_state",
				Help: "Current system state values.",
			},
			[]string{"metric", "unit"},
		),
	}
}

func labelOr(labels map[string]string, key, def string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return def
}

// RecordLatency records execution latency in the unit histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.unitLatency.WithLabelValues(
		operation,
		labelOr(labels, "unit", "unknown"),
		labelOr(labels, "status", "success"),
	).Observe(duration.Seconds())
}

// RecordCounter increments the counter matching metric.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case llm.MetricLLMRequests:
		pm.llmRequests.WithLabelValues(
			labelOr(labels, "provider", "unknown"),
			labels["model"],
			labelOr(labels, "status", "unknown"),
		).Add(value)
	case llm.MetricLLMTokens:
		pm.llmTokens.WithLabelValues(
			labelOr(labels, "provider", "unknown"),
			labels["model"],
			labelOr(labels, "token_type", "unknown"),
		).Add(value)
	case MetricFallbacks:
		pm.fallbacks.WithLabelValues(labelOr(labels, "component", "unknown")).Add(value)
	default:
		pm.operationCounter.WithLabelValues(
			metric,
			labelOr(labels, "status", "success"),
			labelOr(labels, "unit", "unknown"),
		).Add(value)
	}
}

// RecordGauge sets a system gauge.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric, labelOr(labels, "unit", "unknown")).Set(value)
}

// RecordHistogram records value in the histogram matching metric.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case llm.MetricLLMLatency:
		pm.llmLatency.WithLabelValues(
			labelOr(labels, "provider", "unknown"),
			labelOr(labels, "status", "unknown"),
		).Observe(value)
	case MetricEvaluationScore:
		pm.evaluationScores.WithLabelValues(labelOr(labels, "source", "unknown")).Observe(value)
	default:
		pm.histograms.WithLabelValues(metric, labelOr(labels, "unit", "unknown")).Observe(value)
	}
}

// CircuitBreaker returns an llm.CircuitBreakerMetrics that reports the
// named breaker's events to Prometheus.
func (pm *PrometheusMetrics) CircuitBreaker(name string) llm.CircuitBreakerMetrics {
	return &breakerMetrics{pm: pm, name: name}
}

type breakerMetrics struct {
	pm   *PrometheusMetrics
	name string
}

func (b *breakerMetrics) RecordState(state llm.CircuitBreakerState) {
	b.pm.breakerState.WithLabelValues(b.name).Set(float64(state))
}

func (b *breakerMetrics) RecordTrip() {
	b.pm.breakerEvents.WithLabelValues(b.name, "trip").Inc()
}

func (b *breakerMetrics) RecordSuccess() {
	b.pm.breakerEvents.WithLabelValues(b.name, "success").Inc()
}

func (b *breakerMetrics) RecordFailure() {
	b.pm.breakerEvents.WithLabelValues(b.name, "failure").Inc()
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
