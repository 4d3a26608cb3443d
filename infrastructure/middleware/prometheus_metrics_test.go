package middleware

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/interview-gavel/infrastructure/llm"
)

func newTestMetrics(t *testing.T) (*PrometheusMetrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewPrometheusMetrics(reg), reg
}

// TestNewPrometheusMetrics verifies every vector is registered on the given
// registry and that a second registry accepts a fresh instance.
func TestNewPrometheusMetrics(t *testing.T) {
	pm, reg := newTestMetrics(t)
	require.NotNil(t, pm)

	pm.RecordCounter(llm.MetricLLMRequests, 1, map[string]string{"provider": "perplexity", "status": "success"})
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	assert.NotPanics(t, func() { NewPrometheusMetrics(prometheus.NewRegistry()) })
	assert.Panics(t, func() { NewPrometheusMetrics(reg) }, "Duplicate registration on one registry must panic.")
}

// TestPrometheusMetrics_RecordCounter verifies counters are routed by name.
func TestPrometheusMetrics_RecordCounter(t *testing.T) {
	pm, _ := newTestMetrics(t)

	pm.RecordCounter(llm.MetricLLMRequests, 1, map[string]string{"provider": "perplexity", "model": "sonar-pro", "status": "success"})
	pm.RecordCounter(llm.MetricLLMRequests, 1, map[string]string{"provider": "perplexity", "model": "sonar-pro", "status": "success"})
	pm.RecordCounter(llm.MetricLLMTokens, 120, map[string]string{"provider": "perplexity", "model": "sonar-pro", "token_type": "input"})
	pm.RecordCounter(MetricFallbacks, 1, map[string]string{"component": "judge"})
	pm.RecordCounter("custom_op", 3, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.llmRequests.WithLabelValues("perplexity", "sonar-pro", "success")))
	assert.Equal(t, 120.0, testutil.ToFloat64(pm.llmTokens.WithLabelValues("perplexity", "sonar-pro", "input")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.fallbacks.WithLabelValues("judge")))
	assert.Equal(t, 3.0, testutil.ToFloat64(pm.operationCounter.WithLabelValues("custom_op", "success", "unknown")))
}

// TestPrometheusMetrics_Histograms verifies latency and score observations.
func TestPrometheusMetrics_Histograms(t *testing.T) {
	pm, _ := newTestMetrics(t)

	pm.RecordLatency(MetricUnitExecution, 150*time.Millisecond, map[string]string{"unit": "judge"})
	pm.RecordHistogram(llm.MetricLLMLatency, 1.2, map[string]string{"provider": "perplexity", "status": "success"})
	pm.RecordHistogram(MetricEvaluationScore, 74, map[string]string{"source": "remote"})
	pm.RecordHistogram("other", 0.5, map[string]string{"unit": "aggregate"})

	assert.Equal(t, 1, testutil.CollectAndCount(pm.unitLatency))
	assert.Equal(t, 1, testutil.CollectAndCount(pm.llmLatency))
	assert.Equal(t, 1, testutil.CollectAndCount(pm.evaluationScores))
	assert.Equal(t, 1, testutil.CollectAndCount(pm.histograms))
}

// TestPrometheusMetrics_RecordGauge verifies gauges hold the last value.
func TestPrometheusMetrics_RecordGauge(t *testing.T) {
	pm, _ := newTestMetrics(t)

	pm.RecordGauge("interviews_open", 4, map[string]string{"unit": "store"})
	pm.RecordGauge("interviews_open", 2, map[string]string{"unit": "store"})

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.systemGauges.WithLabelValues("interviews_open", "store")))
}

// TestPrometheusMetrics_CircuitBreaker verifies breaker events reach the
// breaker series.
func TestPrometheusMetrics_CircuitBreaker(t *testing.T) {
	pm, _ := newTestMetrics(t)
	cb := pm.CircuitBreaker("judge")

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordTrip()
	cb.RecordState(llm.StateOpen)
	cb.RecordSuccess()

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.breakerEvents.WithLabelValues("judge", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.breakerEvents.WithLabelValues("judge", "trip")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.breakerEvents.WithLabelValues("judge", "success")))
	assert.Equal(t, float64(llm.StateOpen), testutil.ToFloat64(pm.breakerState.WithLabelValues("judge")))
}
