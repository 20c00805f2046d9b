package gateway

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const outcomeSuccess = "success"

// Metrics holds the Prometheus collectors for the invocation paths. The
// search client shares them, labeling its series with the search
// capability.
type Metrics struct {
	invocations     *prometheus.CounterVec
	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	costTotal       *prometheus.CounterVec
	budgetRemaining prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// SharedMetrics returns the process-wide collectors, registering them on
// the default Prometheus registry on first use. Registration is guarded so
// every engine and search client in the process shares one set.
func SharedMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = newMetrics()
	})
	return sharedMetrics
}

func newMetrics() *Metrics {
	return &Metrics{
		invocations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tribune_gateway_invocations_total",
				Help: "Total logical invocations by capability and terminal outcome",
			},
			[]string{"capability", "outcome"},
		),

		attempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tribune_gateway_attempts_total",
				Help: "Per-candidate attempts by provider and status",
			},
			[]string{"provider", "status"},
		),

		attemptDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "tribune_gateway_attempt_duration_seconds",
				Help: "Wall time of provider calls in seconds",
				// Spans fast search responses through slow LLM completions.
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"provider"},
		),

		costTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tribune_gateway_cost_total",
				Help: "Recorded spend by provider in the configured currency",
			},
			[]string{"provider"},
		),

		budgetRemaining: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tribune_gateway_budget_remaining",
				Help: "Budget left in the current period",
			},
		),

		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tribune_search_cache_lookups_total",
				Help: "Search cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// RecordInvocation counts one terminal engine outcome.
func (m *Metrics) RecordInvocation(capability Capability, outcome string) {
	m.invocations.WithLabelValues(string(capability), outcome).Inc()
}

// RecordAttempt counts one candidate attempt. Elapsed is observed only for
// statuses that actually called the provider.
func (m *Metrics) RecordAttempt(provider string, status AttemptStatus, elapsed time.Duration) {
	m.attempts.WithLabelValues(provider, string(status)).Inc()
	if status == AttemptSucceeded || status == AttemptFailed {
		m.attemptDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	}
}

// RecordCost adds recorded spend for a provider.
func (m *Metrics) RecordCost(provider string, amount float64) {
	if amount > 0 {
		m.costTotal.WithLabelValues(provider).Add(amount)
	}
}

// SetBudgetRemaining updates the remaining-budget gauge.
func (m *Metrics) SetBudgetRemaining(remaining float64) {
	m.budgetRemaining.Set(remaining)
}

// RecordCacheLookup counts one search cache consultation.
func (m *Metrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
