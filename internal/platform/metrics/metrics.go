// Package metrics owns the orchestration prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	runs           *prometheus.CounterVec
	suggestions    prometheus.Counter
	mirrorFailures *prometheus.CounterVec
	tierFailures   *prometheus.CounterVec
	budget         prometheus.Gauge
	requests       *prometheus.HistogramVec
}

// New registers the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestration_runs_total",
			Help: "Run state transitions by status.",
		}, []string{"status"}),
		suggestions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orchestration_suggestions_total",
			Help: "Ranking requests served.",
		}),
		mirrorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestration_mirror_failures_total",
			Help: "Events that an external sink failed to accept.",
		}, []string{"sink"}),
		tierFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orchestration_store_tier_failures_total",
			Help: "Persistence tier operations that failed.",
		}, []string{"tier", "op"}),
		budget: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orchestration_llm_budget_remaining",
			Help: "Remaining completion budget units.",
		}),
	}
	m.requests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orchestration_http_request_duration_seconds",
		Help:    "HTTP request latency by method and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "code"})
	reg.MustRegister(
		m.runs,
		m.requests,
		m.suggestions,
		m.mirrorFailures,
		m.tierFailures,
		m.budget,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// The recorders below are nil-safe so components can run without metrics.

func (m *Metrics) RunTransition(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

func (m *Metrics) Suggestion() {
	if m == nil {
		return
	}
	m.suggestions.Inc()
}

func (m *Metrics) MirrorFailure(sink string) {
	if m == nil {
		return
	}
	m.mirrorFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) TierFailure(tier, op string) {
	if m == nil {
		return
	}
	m.tierFailures.WithLabelValues(tier, op).Inc()
}

func (m *Metrics) BudgetRemaining(units int) {
	if m == nil {
		return
	}
	m.budget.Set(float64(units))
}

func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
