// Package metrics exposes Prometheus metrics for the screening pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Screening outcomes.
const (
	OutcomeScored = "scored"
	OutcomeFailed = "failed"
)

// Manager owns the pipeline metrics and the registry they live on. A nil
// *Manager is valid and records nothing.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	screenings         *prometheus.CounterVec
	scoreWarnings      *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	leaderboardRecords *prometheus.GaugeVec
	storeRetries       prometheus.Counter
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for stage durations.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRegistry registers the metrics on r instead of a fresh registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(m *Manager) {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scandid",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)

	m.screenings = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "screenings_total",
		Help:      "Screening requests by role and outcome",
	}, []string{"role", "outcome"})

	m.scoreWarnings = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "score_warnings_total",
		Help:      "Reports without any N/10 sub-score",
	}, []string{"role"})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of each pipeline stage",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})

	m.leaderboardRecords = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "leaderboard_records",
		Help:      "Records in the leaderboard table of a role",
	}, []string{"role"})

	m.storeRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "store_append_retries_total",
		Help:      "Store appends retried after a storage write error",
	})

	return m
}

// Registry is the registry to expose on /metrics.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Manager) ScreeningFinished(role, outcome string) {
	if m == nil {
		return
	}
	m.screenings.WithLabelValues(role, outcome).Inc()
}

func (m *Manager) ScoreWarning(role string) {
	if m == nil {
		return
	}
	m.scoreWarnings.WithLabelValues(role).Inc()
}

func (m *Manager) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Manager) SetLeaderboardRecords(role string, n int) {
	if m == nil {
		return
	}
	m.leaderboardRecords.WithLabelValues(role).Set(float64(n))
}

func (m *Manager) StoreRetry() {
	if m == nil {
		return
	}
	m.storeRetries.Inc()
}
