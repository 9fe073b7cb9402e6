package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the judge.
type Metrics struct {
	Registry *prometheus.Registry

	JudgementsTotal   *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec
	CompileDuration   prometheus.Histogram
	CompileCacheHits  prometheus.Counter
	CompileCacheMiss  prometheus.Counter
	ActiveExecutions  prometheus.Gauge
	ActiveRuns        prometheus.Gauge
	RequestsInFlight  prometheus.Gauge
	OutputSizeBytes   prometheus.Histogram
}

// NewMetrics creates and registers all judge metrics on a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		JudgementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "judge",
				Name:      "judgements_total",
				Help:      "Total judged test cases by language and verdict.",
			},
			[]string{"language", "verdict"},
		),

		ExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "judge",
				Name:      "execution_duration_seconds",
				Help:      "Wall-clock duration of test case executions.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"language"},
		),

		CompileDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "judge",
				Name:      "compile_duration_seconds",
				Help:      "Duration of compiler invocations (cache hits excluded).",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),

		CompileCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "judge",
				Name:      "compile_cache_hits_total",
				Help:      "Compilations answered from the content-hash cache.",
			},
		),

		CompileCacheMiss: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "judge",
				Name:      "compile_cache_misses_total",
				Help:      "Compilations that had to invoke the compiler.",
			},
		),

		ActiveExecutions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "judge",
				Name:      "active_executions",
				Help:      "Number of user programs currently running.",
			},
		),

		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "judge",
				Name:      "active_runs",
				Help:      "Number of in-flight judge batches across all source files.",
			},
		),

		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "judge",
				Subsystem: "api",
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests currently being processed.",
			},
		),

		OutputSizeBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "judge",
				Name:      "output_size_bytes",
				Help:      "Size of captured program output in bytes.",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
			},
		),
	}

	reg.MustRegister(
		m.JudgementsTotal,
		m.ExecutionDuration,
		m.CompileDuration,
		m.CompileCacheHits,
		m.CompileCacheMiss,
		m.ActiveExecutions,
		m.ActiveRuns,
		m.RequestsInFlight,
		m.OutputSizeBytes,
	)

	return m
}

// RecordJudgement records one judged test case.
func (m *Metrics) RecordJudgement(language, verdict string, durationSec float64) {
	if m == nil {
		return
	}
	m.JudgementsTotal.WithLabelValues(language, verdict).Inc()
	m.ExecutionDuration.WithLabelValues(language).Observe(durationSec)
}

// ExecutionStarted bumps the active execution gauge.
func (m *Metrics) ExecutionStarted() {
	if m == nil {
		return
	}
	m.ActiveExecutions.Inc()
}

// ExecutionEnded decrements the active execution gauge.
func (m *Metrics) ExecutionEnded() {
	if m == nil {
		return
	}
	m.ActiveExecutions.Dec()
}

// RecordOutput records the size of captured program output.
func (m *Metrics) RecordOutput(bytes int) {
	if m == nil {
		return
	}
	m.OutputSizeBytes.Observe(float64(bytes))
}

// RecordCompile records a compiler invocation or cache hit.
func (m *Metrics) RecordCompile(cached bool, durationSec float64) {
	if m == nil {
		return
	}
	if cached {
		m.CompileCacheHits.Inc()
		return
	}
	m.CompileCacheMiss.Inc()
	m.CompileDuration.Observe(durationSec)
}
