package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal       *prometheus.CounterVec
	degradedSignals *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	lastScore       prometheus.Gauge
	latency         *prometheus.HistogramVec
}

// New creates a recorder on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder on reg; tests pass a fresh prometheus.NewRegistry().
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulseforge_runs_total",
				Help: "Pipeline runs by result",
			},
			[]string{"result"},
		),
		degradedSignals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulseforge_degraded_signals_total",
				Help: "Sub-signals degraded to neutral on the run date",
			},
			[]string{"signal"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulseforge_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastScore: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "pulseforge_pulse_score",
				Help: "Most recent published pulse score",
			},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulseforge_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// RecordRun counts a finished run ("ok" or "error").
func (r *Recorder) RecordRun(result string) {
	r.runsTotal.WithLabelValues(result).Inc()
}

// RecordDegradedSignal counts a sub-signal that fell back to neutral.
func (r *Recorder) RecordDegradedSignal(signal string) {
	r.degradedSignals.WithLabelValues(signal).Inc()
}

// RecordScore sets the last score gauge.
func (r *Recorder) RecordScore(score float64) {
	r.lastScore.Set(score)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records stage latency in seconds.
func (r *Recorder) RecordLatency(stage string, seconds float64) {
	r.latency.WithLabelValues(stage).Observe(seconds)
}
