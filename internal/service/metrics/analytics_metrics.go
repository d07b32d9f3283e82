package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ArtifactLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pulseforge",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of serving endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ArtifactErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulseforge",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by serving endpoint",
		},
		[]string{"endpoint"},
	)

	ArtifactHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulseforge",
			Subsystem: "api",
			Name:      "artifact_requests_total",
			Help:      "Artifact requests by name and cache result",
		},
		[]string{"artifact", "result"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ArtifactLatency, ArtifactErrors, ArtifactHits)
	})
}
