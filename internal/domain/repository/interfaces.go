package repository

import (
	"context"
	"time"

	"PulseForge/internal/domain/models"
)

// SeriesReader is the read-only, no-look-ahead view calculators see.
type SeriesReader interface {
	WindowAsOf(symbol string, asOf time.Time, n int) []models.Observation
	Symbols() []string
	Len(symbol string) int
}

// ObservationSource loads daily bars for a date range (inclusive).
// Returned observations carry inst.Symbol regardless of the upstream ticker.
type ObservationSource interface {
	LoadRange(ctx context.Context, inst models.Instrument, from, to time.Time) ([]models.Observation, error)
}

// QuoteSource returns the latest snapshot quote of a symbol.
type QuoteSource interface {
	Quote(ctx context.Context, inst models.Instrument) (models.Quote, error)
}

// ObservationArchive persists fetched bars for later replay.
type ObservationArchive interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreBatch(ctx context.Context, obs []models.Observation) error
	Health(ctx context.Context) error
	Close() error
}

// ArtifactSink receives every encoded artifact of a run.
type ArtifactSink interface {
	Name() string
	Write(ctx context.Context, artifact models.Artifact) error
}

type Metrics interface {
	RecordRun(result string)
	RecordDegradedSignal(signal string)
	RecordScore(score float64)
	RecordLatency(stage string, seconds float64)
	RecordError(kind string)
}
