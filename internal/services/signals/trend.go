package signals

import (
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/domain/repository"
	"PulseForge/internal/domain/service"
	"PulseForge/internal/services/features"
)

// Trend measures the benchmark close against its moving average, today included.
type Trend struct {
	base
	symbol string
	window int
	scale  float64
}

var _ service.SignalCalculator = (*Trend)(nil)

func NewTrend(cfg models.EngineConfig) *Trend {
	return &Trend{
		base:   base{name: models.SignalTrend, weight: cfg.Weights.Trend},
		symbol: cfg.BenchmarkSymbol,
		window: cfg.TrendWindow,
		scale:  cfg.TrendScale,
	}
}

func (t *Trend) Compute(series repository.SeriesReader, asOf time.Time) models.SignalValue {
	win := series.WindowAsOf(t.symbol, asOf, t.window)
	if len(win) < t.window {
		return t.absent()
	}
	closes := features.Closes(win)
	sma, ok := features.SMA(closes, t.window)
	if !ok || sma <= 0 {
		return t.invalid()
	}
	raw := (closes[len(closes)-1] - sma) / sma
	return t.absent().WithValue(raw, features.ClampUnit(raw*t.scale))
}
