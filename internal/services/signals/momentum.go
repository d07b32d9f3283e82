package signals

import (
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/domain/repository"
	"PulseForge/internal/domain/service"
	"PulseForge/internal/services/features"
)

// Momentum is the benchmark rate of change over the lookback.
type Momentum struct {
	base
	symbol   string
	lookback int
	scale    float64
}

var _ service.SignalCalculator = (*Momentum)(nil)

func NewMomentum(cfg models.EngineConfig) *Momentum {
	return &Momentum{
		base:     base{name: models.SignalMomentum, weight: cfg.Weights.Momentum},
		symbol:   cfg.BenchmarkSymbol,
		lookback: cfg.MomentumLookback,
		scale:    cfg.MomentumScale,
	}
}

func (m *Momentum) Compute(series repository.SeriesReader, asOf time.Time) models.SignalValue {
	win := series.WindowAsOf(m.symbol, asOf, m.lookback+1)
	if len(win) < m.lookback+1 {
		return m.absent()
	}
	raw, ok := features.PctChange(win[0].Close, win[len(win)-1].Close)
	if !ok {
		return m.invalid()
	}
	return m.absent().WithValue(raw, features.ClampUnit(raw*m.scale))
}
