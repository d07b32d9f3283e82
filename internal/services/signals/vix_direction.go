package signals

import (
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/domain/repository"
	"PulseForge/internal/domain/service"
	"PulseForge/internal/services/features"
)

// VIXDirection rewards a falling VIX over the lookback.
type VIXDirection struct {
	base
	symbol   string
	lookback int
	scale    float64
}

var _ service.SignalCalculator = (*VIXDirection)(nil)

func NewVIXDirection(cfg models.EngineConfig) *VIXDirection {
	return &VIXDirection{
		base:     base{name: models.SignalVIXDirection, weight: cfg.Weights.VIXDirection},
		symbol:   cfg.VIXSymbol,
		lookback: cfg.VIXDirectionLookback,
		scale:    cfg.VIXDirectionScale,
	}
}

func (d *VIXDirection) Compute(series repository.SeriesReader, asOf time.Time) models.SignalValue {
	win := series.WindowAsOf(d.symbol, asOf, d.lookback+1)
	if len(win) < d.lookback+1 {
		return d.absent()
	}
	change, ok := features.PctChange(win[0].Level(), win[len(win)-1].Level())
	if !ok {
		return d.invalid()
	}
	raw := -change
	return d.absent().WithValue(raw, features.ClampUnit(raw*d.scale))
}
