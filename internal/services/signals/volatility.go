package signals

import (
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/domain/repository"
	"PulseForge/internal/domain/service"
	"PulseForge/internal/services/features"
)

// Volatility maps the VIX level linearly from calm (+1) to stressed (-1).
type Volatility struct {
	base
	symbol   string
	calm     float64
	stressed float64
}

var _ service.SignalCalculator = (*Volatility)(nil)

func NewVolatility(cfg models.EngineConfig) *Volatility {
	return &Volatility{
		base:     base{name: models.SignalVolatility, weight: cfg.Weights.Volatility},
		symbol:   cfg.VIXSymbol,
		calm:     cfg.VIXCalm,
		stressed: cfg.VIXStressed,
	}
}

func (v *Volatility) Compute(series repository.SeriesReader, asOf time.Time) models.SignalValue {
	win := series.WindowAsOf(v.symbol, asOf, 1)
	if len(win) == 0 {
		return v.absent()
	}
	level := win[0].Level()
	if level <= 0 {
		return v.invalid()
	}
	n := 1 - 2*(level-v.calm)/(v.stressed-v.calm)
	return v.absent().WithValue(level, features.ClampUnit(n))
}
