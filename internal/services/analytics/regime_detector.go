package analytics

import (
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/domain/repository"
	"PulseForge/internal/services/features"
	"PulseForge/internal/services/signals"
)

// RegimeDetector classifies volatility, trend and pulse momentum. It keeps no state
// between calls.
type RegimeDetector struct {
	cfg models.EngineConfig
}

func NewRegimeDetector(cfg models.EngineConfig) *RegimeDetector {
	return &RegimeDetector{cfg: cfg}
}

// Volatility compares the VIX on asOf with its trailing average, today included.
// An unfilled window is Normal.
func (d *RegimeDetector) Volatility(series repository.SeriesReader, asOf time.Time) models.VolatilityRegime {
	win := series.WindowAsOf(d.cfg.VIXSymbol, asOf, d.cfg.VolRegimeWindow)
	if len(win) < d.cfg.VolRegimeWindow {
		return models.VolatilityNormal
	}
	levels := features.Levels(win)
	sma, ok := features.SMA(levels, d.cfg.VolRegimeWindow)
	if !ok || sma <= 0 {
		return models.VolatilityNormal
	}
	switch level := levels[len(levels)-1]; {
	case level < d.cfg.VolRegimeLow*sma:
		return models.VolatilityLow
	case level > d.cfg.VolRegimeHigh*sma:
		return models.VolatilityHigh
	default:
		return models.VolatilityNormal
	}
}

// Trend bands the normalized trend signal.
func (d *RegimeDetector) Trend(trend models.SignalValue) models.TrendRegime {
	switch {
	case trend.Normalized > d.cfg.TrendRegimeBand:
		return models.Uptrend
	case trend.Normalized < -d.cfg.TrendRegimeBand:
		return models.Downtrend
	default:
		return models.Sideways
	}
}

// PulseMomentum reads the direction of the most recent pulse scores.
func (d *RegimeDetector) PulseMomentum(scores []float64) models.Direction {
	if len(scores) == 0 {
		return models.DirectionFlat
	}
	recent := scores
	if n := d.cfg.PulseMomentumWindow; len(recent) > n {
		recent = recent[len(recent)-n:]
	}
	avg := features.Mean(recent)
	trend := recent[len(recent)-1] - recent[0]
	switch {
	case avg > 65 && trend > 0:
		return models.DirectionUp
	case avg < 35 && trend < 0:
		return models.DirectionDown
	case avg > 60:
		return models.DirectionUp
	case avg < 40:
		return models.DirectionDown
	default:
		return models.DirectionFlat
	}
}

// Detect classifies all regimes for asOf.
func (d *RegimeDetector) Detect(series repository.SeriesReader, asOf time.Time, values []models.SignalValue, scores []float64) models.Regimes {
	trend, _ := signals.Find(values, models.SignalTrend)
	return models.Regimes{
		Volatility:    d.Volatility(series, asOf),
		Trend:         d.Trend(trend),
		PulseMomentum: d.PulseMomentum(scores),
	}
}
