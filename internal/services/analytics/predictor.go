package analytics

import (
	"fmt"
	"math"
	"strings"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/domain/service"
	"PulseForge/internal/services/features"
)

// Prediction horizons in trading days.
const (
	trendHorizonDays      = 10
	volatilityHorizonDays = 5
	pulseHorizonDays      = 4

	minConfidence = 0.5
)

// Predictor issues rule-based calls for the three forecast targets.
type Predictor struct {
	cfg models.EngineConfig
}

var _ service.PredictionGenerator = (*Predictor)(nil)

func NewPredictor(cfg models.EngineConfig) *Predictor {
	return &Predictor{cfg: cfg}
}

// Predict omits any target whose underlying symbol has no observation on or before the run date.
func (p *Predictor) Predict(in service.PredictionInput) []models.Prediction {
	out := make([]models.Prediction, 0, 3)
	hasBenchmark := p.observed(in, p.cfg.BenchmarkSymbol)
	hasVIX := p.observed(in, p.cfg.VIXSymbol)

	if hasBenchmark {
		dir := in.Regimes.Trend.Direction()
		out = append(out, p.prediction(in, models.TargetTrendRegime, dir, trendHorizonDays, p.trendFigures(in)))
	}
	if hasVIX {
		dir := in.Regimes.Volatility.Direction()
		out = append(out, p.prediction(in, models.TargetVolatilityRegime, dir, volatilityHorizonDays, p.volatilityFigures(in)))
	}
	if hasBenchmark && len(in.Scores) > 0 {
		dir := in.Regimes.PulseMomentum
		out = append(out, p.prediction(in, models.TargetPulseMomentum, dir, pulseHorizonDays, p.pulseFigures(in)))
	}
	return out
}

func (p *Predictor) observed(in service.PredictionInput, symbol string) bool {
	return len(in.Series.WindowAsOf(symbol, in.AsOf, 1)) > 0
}

func (p *Predictor) prediction(in service.PredictionInput, name string, dir models.Direction, horizon int, figures string) models.Prediction {
	rationale := figures
	if top := topDrivers(in.Signals); top != "" {
		rationale += " Top signals: " + top + "."
	}
	return models.Prediction{
		Name:        name,
		Direction:   dir,
		Confidence:  p.Confidence(in.Signals, dir),
		HorizonDays: horizon,
		Rationale:   rationale,
		Timestamp:   in.Now,
	}
}

// Confidence is the weighted share of present signals agreeing with dir, floored at 0.5.
func (p *Predictor) Confidence(signals []models.SignalValue, dir models.Direction) float64 {
	var agree, total float64
	for _, s := range signals {
		total += s.Weight
		if s.Present() && p.agrees(s.Normalized, dir) {
			agree += s.Weight
		}
	}
	if total <= 0 {
		return minConfidence
	}
	return features.Round(math.Max(minConfidence, math.Min(1, agree/total)), 2)
}

func (p *Predictor) agrees(n float64, dir models.Direction) bool {
	switch dir {
	case models.DirectionUp:
		return n > 0
	case models.DirectionDown:
		return n < 0
	default:
		return math.Abs(n) < p.cfg.NeutralBand
	}
}

func topDrivers(signals []models.SignalValue) string {
	var parts []string
	for _, s := range Dominant(signals) {
		if len(parts) == 2 || s.Contribution() == 0 {
			break
		}
		parts = append(parts, fmt.Sprintf("%s (%+.2f)", s.Name.Label(), s.Contribution()))
	}
	return strings.Join(parts, ", ")
}

func (p *Predictor) trendFigures(in service.PredictionInput) string {
	win := in.Series.WindowAsOf(p.cfg.BenchmarkSymbol, in.AsOf, p.cfg.TrendWindow)
	closes := features.Closes(win)
	last := closes[len(closes)-1]
	sma, ok := features.SMA(closes, p.cfg.TrendWindow)
	if !ok {
		return fmt.Sprintf("%s %.2f, %d-day SMA not yet available (%s).",
			p.cfg.BenchmarkSymbol, last, p.cfg.TrendWindow, in.Regimes.Trend)
	}
	return fmt.Sprintf("%s %.2f vs %d-day SMA %.2f (%s).",
		p.cfg.BenchmarkSymbol, last, p.cfg.TrendWindow, sma, in.Regimes.Trend)
}

func (p *Predictor) volatilityFigures(in service.PredictionInput) string {
	win := in.Series.WindowAsOf(p.cfg.VIXSymbol, in.AsOf, p.cfg.VolRegimeWindow)
	levels := features.Levels(win)
	last := levels[len(levels)-1]
	sma, ok := features.SMA(levels, p.cfg.VolRegimeWindow)
	if !ok {
		return fmt.Sprintf("%s %.1f, %d-day average not yet available (%s).",
			p.cfg.VIXSymbol, last, p.cfg.VolRegimeWindow, in.Regimes.Volatility)
	}
	return fmt.Sprintf("%s %.1f vs %d-day average %.1f (%s).",
		p.cfg.VIXSymbol, last, p.cfg.VolRegimeWindow, sma, in.Regimes.Volatility)
}

func (p *Predictor) pulseFigures(in service.PredictionInput) string {
	recent := in.Scores
	if n := p.cfg.PulseMomentumWindow; len(recent) > n {
		recent = recent[len(recent)-n:]
	}
	avg := features.Mean(recent)
	trend := recent[len(recent)-1] - recent[0]
	return fmt.Sprintf("%d-day avg pulse %.1f, trend %+.1f. %s", len(recent), avg, trend, pulseNote(avg, trend))
}

func pulseNote(avg, trend float64) string {
	switch {
	case avg > 65 && trend > 0:
		return "Momentum accelerating into greed zone."
	case avg < 35 && trend < 0:
		return "Momentum deteriorating into fear zone."
	case avg > 60:
		return "Positive pulse but watch for exhaustion."
	case avg < 40:
		return "Negative pulse, look for reversal signals."
	default:
		return "Mixed signals, chop zone."
	}
}
