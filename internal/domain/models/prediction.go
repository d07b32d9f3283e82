package models

import "time"

// Prediction target names.
const (
	TargetTrendRegime      = "Trend Regime"
	TargetVolatilityRegime = "Volatility Regime"
	TargetPulseMomentum    = "Pulse Momentum"
)

// Prediction is a rules-based directional call, not a calibrated forecast.
type Prediction struct {
	Name        string
	Direction   Direction
	Confidence  float64 // in [0.5, 1]
	HorizonDays int
	Rationale   string
	Timestamp   time.Time
}

// MacroNote is one line of context commentary.
type MacroNote struct {
	Note      string
	Timestamp time.Time
}
