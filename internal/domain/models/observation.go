package models

import (
	"errors"
	"time"
)

// ErrInvalidObservation marks a raw record rejected at the ingestion boundary.
var ErrInvalidObservation = errors.New("invalid observation")

// Observation is one trading day of data for one symbol.
// Dates are calendar days normalized to UTC midnight.
type Observation struct {
	Symbol            string    `json:"symbol" validate:"required"`
	Date              time.Time `json:"date" validate:"required"`
	Close             float64   `json:"close" validate:"gte=0"`
	Volume            float64   `json:"volume" validate:"gte=0"`
	ImpliedVolatility *float64  `json:"implied_volatility" validate:"omitempty,gte=0"`
}

// Level returns the implied volatility when recorded, otherwise the close.
// Volatility indices (VIX) carry their level in either field.
func (o Observation) Level() float64 {
	if o.ImpliedVolatility != nil {
		return *o.ImpliedVolatility
	}
	return o.Close
}

// VolatilityPoint is one day of a VIX-like volatility index.
type VolatilityPoint struct {
	Date  time.Time `json:"date" validate:"required"`
	Value float64   `json:"value" validate:"gt=0"`
}

// Input is the already-materialized dataset handed to the engine by the fetch step.
type Input struct {
	Observations []Observation
	VIX          []VolatilityPoint
}

// Quote summarizes the latest observation of a symbol relative to the previous one.
type Quote struct {
	Symbol    string
	Date      time.Time
	Price     float64
	Volume    float64
	ChangePct *float64 // nil without a previous close
}

// Instrument pairs the symbol used inside the engine with the upstream ticker.
type Instrument struct {
	Symbol string `yaml:"symbol" validate:"required"`
	Ticker string `yaml:"ticker"` // empty means Symbol
	Name   string `yaml:"name"`   // display name, sectors only
}

// SourceTicker returns the upstream ticker.
func (i Instrument) SourceTicker() string {
	if i.Ticker != "" {
		return i.Ticker
	}
	return i.Symbol
}
