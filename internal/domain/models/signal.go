package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWeights is fatal: a composite built on malformed weights is not published.
var ErrInvalidWeights = errors.New("invalid signal weights")

// SignalName identifies one of the five pulse sub-signals.
type SignalName string

const (
	SignalTrend        SignalName = "trend"
	SignalMomentum     SignalName = "momentum"
	SignalVolatility   SignalName = "volatility"
	SignalVIXDirection SignalName = "vix_direction"
	SignalBreadth      SignalName = "breadth"
)

// SignalOrder is the fixed evaluation and tie-break order of the sub-signals.
var SignalOrder = []SignalName{
	SignalTrend,
	SignalMomentum,
	SignalVolatility,
	SignalVIXDirection,
	SignalBreadth,
}

// Label returns the display name used in descriptions and rationales.
func (n SignalName) Label() string {
	switch n {
	case SignalTrend:
		return "Trend"
	case SignalMomentum:
		return "Momentum"
	case SignalVolatility:
		return "Volatility"
	case SignalVIXDirection:
		return "VIX Direction"
	case SignalBreadth:
		return "Breadth"
	default:
		return string(n)
	}
}

// SignalStatus distinguishes "no data" from "value is zero".
type SignalStatus string

const (
	StatusPresent SignalStatus = "present"
	StatusAbsent  SignalStatus = "absent" // insufficient history, contributes neutral 0
	StatusInvalid SignalStatus = "invalid"
)

// SignalValue is one computed sub-signal for one day.
type SignalValue struct {
	Name       SignalName   `json:"name"`
	Raw        float64      `json:"raw_value"`
	Normalized float64      `json:"normalized_value"`
	Weight     float64      `json:"weight"`
	Status     SignalStatus `json:"status"`
}

// NewAbsentSignal returns the neutral value used when history is insufficient.
func NewAbsentSignal(name SignalName, weight float64) SignalValue {
	return SignalValue{Name: name, Weight: weight, Status: StatusAbsent}
}

// WithValue marks the signal present with the given raw and normalized values.
func (s SignalValue) WithValue(raw, normalized float64) SignalValue {
	s.Raw = raw
	s.Normalized = normalized
	s.Status = StatusPresent
	return s
}

// Present reports whether the signal had enough data to be computed.
func (s SignalValue) Present() bool { return s.Status == StatusPresent }

// Contribution is the weighted share of the signal in the composite.
func (s SignalValue) Contribution() float64 {
	if !s.Present() {
		return 0
	}
	return s.Weight * s.Normalized
}

// Weights holds the composite weight of each sub-signal.
type Weights struct {
	Trend        float64 `yaml:"trend" default:"0.25"`
	Momentum     float64 `yaml:"momentum" default:"0.20"`
	Volatility   float64 `yaml:"volatility" default:"0.25"`
	VIXDirection float64 `yaml:"vix_direction" default:"0.15"`
	Breadth      float64 `yaml:"breadth" default:"0.15"`
}

const weightsEpsilon = 1e-9

// For returns the weight of a signal.
func (w Weights) For(name SignalName) float64 {
	switch name {
	case SignalTrend:
		return w.Trend
	case SignalMomentum:
		return w.Momentum
	case SignalVolatility:
		return w.Volatility
	case SignalVIXDirection:
		return w.VIXDirection
	case SignalBreadth:
		return w.Breadth
	default:
		return 0
	}
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	var total float64
	for _, n := range SignalOrder {
		total += w.For(n)
	}
	return total
}

// Validate requires non-negative weights summing to 1.
func (w Weights) Validate() error {
	for _, n := range SignalOrder {
		v := w.For(n)
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s weight %v", ErrInvalidWeights, n, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightsEpsilon {
		return fmt.Errorf("%w: weights sum to %v, want 1", ErrInvalidWeights, sum)
	}
	return nil
}
