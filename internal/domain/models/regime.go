package models

// VolatilityRegime classifies the VIX relative to its own trailing average.
type VolatilityRegime string

const (
	VolatilityLow    VolatilityRegime = "Low"
	VolatilityNormal VolatilityRegime = "Normal"
	VolatilityHigh   VolatilityRegime = "High"
)

// TrendRegime classifies the benchmark trend signal.
type TrendRegime string

const (
	Uptrend   TrendRegime = "Uptrend"
	Downtrend TrendRegime = "Downtrend"
	Sideways  TrendRegime = "Sideways"
)

// Direction is the forecast direction of a prediction target.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Direction maps the trend regime onto a forecast direction.
func (r TrendRegime) Direction() Direction {
	switch r {
	case Uptrend:
		return DirectionUp
	case Downtrend:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

// Direction maps the volatility regime onto a market direction: calm favors up.
func (r VolatilityRegime) Direction() Direction {
	switch r {
	case VolatilityLow:
		return DirectionUp
	case VolatilityHigh:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

// Regimes bundles the classifications of one day.
type Regimes struct {
	Volatility    VolatilityRegime
	Trend         TrendRegime
	PulseMomentum Direction
}
