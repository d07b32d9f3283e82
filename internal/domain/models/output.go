package models

import "time"

// Output is everything one engine run produces, before encoding.
type Output struct {
	AsOf        time.Time
	Pulse       []PulseRecord
	Current     *PulseRecord // nil when no day could be scored
	Signals     []SignalValue
	Volatility  []VolatilityRecord
	Regimes     Regimes
	Predictions []Prediction
	Macro       []MacroNote
	Quotes      map[string]Quote
	Closes      map[string][]float64 // trailing closes by symbol, oldest first
}
