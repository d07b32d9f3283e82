package features

import (
	"math"

	"PulseForge/internal/domain/models"

	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Clamp bounds v to [lo, hi]. NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampUnit bounds v to [-1, 1].
func ClampUnit(v float64) float64 { return Clamp(v, -1, 1) }

// Sign returns -1, 0 or +1.
func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Closes extracts close prices, oldest first.
func Closes(obs []models.Observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Close
	}
	return out
}

// Levels extracts volatility levels (implied volatility or close), oldest first.
func Levels(obs []models.Observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Level()
	}
	return out
}

// SMA returns the simple moving average of the last period values.
// ok is false when fewer than period values are available.
func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	sma := talib.Sma(values[len(values)-period:], period)
	v := sma[len(sma)-1]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// SMASeries returns the moving average aligned with values. Entries before the
// window fills are nil.
func SMASeries(values []float64, period int) []*float64 {
	out := make([]*float64, len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sma := talib.Sma(values, period)
	for i := period - 1; i < len(values); i++ {
		v := sma[i]
		out[i] = &v
	}
	return out
}

// Mean is the arithmetic mean; 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// PctChange returns (cur - prev) / prev; ok is false when prev is not positive.
func PctChange(prev, cur float64) (float64, bool) {
	if prev <= 0 {
		return 0, false
	}
	return (cur - prev) / prev, true
}

// Round rounds half away from zero to the given decimal places.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
