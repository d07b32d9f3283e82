package analytics

import (
	"testing"
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/domain/service"
	"PulseForge/internal/services/timeseries"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)

func predictionInput(s *timeseries.Store, asOf time.Time, signals []models.SignalValue, scores []float64) service.PredictionInput {
	return service.PredictionInput{
		Series:  s,
		AsOf:    asOf,
		Now:     testNow,
		Signals: signals,
		Regimes: models.Regimes{
			Volatility:    models.VolatilityHigh,
			Trend:         models.Uptrend,
			PulseMomentum: models.DirectionFlat,
		},
		Scores: scores,
	}
}

func TestPredictor_AllTargets(t *testing.T) {
	s := timeseries.NewStore()
	seed(t, s, "SPY", repeat(100, 20)...)
	seed(t, s, "VIX", repeat(20, 20)...)

	got := NewPredictor(models.DefaultEngineConfig()).Predict(predictionInput(s, day(19), present(0.6, 0.5, -0.6, 0, 0), []float64{50, 51}))
	require.Len(t, got, 3)

	assert.Equal(t, models.TargetTrendRegime, got[0].Name)
	assert.Equal(t, models.DirectionUp, got[0].Direction)
	assert.Equal(t, 10, got[0].HorizonDays)
	assert.Contains(t, got[0].Rationale, "SPY 100.00 vs 20-day SMA 100.00")
	assert.Contains(t, got[0].Rationale, "Top signals: Trend (+0.15), Volatility (-0.15).")

	assert.Equal(t, models.TargetVolatilityRegime, got[1].Name)
	assert.Equal(t, models.DirectionDown, got[1].Direction)
	assert.Equal(t, 5, got[1].HorizonDays)
	assert.Contains(t, got[1].Rationale, "VIX 20.0 vs 20-day average 20.0 (High).")

	assert.Equal(t, models.TargetPulseMomentum, got[2].Name)
	assert.Equal(t, models.DirectionFlat, got[2].Direction)
	assert.Equal(t, 4, got[2].HorizonDays)
	assert.Contains(t, got[2].Rationale, "2-day avg pulse 50.5, trend +1.0. Mixed signals, chop zone.")

	for _, p := range got {
		assert.GreaterOrEqual(t, p.Confidence, 0.5)
		assert.LessOrEqual(t, p.Confidence, 1.0)
		assert.Equal(t, testNow, p.Timestamp)
	}
}

func TestPredictor_OmitsTargetsWithoutData(t *testing.T) {
	spyOnly := timeseries.NewStore()
	seed(t, spyOnly, "SPY", 100, 101)
	got := NewPredictor(models.DefaultEngineConfig()).Predict(predictionInput(spyOnly, day(1), absentAll(), []float64{50}))
	require.Len(t, got, 2)
	assert.Equal(t, models.TargetTrendRegime, got[0].Name)
	assert.Equal(t, models.TargetPulseMomentum, got[1].Name)
	assert.Contains(t, got[0].Rationale, "20-day SMA not yet available")

	vixOnly := timeseries.NewStore()
	seed(t, vixOnly, "VIX", 12)
	got = NewPredictor(models.DefaultEngineConfig()).Predict(predictionInput(vixOnly, day(0), absentAll(), []float64{50}))
	require.Len(t, got, 1)
	assert.Equal(t, models.TargetVolatilityRegime, got[0].Name)

	assert.Empty(t, NewPredictor(models.DefaultEngineConfig()).Predict(predictionInput(timeseries.NewStore(), day(0), absentAll(), nil)))
}

func TestPredictor_OmitsTargetsWithOnlyLaterData(t *testing.T) {
	s := timeseries.NewStore()
	seed(t, s, "SPY", repeat(100, 20)...)
	seed(t, s, "VIX", repeat(20, 20)...)

	got := NewPredictor(models.DefaultEngineConfig()).Predict(predictionInput(s, day(-1), absentAll(), []float64{50}))
	assert.Empty(t, got)
}

func TestPredictor_Confidence(t *testing.T) {
	p := NewPredictor(models.DefaultEngineConfig())
	tests := []struct {
		name    string
		signals []models.SignalValue
		dir     models.Direction
		want    float64
	}{
		{"unanimous up", present(1, 1, 1, 1, 1), models.DirectionUp, 1},
		{"trend momentum volatility agree", present(1, 1, 1, -1, -1), models.DirectionUp, 0.7},
		{"minority floored", present(1, 1, -1, -1, -1), models.DirectionUp, 0.5},
		{"down", present(-1, -1, -1, 1, 1), models.DirectionDown, 0.7},
		{"flat inside band", present(0.1, -0.1, 0, 0.5, 0.5), models.DirectionFlat, 0.7},
		{"absent never agrees", absentAll(), models.DirectionFlat, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, p.Confidence(tt.signals, tt.dir), 1e-9)
		})
	}
}
