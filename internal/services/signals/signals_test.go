package signals

import (
	"testing"
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/services/timeseries"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func seed(t *testing.T, s *timeseries.Store, sym string, closes ...float64) {
	t.Helper()
	for i, c := range closes {
		require.NoError(t, s.Add(models.Observation{Symbol: sym, Date: day(i), Close: c, Volume: 1000}))
	}
}

func ramp(from float64, n int, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

func TestTrend_RisingSeries(t *testing.T) {
	s := timeseries.NewStore()
	seed(t, s, "SPY", ramp(100, 20, 1)...) // 100..119

	v := NewTrend(models.DefaultEngineConfig()).Compute(s, day(19))
	require.Equal(t, models.StatusPresent, v.Status)
	assert.InDelta(t, (119-109.5)/109.5, v.Raw, 1e-9)
	assert.Greater(t, v.Normalized, 0.3)
	assert.LessOrEqual(t, v.Normalized, 1.0)
}

func TestTrend_InsufficientHistoryIsAbsent(t *testing.T) {
	s := timeseries.NewStore()
	seed(t, s, "SPY", ramp(100, 19, 1)...)

	v := NewTrend(models.DefaultEngineConfig()).Compute(s, day(18))
	assert.Equal(t, models.StatusAbsent, v.Status)
	assert.Zero(t, v.Normalized)
	assert.Zero(t, v.Contribution())
}

func TestTrend_MonotoneInLatestClose(t *testing.T) {
	cfg := models.DefaultEngineConfig()
	cfg.TrendScale = 1
	prev := -2.0
	for _, last := range []float64{90, 95, 100, 105, 110} {
		s := timeseries.NewStore()
		closes := append(ramp(100, 19, 0), last)
		seed(t, s, "SPY", closes...)
		v := NewTrend(cfg).Compute(s, day(19))
		assert.GreaterOrEqual(t, v.Normalized, prev)
		prev = v.Normalized
	}
}

func TestMomentum(t *testing.T) {
	s := timeseries.NewStore()
	closes := append(ramp(100, 10, 0), 101) // t-10 = 100, t = 101
	seed(t, s, "SPY", closes...)

	v := NewMomentum(models.DefaultEngineConfig()).Compute(s, day(10))
	require.True(t, v.Present())
	assert.InDelta(t, 0.01, v.Raw, 1e-12)
	assert.InDelta(t, 0.16, v.Normalized, 1e-9)

	short := NewMomentum(models.DefaultEngineConfig()).Compute(s, day(9))
	assert.Equal(t, models.StatusAbsent, short.Status)
}

func TestMomentum_ZeroBaseIsInvalid(t *testing.T) {
	s := timeseries.NewStore()
	seed(t, s, "SPY", append([]float64{0}, ramp(100, 10, 1)...)...)

	v := NewMomentum(models.DefaultEngineConfig()).Compute(s, day(10))
	assert.Equal(t, models.StatusInvalid, v.Status)
	assert.Zero(t, v.Contribution())
}

func TestVolatility_Mapping(t *testing.T) {
	tests := []struct {
		vix  float64
		want float64
	}{
		{12, 1},
		{35, -1},
		{23.5, 0},
		{8, 1},
		{60, -1},
	}
	for _, tt := range tests {
		s := timeseries.NewStore()
		seed(t, s, "VIX", tt.vix)
		v := NewVolatility(models.DefaultEngineConfig()).Compute(s, day(0))
		require.True(t, v.Present())
		assert.InDelta(t, tt.want, v.Normalized, 1e-9, "vix %v", tt.vix)
	}
}

func TestVolatility_StrictlyDecreasingBetweenCalmAndStressed(t *testing.T) {
	calc := NewVolatility(models.DefaultEngineConfig())
	prev := 2.0
	for vix := 12.0; vix <= 35.0; vix += 0.25 {
		s := timeseries.NewStore()
		seed(t, s, "VIX", vix)
		v := calc.Compute(s, day(0))
		require.True(t, v.Present())
		assert.Less(t, v.Normalized, prev, "vix %v", vix)
		prev = v.Normalized
	}
}

func TestVolatility_UsesImpliedVolatilityWhenRecorded(t *testing.T) {
	s := timeseries.NewStore()
	iv := 12.0
	require.NoError(t, s.Add(models.Observation{Symbol: "VIX", Date: day(0), Close: 35, ImpliedVolatility: &iv}))

	v := NewVolatility(models.DefaultEngineConfig()).Compute(s, day(0))
	assert.InDelta(t, 1.0, v.Normalized, 1e-9)
}

func TestVolatility_NoVIXIsAbsent(t *testing.T) {
	v := NewVolatility(models.DefaultEngineConfig()).Compute(timeseries.NewStore(), day(0))
	assert.Equal(t, models.StatusAbsent, v.Status)
}

func TestVIXDirection_RisingVIXIsNegative(t *testing.T) {
	s := timeseries.NewStore()
	seed(t, s, "VIX", 15, 17, 19, 21, 23, 25)

	v := NewVIXDirection(models.DefaultEngineConfig()).Compute(s, day(5))
	require.True(t, v.Present())
	assert.InDelta(t, -10.0/15.0, v.Raw, 1e-12)
	assert.Less(t, v.Normalized, 0.0)

	short := NewVIXDirection(models.DefaultEngineConfig()).Compute(s, day(4))
	assert.Equal(t, models.StatusAbsent, short.Status)
}

func TestBreadth_VolumeWeighted(t *testing.T) {
	s := timeseries.NewStore()
	add := func(sym string, d int, c, vol float64) {
		require.NoError(t, s.Add(models.Observation{Symbol: sym, Date: day(d), Close: c, Volume: vol}))
	}
	add("AAA", 0, 10, 100)
	add("AAA", 1, 11, 100) // up, 100
	add("BBB", 0, 10, 300)
	add("BBB", 1, 9, 300) // down, 300
	add("CCC", 0, 10, 999) // no observation on asOf
	add("VIX", 0, 20, 0)
	add("VIX", 1, 25, 5000)

	v := NewBreadth(models.DefaultEngineConfig()).Compute(s, day(1))
	require.True(t, v.Present())
	assert.InDelta(t, -0.5, v.Normalized, 1e-12)
}

func TestBreadth_ExplicitUniverse(t *testing.T) {
	s := timeseries.NewStore()
	seed(t, s, "AAA", 10, 11)
	seed(t, s, "BBB", 10, 9)

	cfg := models.DefaultEngineConfig()
	cfg.Universe = []string{"AAA"}
	v := NewBreadth(cfg).Compute(s, day(1))
	assert.InDelta(t, 1.0, v.Normalized, 1e-12)
}

func TestBreadth_EmptyOrZeroVolumeIsAbsent(t *testing.T) {
	cfg := models.DefaultEngineConfig()
	assert.Equal(t, models.StatusAbsent, NewBreadth(cfg).Compute(timeseries.NewStore(), day(1)).Status)

	s := timeseries.NewStore()
	require.NoError(t, s.Add(models.Observation{Symbol: "AAA", Date: day(0), Close: 10}))
	require.NoError(t, s.Add(models.Observation{Symbol: "AAA", Date: day(1), Close: 11}))
	assert.Equal(t, models.StatusAbsent, NewBreadth(cfg).Compute(s, day(1)).Status)
}

func TestSet_NoLookAhead(t *testing.T) {
	past := timeseries.NewStore()
	full := timeseries.NewStore()
	closes := ramp(100, 30, 1)
	vix := ramp(20, 30, -0.2)
	seed(t, past, "SPY", closes[:25]...)
	seed(t, past, "VIX", vix[:25]...)
	seed(t, full, "SPY", append(closes[:25], ramp(10, 5, -1)...)...)
	seed(t, full, "VIX", append(vix[:25], ramp(80, 5, 1)...)...)

	set := NewSet(models.DefaultEngineConfig())
	assert.Equal(t, set.Compute(past, day(24)), set.Compute(full, day(24)))
}

func TestSet_FixedOrder(t *testing.T) {
	got := NewSet(models.DefaultEngineConfig()).Compute(timeseries.NewStore(), day(0))
	require.Len(t, got, len(models.SignalOrder))
	for i, name := range models.SignalOrder {
		assert.Equal(t, name, got[i].Name)
		assert.Equal(t, models.StatusAbsent, got[i].Status)
	}

	v, ok := Find(got, models.SignalBreadth)
	require.True(t, ok)
	assert.InDelta(t, 0.15, v.Weight, 1e-12)
}
