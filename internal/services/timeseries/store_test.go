package timeseries

import (
	"errors"
	"testing"
	"time"

	"PulseForge/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func obs(sym string, d int, px float64) models.Observation {
	return models.Observation{Symbol: sym, Date: day(d), Close: px, Volume: 1000}
}

func TestStore_AddRejectsOutOfOrder(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(obs("SPY", 1, 100)))
	require.NoError(t, s.Add(obs("SPY", 3, 101)))

	err := s.Add(obs("SPY", 2, 99))
	var ooo *OutOfOrderError
	require.True(t, errors.As(err, &ooo))
	assert.Equal(t, "SPY", ooo.Symbol)
	assert.Equal(t, day(3), ooo.Last)

	// duplicate date is also out of order
	assert.Error(t, s.Add(obs("SPY", 3, 102)))
	assert.Equal(t, 2, s.Len("SPY"))
}

func TestStore_GapsAreTolerated(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(obs("SPY", 1, 100)))
	require.NoError(t, s.Add(obs("SPY", 10, 101)))
	assert.Equal(t, 2, s.Len("SPY"))
}

func TestStore_Window(t *testing.T) {
	s := NewStore()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Add(obs("SPY", i, float64(100+i))))
	}

	win := s.Window("SPY", 3)
	require.Len(t, win, 3)
	assert.Equal(t, 102.0, win[0].Close)
	assert.Equal(t, 104.0, win[2].Close)

	assert.Len(t, s.Window("SPY", 50), 5)
	assert.Empty(t, s.Window("SPY", 0))
	assert.Empty(t, s.Window("QQQ", 3))
}

func TestStore_WindowAsOfExcludesFuture(t *testing.T) {
	s := NewStore()
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Add(obs("SPY", i, float64(100+i))))
	}

	win := s.WindowAsOf("SPY", day(4), 3)
	require.Len(t, win, 3)
	assert.Equal(t, day(4), win[2].Date)
	for _, o := range win {
		assert.False(t, o.Date.After(day(4)))
	}

	// asOf between observations
	s2 := NewStore()
	require.NoError(t, s2.Add(obs("SPY", 1, 1)))
	require.NoError(t, s2.Add(obs("SPY", 5, 5)))
	win = s2.WindowAsOf("SPY", day(3), 10)
	require.Len(t, win, 1)
	assert.Equal(t, day(1), win[0].Date)

	assert.Empty(t, s2.WindowAsOf("SPY", day(0), 10))
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(obs("SPY", 1, 100)))

	win := s.Window("SPY", 1)
	win[0].Close = -1

	latest, err := s.Latest("SPY")
	require.NoError(t, err)
	assert.Equal(t, 100.0, latest.Close)
}

func TestStore_LatestUnknownSymbol(t *testing.T) {
	_, err := NewStore().Latest("VIX")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestStore_SymbolsSortedAndDates(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(obs("VIX", 1, 15)))
	require.NoError(t, s.Add(obs("AAPL", 1, 180)))
	require.NoError(t, s.Add(obs("SPY", 1, 470)))
	require.NoError(t, s.Add(obs("SPY", 2, 471)))

	assert.Equal(t, []string{"AAPL", "SPY", "VIX"}, s.Symbols())
	assert.Equal(t, []time.Time{day(1)}, s.Dates("SPY", day(1)))
	assert.Len(t, s.Dates("SPY", day(9)), 2)
}
