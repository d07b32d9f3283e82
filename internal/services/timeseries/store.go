// Package timeseries holds per-symbol daily observation history.
package timeseries

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/domain/repository"
)

// ErrUnknownSymbol is returned by lookups on a symbol never added.
var ErrUnknownSymbol = errors.New("unknown symbol")

// OutOfOrderError rejects an observation dated on or before the symbol's last date.
type OutOfOrderError struct {
	Symbol string
	Date   time.Time
	Last   time.Time
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("out of order observation for %s: %s is not after %s",
		e.Symbol, e.Date.Format("2006-01-02"), e.Last.Format("2006-01-02"))
}

// Store is append-only. It is built once per run and then only read;
// it is not safe for concurrent writers.
type Store struct {
	series map[string][]models.Observation
}

var _ repository.SeriesReader = (*Store)(nil)

func NewStore() *Store {
	return &Store{series: make(map[string][]models.Observation)}
}

// Add appends obs to its symbol's history. Dates must be strictly increasing.
func (s *Store) Add(obs models.Observation) error {
	hist := s.series[obs.Symbol]
	if n := len(hist); n > 0 && !obs.Date.After(hist[n-1].Date) {
		return &OutOfOrderError{Symbol: obs.Symbol, Date: obs.Date, Last: hist[n-1].Date}
	}
	s.series[obs.Symbol] = append(hist, obs)
	return nil
}

// Window returns up to n most recent observations, oldest first.
func (s *Store) Window(symbol string, n int) []models.Observation {
	hist := s.series[symbol]
	return tail(hist, len(hist), n)
}

// WindowAsOf is Window restricted to observations dated on or before asOf.
func (s *Store) WindowAsOf(symbol string, asOf time.Time, n int) []models.Observation {
	hist := s.series[symbol]
	end := sort.Search(len(hist), func(i int) bool { return hist[i].Date.After(asOf) })
	return tail(hist, end, n)
}

// Latest returns the most recent observation of symbol.
func (s *Store) Latest(symbol string) (models.Observation, error) {
	hist := s.series[symbol]
	if len(hist) == 0 {
		return models.Observation{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return hist[len(hist)-1], nil
}

// Symbols returns the known symbols in ascending order.
func (s *Store) Symbols() []string {
	out := make([]string, 0, len(s.series))
	for sym := range s.series {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Len returns the history length of symbol, 0 when unknown.
func (s *Store) Len(symbol string) int { return len(s.series[symbol]) }

// Dates returns every date of symbol on or before asOf, oldest first.
func (s *Store) Dates(symbol string, asOf time.Time) []time.Time {
	win := s.WindowAsOf(symbol, asOf, s.Len(symbol))
	out := make([]time.Time, len(win))
	for i, o := range win {
		out[i] = o.Date
	}
	return out
}

func tail(hist []models.Observation, end, n int) []models.Observation {
	if n <= 0 || end <= 0 {
		return []models.Observation{}
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	out := make([]models.Observation, end-start)
	copy(out, hist[start:end])
	return out
}
