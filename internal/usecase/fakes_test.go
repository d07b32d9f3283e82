package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"PulseForge/internal/domain/models"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

var zeroTime time.Time

var testNow = time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC)

func series(sym string, n int, start, step, volume float64) []models.Observation {
	out := make([]models.Observation, n)
	for i := range out {
		out[i] = models.Observation{Symbol: sym, Date: day(i), Close: start + float64(i)*step, Volume: volume}
	}
	return out
}

func vixSeries(n int, start, step float64) []models.VolatilityPoint {
	out := make([]models.VolatilityPoint, n)
	for i := range out {
		out[i] = models.VolatilityPoint{Date: day(i), Value: start + float64(i)*step}
	}
	return out
}

func fullInput() models.Input {
	var obs []models.Observation
	obs = append(obs, series("SPY", 60, 400, 1, 1e6)...)
	obs = append(obs, series("QQQ", 60, 300, 2, 5e5)...)
	obs = append(obs, series("IWM", 60, 200, -0.5, 2e5)...)
	return models.Input{Observations: obs, VIX: vixSeries(60, 20, -0.1)}
}

type fakeSource struct {
	mu    sync.Mutex
	data  map[string][]models.Observation // by ticker
	fail  map[string]error
	calls []string
}

func (f *fakeSource) LoadRange(_ context.Context, inst models.Instrument, from, to time.Time) ([]models.Observation, error) {
	f.mu.Lock()
	f.calls = append(f.calls, inst.SourceTicker())
	f.mu.Unlock()
	if err := f.fail[inst.SourceTicker()]; err != nil {
		return nil, err
	}
	var out []models.Observation
	for _, o := range f.data[inst.SourceTicker()] {
		if o.Date.Before(from) || o.Date.After(to) {
			continue
		}
		o.Symbol = inst.Symbol
		out = append(out, o)
	}
	return out, nil
}

type fakeQuotes struct {
	quotes map[string]models.Quote
}

func (f *fakeQuotes) Quote(_ context.Context, inst models.Instrument) (models.Quote, error) {
	q, ok := f.quotes[inst.Symbol]
	if !ok {
		return models.Quote{}, errors.New("no quote")
	}
	return q, nil
}

type fakeArchive struct {
	stored []models.Observation
	err    error
}

func (f *fakeArchive) Init(context.Context) error   { return nil }
func (f *fakeArchive) Health(context.Context) error { return nil }
func (f *fakeArchive) Close() error                 { return nil }
func (f *fakeArchive) StoreBatch(_ context.Context, obs []models.Observation) error {
	f.stored = append(f.stored, obs...)
	return f.err
}

type memSink struct {
	name    string
	written map[string][]byte
	err     error
}

func newMemSink(name string) *memSink { return &memSink{name: name, written: make(map[string][]byte)} }

func (s *memSink) Name() string { return s.name }

func (s *memSink) Write(_ context.Context, a models.Artifact) error {
	if s.err != nil {
		return s.err
	}
	s.written[a.Name] = append([]byte(nil), a.Body...)
	return nil
}

type fakeMetrics struct {
	mu       sync.Mutex
	runs     []string
	degraded []string
	errors   []string
	scores   []float64
}

func (m *fakeMetrics) RecordRun(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, result)
}

func (m *fakeMetrics) RecordDegradedSignal(signal string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degraded = append(m.degraded, signal)
}

func (m *fakeMetrics) RecordScore(score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, score)
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}
