package usecase

import (
	"fmt"
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/domain/service"
	"PulseForge/internal/services/analytics"
	"PulseForge/internal/services/features"
	"PulseForge/internal/services/signals"
	"PulseForge/internal/services/timeseries"
)

// closesHistory is the trailing close count kept per symbol for metrics.json.
const closesHistory = 30

// PulseEngine is one synchronous pass from observations to output records.
// It performs no I/O and reads no clock.
type PulseEngine struct {
	cfg       models.EngineConfig
	ingest    *Ingestor
	signals   *signals.Set
	scorer    service.CompositeScorer
	regimes   *analytics.RegimeDetector
	predictor service.PredictionGenerator
	macro     *analytics.MacroCommentator
}

// NewPulseEngine validates cfg; malformed weights are fatal.
func NewPulseEngine(cfg models.EngineConfig, staticNotes []string) (*PulseEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	return &PulseEngine{
		cfg:       cfg,
		ingest:    NewIngestor(cfg.VIXSymbol),
		signals:   signals.NewSet(cfg),
		scorer:    analytics.NewScorer(),
		regimes:   analytics.NewRegimeDetector(cfg),
		predictor: analytics.NewPredictor(cfg),
		macro:     analytics.NewMacroCommentator(cfg, staticNotes),
	}, nil
}

// Run scores every benchmark day up to the run date and derives regimes,
// predictions and notes for the run date itself.
func (e *PulseEngine) Run(rc RunContext, in models.Input) (*models.Output, error) {
	store, err := e.ingest.Build(in)
	if err != nil {
		return nil, err
	}

	asOf := rc.AsOf
	if asOf.IsZero() {
		asOf = latestDate(store)
	}
	out := &models.Output{
		AsOf:   asOf,
		Quotes: make(map[string]models.Quote),
		Closes: make(map[string][]float64),
	}

	timeline := store.Dates(e.cfg.BenchmarkSymbol, asOf)
	if len(timeline) == 0 {
		timeline = store.Dates(e.cfg.VIXSymbol, asOf)
	}
	scores := make([]float64, 0, len(timeline))
	for _, d := range timeline {
		rec := e.scorer.Score(d, e.signals.Compute(store, d))
		out.Pulse = append(out.Pulse, rec)
		scores = append(scores, rec.Score)
	}
	if n := len(out.Pulse); n > 0 {
		cur := out.Pulse[n-1]
		out.Current = &cur
		out.Signals = cur.Signals
	} else {
		out.Signals = e.signals.Compute(store, asOf)
	}

	out.Regimes = e.regimes.Detect(store, asOf, out.Signals, scores)
	out.Predictions = e.predictor.Predict(service.PredictionInput{
		Series:  store,
		AsOf:    asOf,
		Now:     rc.Now,
		Signals: out.Signals,
		Regimes: out.Regimes,
		Scores:  scores,
	})
	out.Volatility = e.volatility(store, asOf)
	out.Macro = e.macro.Notes(store, asOf, rc.Now)

	for _, sym := range store.Symbols() {
		if q, ok := quoteOf(store, sym, asOf); ok {
			out.Quotes[sym] = q
		}
		if win := store.WindowAsOf(sym, asOf, closesHistory); len(win) > 0 {
			out.Closes[sym] = features.Closes(win)
		}
	}
	return out, nil
}

func (e *PulseEngine) volatility(store *timeseries.Store, asOf time.Time) []models.VolatilityRecord {
	win := store.WindowAsOf(e.cfg.VIXSymbol, asOf, store.Len(e.cfg.VIXSymbol))
	levels := features.Levels(win)
	sma := features.SMASeries(levels, e.cfg.VolRegimeWindow)
	out := make([]models.VolatilityRecord, len(win))
	for i, o := range win {
		out[i] = models.VolatilityRecord{Date: o.Date, Value: levels[i]}
		if sma[i] != nil {
			v := features.Round(*sma[i], 2)
			out[i].SMA = &v
		}
	}
	return out
}

func quoteOf(store *timeseries.Store, sym string, asOf time.Time) (models.Quote, bool) {
	win := store.WindowAsOf(sym, asOf, 2)
	if len(win) == 0 {
		return models.Quote{}, false
	}
	last := win[len(win)-1]
	q := models.Quote{Symbol: sym, Date: last.Date, Price: last.Close, Volume: last.Volume}
	if len(win) == 2 {
		if pct, ok := features.PctChange(win[0].Close, last.Close); ok {
			v := features.Round(pct*100, 2)
			q.ChangePct = &v
		}
	}
	return q, true
}

func latestDate(store *timeseries.Store) time.Time {
	var latest time.Time
	for _, sym := range store.Symbols() {
		if o, err := store.Latest(sym); err == nil && o.Date.After(latest) {
			latest = o.Date
		}
	}
	return latest
}
