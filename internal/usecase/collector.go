package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"PulseForge/internal/domain/models"
	drepo "PulseForge/internal/domain/repository"
	applogger "PulseForge/pkg/logger"
)

// Universe lists what one run fetches.
type Universe struct {
	Benchmark models.Instrument
	VIX       models.Instrument
	History   []models.Instrument // breadth members and macro tickers
	Snapshots []models.Instrument // quoted live for sectors.json and watchlist.json
}

// Instruments returns every history instrument, benchmark and VIX included, deduplicated by symbol.
func (u Universe) Instruments() []models.Instrument {
	seen := make(map[string]bool)
	var out []models.Instrument
	for _, inst := range append([]models.Instrument{u.Benchmark, u.VIX}, u.History...) {
		if inst.Symbol == "" || seen[inst.Symbol] {
			continue
		}
		seen[inst.Symbol] = true
		out = append(out, inst)
	}
	return out
}

// Collection is the materialized result of the fetch step.
type Collection struct {
	Input  models.Input
	Quotes map[string]models.Quote // snapshot quotes by symbol
	Failed []string                // symbols skipped after a fetch error, sorted
}

type CollectorConfig struct {
	LookbackDays int
	Concurrency  int
	Timeout      time.Duration // whole fetch step
}

// Collector fetches history and snapshot quotes with bounded concurrency.
// A failed symbol is logged and skipped; the engine degrades what depends on it.
type Collector struct {
	source  drepo.ObservationSource
	quotes  drepo.QuoteSource        // optional
	archive drepo.ObservationArchive // optional
	univ    Universe
	cfg     CollectorConfig
	log     *applogger.Logger
	metrics drepo.Metrics
}

func NewCollector(
	source drepo.ObservationSource,
	quotes drepo.QuoteSource,
	archive drepo.ObservationArchive,
	univ Universe,
	cfg CollectorConfig,
	log *applogger.Logger,
	metrics drepo.Metrics,
) *Collector {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 120
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Collector{
		source:  source,
		quotes:  quotes,
		archive: archive,
		univ:    univ,
		cfg:     cfg,
		log:     log,
		metrics: metrics,
	}
}

// Collect fetches [end - lookback, end] where end is the run date, or today.
func (c *Collector) Collect(ctx context.Context, rc RunContext) (*Collection, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	end := rc.AsOf
	if end.IsZero() {
		end = rc.Now
	}
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	from := end.AddDate(0, 0, -c.cfg.LookbackDays)

	insts := c.univ.Instruments()
	history := make([][]models.Observation, len(insts))
	errs := pending(len(insts))
	c.fanOut(ctx, len(insts), func(i int) {
		history[i], errs[i] = c.source.LoadRange(ctx, insts[i], from, end)
	})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	col := &Collection{Quotes: make(map[string]models.Quote)}
	var archived []models.Observation
	for i, inst := range insts {
		if errs[i] != nil {
			c.skip(inst, "history", errs[i])
			col.Failed = append(col.Failed, inst.Symbol)
			continue
		}
		archived = append(archived, history[i]...)
		if inst.Symbol == c.univ.VIX.Symbol {
			for _, o := range history[i] {
				col.Input.VIX = append(col.Input.VIX, models.VolatilityPoint{Date: o.Date, Value: o.Close})
			}
			continue
		}
		col.Input.Observations = append(col.Input.Observations, history[i]...)
	}

	c.collectQuotes(ctx, col)
	sort.Strings(col.Failed)

	if c.archive != nil && len(archived) > 0 {
		if err := c.archive.StoreBatch(ctx, archived); err != nil {
			c.metrics.RecordError("archive")
			c.log.Warn("archive observations failed", applogger.Error(err), applogger.Int("count", len(archived)))
		}
	}

	c.log.Info("collect done",
		applogger.String("run_id", rc.RunID.String()),
		applogger.Int("observations", len(col.Input.Observations)),
		applogger.Int("vix_points", len(col.Input.VIX)),
		applogger.Int("quotes", len(col.Quotes)),
		applogger.Strings("failed", col.Failed),
	)
	return col, nil
}

func (c *Collector) collectQuotes(ctx context.Context, col *Collection) {
	if c.quotes == nil || len(c.univ.Snapshots) == 0 {
		return
	}
	quotes := make([]models.Quote, len(c.univ.Snapshots))
	errs := pending(len(c.univ.Snapshots))
	c.fanOut(ctx, len(c.univ.Snapshots), func(i int) {
		quotes[i], errs[i] = c.quotes.Quote(ctx, c.univ.Snapshots[i])
	})
	for i, inst := range c.univ.Snapshots {
		if errs[i] != nil {
			c.skip(inst, "quote", errs[i])
			continue
		}
		col.Quotes[inst.Symbol] = quotes[i]
	}
}

var errNotFetched = errors.New("not fetched before deadline")

func pending(n int) []error {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = errNotFetched
	}
	return errs
}

// fanOut runs fn(0..n-1) on at most cfg.Concurrency goroutines.
func (c *Collector) fanOut(ctx context.Context, n int, fn func(i int)) {
	sem := make(chan struct{}, c.cfg.Concurrency)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
}

func (c *Collector) skip(inst models.Instrument, what string, err error) {
	kind := "fetch_" + what
	if errors.Is(err, context.DeadlineExceeded) {
		kind = "fetch_timeout"
	}
	c.metrics.RecordError(kind)
	c.log.Warn("fetch failed, symbol skipped",
		applogger.String("symbol", inst.Symbol),
		applogger.String("ticker", inst.SourceTicker()),
		applogger.String("kind", what),
		applogger.Error(err),
	)
}
