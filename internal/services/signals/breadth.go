package signals

import (
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/domain/repository"
	"PulseForge/internal/domain/service"
	"PulseForge/internal/services/features"
)

// Breadth is the volume-weighted share of advancing symbols on asOf.
type Breadth struct {
	base
	universe []string
	exclude  string
}

var _ service.SignalCalculator = (*Breadth)(nil)

// NewBreadth tracks cfg.Universe, or every symbol but the VIX when it is empty.
func NewBreadth(cfg models.EngineConfig) *Breadth {
	return &Breadth{
		base:     base{name: models.SignalBreadth, weight: cfg.Weights.Breadth},
		universe: append([]string(nil), cfg.Universe...),
		exclude:  cfg.VIXSymbol,
	}
}

func (b *Breadth) symbols(series repository.SeriesReader) []string {
	if len(b.universe) > 0 {
		return b.universe
	}
	all := series.Symbols()
	out := make([]string, 0, len(all))
	for _, s := range all {
		if s != b.exclude {
			out = append(out, s)
		}
	}
	return out
}

func (b *Breadth) Compute(series repository.SeriesReader, asOf time.Time) models.SignalValue {
	var num, den float64
	for _, sym := range b.symbols(series) {
		win := series.WindowAsOf(sym, asOf, 2)
		// only symbols that traded on asOf and have a prior close
		if len(win) < 2 || !win[1].Date.Equal(asOf) {
			continue
		}
		num += features.Sign(win[1].Close-win[0].Close) * win[1].Volume
		den += win[1].Volume
	}
	if den <= 0 {
		return b.absent()
	}
	raw := num / den
	return b.absent().WithValue(raw, features.ClampUnit(raw))
}
