package analytics

import (
	"fmt"
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/domain/repository"
	"PulseForge/internal/services/features"
)

const (
	vixElevated   = 25.0
	vixComplacent = 14.0
	macroMAWindow = 50
)

// MacroCommentator writes the context notes of macro.json.
type MacroCommentator struct {
	cfg    models.EngineConfig
	static []string
}

func NewMacroCommentator(cfg models.EngineConfig, staticNotes []string) *MacroCommentator {
	return &MacroCommentator{cfg: cfg, static: append([]string(nil), staticNotes...)}
}

// Notes returns the VIX level note, the benchmark 50-day MA note, then static notes.
// A note whose data is missing is skipped.
func (m *MacroCommentator) Notes(series repository.SeriesReader, asOf, now time.Time) []models.MacroNote {
	var notes []string

	if win := series.WindowAsOf(m.cfg.VIXSymbol, asOf, 1); len(win) == 1 {
		vix := win[0].Level()
		switch {
		case vix > vixElevated:
			notes = append(notes, fmt.Sprintf("VIX elevated at %.1f, market pricing in uncertainty", vix))
		case vix < vixComplacent:
			notes = append(notes, fmt.Sprintf("VIX at %.1f, extreme complacency, potential for vol expansion", vix))
		default:
			notes = append(notes, fmt.Sprintf("VIX at %.1f, normal range", vix))
		}
	}

	if win := series.WindowAsOf(m.cfg.BenchmarkSymbol, asOf, macroMAWindow); len(win) == macroMAWindow {
		closes := features.Closes(win)
		sma50 := features.Mean(closes)
		if closes[len(closes)-1] > sma50 {
			notes = append(notes, fmt.Sprintf("S&P 500 trading above 50-day MA ($%.0f), bullish structure intact", sma50))
		} else {
			notes = append(notes, fmt.Sprintf("S&P 500 below 50-day MA ($%.0f), cautious positioning warranted", sma50))
		}
	}

	notes = append(notes, m.static...)
	out := make([]models.MacroNote, len(notes))
	for i, n := range notes {
		out[i] = models.MacroNote{Note: n, Timestamp: now}
	}
	return out
}
