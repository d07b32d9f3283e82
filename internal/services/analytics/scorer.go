// Package analytics derives the composite score, regimes and predictions from sub-signals.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/domain/service"
	"PulseForge/internal/services/features"
)

// Scorer folds weighted sub-signals into the 0-100 pulse score.
type Scorer struct{}

var _ service.CompositeScorer = Scorer{}

func NewScorer() Scorer { return Scorer{} }

// Score computes clamp(50 + 50*sum(w*n), 0, 100) rounded to one decimal.
func (Scorer) Score(date time.Time, signals []models.SignalValue) models.PulseRecord {
	rec := models.PulseRecord{
		Date:    date,
		Signals: append([]models.SignalValue(nil), signals...),
	}
	if !anyPresent(signals) {
		rec.Score = models.NeutralScore
		rec.Signal = models.Neutral
		rec.Description = "Neutral: no signal data available, pulse held at neutral."
		return rec
	}

	var composite float64
	for _, s := range signals {
		composite += s.Contribution()
	}
	rec.Score = features.Round(features.Clamp(models.NeutralScore+50*composite, 0, 100), 1)
	rec.Signal = models.SentimentFor(rec.Score)
	rec.Description = describe(rec.Signal, signals)
	return rec
}

func anyPresent(signals []models.SignalValue) bool {
	for _, s := range signals {
		if s.Present() {
			return true
		}
	}
	return false
}

// Dominant orders signals by |w*n| descending; ties keep the fixed signal order.
func Dominant(signals []models.SignalValue) []models.SignalValue {
	out := append([]models.SignalValue(nil), signals...)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := math.Abs(out[i].Contribution()), math.Abs(out[j].Contribution())
		if ci != cj {
			return ci > cj
		}
		return orderOf(out[i].Name) < orderOf(out[j].Name)
	})
	return out
}

func orderOf(name models.SignalName) int {
	for i, n := range models.SignalOrder {
		if n == name {
			return i
		}
	}
	return len(models.SignalOrder)
}

func describe(label models.Sentiment, signals []models.SignalValue) string {
	ranked := Dominant(signals)
	first := ranked[0]
	if first.Contribution() == 0 {
		return fmt.Sprintf("%s: signals balanced, no dominant driver.", label)
	}
	if len(ranked) > 1 {
		second := ranked[1]
		c2 := math.Abs(second.Contribution())
		if c2 > 0 && c2 >= math.Abs(first.Contribution())/2 {
			return fmt.Sprintf("%s: driven by %s (%+.2f) and %s (%+.2f).", label,
				first.Name.Label(), first.Contribution(), second.Name.Label(), second.Contribution())
		}
	}
	return fmt.Sprintf("%s: driven by %s (%+.2f).", label, first.Name.Label(), first.Contribution())
}
