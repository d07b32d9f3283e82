package usecase

import (
	"encoding/json"
	"fmt"

	"PulseForge/internal/domain/models"
	"PulseForge/pkg/util"
)

// ArtifactSet names the instruments behind the supplementary artifacts.
type ArtifactSet struct {
	Metrics   []models.Instrument // metrics.json series, keyed by symbol
	Sectors   []models.Instrument // sectors.json, keyed by display name
	Watchlist []models.Instrument
}

// ArtifactBuilder encodes an engine output into the published JSON documents.
type ArtifactBuilder struct {
	set ArtifactSet
}

func NewArtifactBuilder(set ArtifactSet) *ArtifactBuilder {
	return &ArtifactBuilder{set: set}
}

// Build returns every artifact in publish order. Encoding is deterministic.
func (b *ArtifactBuilder) Build(rc RunContext, out *models.Output) ([]models.Artifact, error) {
	stamp := util.FormatTimestamp(rc.Now)
	docs := map[string]interface{}{
		models.ArtifactPulse:       b.pulse(out, stamp),
		models.ArtifactVolatility:  b.volatility(out, stamp),
		models.ArtifactPredictions: b.predictions(out),
		models.ArtifactMacro:       b.macro(out, stamp),
		models.ArtifactMetrics:     b.metrics(out, stamp),
		models.ArtifactSectors:     b.sectors(out, stamp),
		models.ArtifactWatchlist:   b.watchlist(out, stamp),
	}

	artifacts := make([]models.Artifact, 0, len(models.ArtifactNames))
	for _, name := range models.ArtifactNames {
		body, err := json.MarshalIndent(docs[name], "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		artifacts = append(artifacts, models.Artifact{Name: name, Body: append(body, '\n')})
	}
	return artifacts, nil
}

func (b *ArtifactBuilder) pulse(out *models.Output, stamp string) models.PulseDoc {
	doc := models.PulseDoc{
		Dates:        make([]string, 0, len(out.Pulse)),
		Scores:       make([]float64, 0, len(out.Pulse)),
		Signals:      make([]string, 0, len(out.Pulse)),
		Descriptions: make([]string, 0, len(out.Pulse)),
		LastUpdated:  stamp,
	}
	for _, rec := range out.Pulse {
		doc.Dates = append(doc.Dates, util.FormatDate(rec.Date))
		doc.Scores = append(doc.Scores, rec.Score)
		doc.Signals = append(doc.Signals, string(rec.Signal))
		doc.Descriptions = append(doc.Descriptions, rec.Description)
	}
	if out.Current != nil {
		score := out.Current.Score
		label := string(out.Current.Signal)
		doc.CurrentScore = &score
		doc.CurrentSignal = &label
	}
	return doc
}

func (b *ArtifactBuilder) volatility(out *models.Output, stamp string) models.VolatilityDoc {
	doc := models.VolatilityDoc{
		VIXHistory:  models.SeriesDoc{Dates: []string{}, Values: []float64{}},
		VIXSMA:      models.SeriesDoc{Dates: []string{}, Values: []float64{}},
		LastUpdated: stamp,
	}
	for _, rec := range out.Volatility {
		date := util.FormatDate(rec.Date)
		doc.VIXHistory.Dates = append(doc.VIXHistory.Dates, date)
		doc.VIXHistory.Values = append(doc.VIXHistory.Values, rec.Value)
		if rec.SMA != nil {
			doc.VIXSMA.Dates = append(doc.VIXSMA.Dates, date)
			doc.VIXSMA.Values = append(doc.VIXSMA.Values, *rec.SMA)
		}
	}
	if n := len(out.Volatility); n > 0 {
		v := out.Volatility[n-1].Value
		doc.CurrentVIX = &v
	}
	return doc
}

func (b *ArtifactBuilder) predictions(out *models.Output) []models.PredictionDoc {
	docs := make([]models.PredictionDoc, 0, len(out.Predictions))
	for _, p := range out.Predictions {
		docs = append(docs, models.PredictionDoc{
			Name:        p.Name,
			Direction:   string(p.Direction),
			Confidence:  p.Confidence,
			HorizonDays: p.HorizonDays,
			Rationale:   p.Rationale,
			Timestamp:   util.FormatTimestamp(p.Timestamp),
		})
	}
	return docs
}

func (b *ArtifactBuilder) macro(out *models.Output, stamp string) models.MacroDoc {
	doc := models.MacroDoc{Notes: make([]string, 0, len(out.Macro)), LastUpdated: stamp}
	for _, n := range out.Macro {
		doc.Notes = append(doc.Notes, n.Note)
	}
	return doc
}

func (b *ArtifactBuilder) metrics(out *models.Output, stamp string) models.MetricsDoc {
	doc := models.MetricsDoc{LastUpdated: stamp, Series: make(map[string]models.MetricSeries)}
	for _, inst := range b.set.Metrics {
		if closes, ok := out.Closes[inst.Symbol]; ok {
			doc.Series[inst.Symbol] = models.MetricSeries{Values: closes}
		}
	}
	return doc
}

func (b *ArtifactBuilder) sectors(out *models.Output, stamp string) models.SectorsDoc {
	doc := models.SectorsDoc{LastUpdated: stamp, Sectors: make(map[string]models.SectorQuote)}
	for _, inst := range b.set.Sectors {
		q, ok := out.Quotes[inst.Symbol]
		if !ok {
			continue
		}
		name := inst.Name
		if name == "" {
			name = inst.Symbol
		}
		doc.Sectors[name] = models.SectorQuote{Symbol: inst.Symbol, Price: q.Price, ChangePct: q.ChangePct}
	}
	return doc
}

func (b *ArtifactBuilder) watchlist(out *models.Output, stamp string) models.WatchlistDoc {
	doc := models.WatchlistDoc{LastUpdated: stamp, Stocks: make([]models.WatchlistEntry, 0, len(b.set.Watchlist))}
	for _, inst := range b.set.Watchlist {
		q, ok := out.Quotes[inst.Symbol]
		if !ok {
			continue
		}
		entry := models.WatchlistEntry{
			Ticker:    inst.Symbol,
			Price:     q.Price,
			ChangePct: q.ChangePct,
			Signal:    models.WatchSignalFor(q.ChangePct),
		}
		if q.Volume > 0 {
			vol := q.Volume
			entry.Volume = &vol
		}
		doc.Stocks = append(doc.Stocks, entry)
	}
	return doc
}
