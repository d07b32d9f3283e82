package models

// Artifact documents. Nullable numerics are pointers without omitempty so keys
// are always present.

// Artifact names.
const (
	ArtifactPulse       = "pulse"
	ArtifactVolatility  = "volatility"
	ArtifactPredictions = "predictions"
	ArtifactMacro       = "macro"
	ArtifactMetrics     = "metrics"
	ArtifactSectors     = "sectors"
	ArtifactWatchlist   = "watchlist"
)

// ArtifactNames lists every artifact in publish order.
var ArtifactNames = []string{
	ArtifactPulse,
	ArtifactVolatility,
	ArtifactPredictions,
	ArtifactMacro,
	ArtifactMetrics,
	ArtifactSectors,
	ArtifactWatchlist,
}

// Artifact is an encoded document ready for a sink.
type Artifact struct {
	Name  string
	Body  []byte
	RunID string // stamped by the publisher
}

// FileName is the on-disk name of the artifact.
func (a Artifact) FileName() string { return a.Name + ".json" }

type PulseDoc struct {
	Dates         []string  `json:"dates"`
	Scores        []float64 `json:"scores"`
	Signals       []string  `json:"signals"`
	Descriptions  []string  `json:"descriptions"`
	CurrentScore  *float64  `json:"current_score"`
	CurrentSignal *string   `json:"current_signal"`
	LastUpdated   string    `json:"last_updated"`
}

type SeriesDoc struct {
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
}

type VolatilityDoc struct {
	VIXHistory  SeriesDoc `json:"vix_history"`
	VIXSMA      SeriesDoc `json:"vix_sma"`
	CurrentVIX  *float64  `json:"current_vix"`
	LastUpdated string    `json:"last_updated"`
}

type PredictionDoc struct {
	Name        string  `json:"name"`
	Direction   string  `json:"direction"`
	Confidence  float64 `json:"confidence"`
	HorizonDays int     `json:"horizon"`
	Rationale   string  `json:"rationale"`
	Timestamp   string  `json:"timestamp"`
}

type MacroDoc struct {
	Notes       []string `json:"notes"`
	LastUpdated string   `json:"last_updated"`
}

type MetricSeries struct {
	Values []float64 `json:"values"`
}

type MetricsDoc struct {
	LastUpdated string                  `json:"last_updated"`
	Series      map[string]MetricSeries `json:"series"`
}

type SectorQuote struct {
	Symbol    string   `json:"symbol"`
	Price     float64  `json:"price"`
	ChangePct *float64 `json:"change_pct"`
}

type SectorsDoc struct {
	LastUpdated string                 `json:"last_updated"`
	Sectors     map[string]SectorQuote `json:"sectors"`
}

// WatchSignal is the day-change classification of a watchlist entry.
type WatchSignal string

const (
	WatchBullish WatchSignal = "BULLISH"
	WatchBearish WatchSignal = "BEARISH"
	WatchNeutral WatchSignal = "NEUTRAL"
)

// WatchSignalFor classifies a daily percentage change; nil is neutral.
func WatchSignalFor(changePct *float64) WatchSignal {
	switch {
	case changePct == nil:
		return WatchNeutral
	case *changePct > 1.5:
		return WatchBullish
	case *changePct < -1.5:
		return WatchBearish
	default:
		return WatchNeutral
	}
}

type WatchlistEntry struct {
	Ticker    string      `json:"ticker"`
	Price     float64     `json:"price"`
	ChangePct *float64    `json:"change_pct"`
	Volume    *float64    `json:"volume"`
	Signal    WatchSignal `json:"signal"`
	Notes     string      `json:"notes"`
}

type WatchlistDoc struct {
	LastUpdated string           `json:"last_updated"`
	Stocks      []WatchlistEntry `json:"stocks"`
}
