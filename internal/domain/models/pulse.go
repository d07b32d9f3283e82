package models

import "time"

// Sentiment is the label of a score band.
type Sentiment string

const (
	ExtremeFear  Sentiment = "Extreme Fear"
	Fear         Sentiment = "Fear"
	Neutral      Sentiment = "Neutral"
	Greed        Sentiment = "Greed"
	ExtremeGreed Sentiment = "Extreme Greed"
)

// NeutralScore is the score held when no signal carries information.
const NeutralScore = 50.0

// SentimentFor maps a score in [0, 100] to its band. Lower bounds are inclusive.
func SentimentFor(score float64) Sentiment {
	switch {
	case score < 30:
		return ExtremeFear
	case score < 45:
		return Fear
	case score < 55:
		return Neutral
	case score < 70:
		return Greed
	default:
		return ExtremeGreed
	}
}

// PulseRecord is the composite score of one day.
type PulseRecord struct {
	Date        time.Time
	Score       float64
	Signal      Sentiment
	Description string
	Signals     []SignalValue
}

// VolatilityRecord is one day of the volatility index with its moving average.
type VolatilityRecord struct {
	Date  time.Time
	Value float64
	SMA   *float64 // nil until the averaging window fills
}
