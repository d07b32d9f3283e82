package service

import (
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/domain/repository"
)

// SignalCalculator computes one normalized sub-signal at a date.
// Implementations read only observations dated on or before asOf.
type SignalCalculator interface {
	Name() models.SignalName
	Weight() float64
	Compute(series repository.SeriesReader, asOf time.Time) models.SignalValue
}

// CompositeScorer folds the sub-signals of one day into a pulse record.
type CompositeScorer interface {
	Score(date time.Time, signals []models.SignalValue) models.PulseRecord
}

// PredictionGenerator turns regimes and signals into directional calls.
type PredictionGenerator interface {
	Predict(in PredictionInput) []models.Prediction
}

// PredictionInput is everything the generator needs for one run.
type PredictionInput struct {
	Series  repository.SeriesReader
	AsOf    time.Time
	Now     time.Time
	Signals []models.SignalValue
	Regimes models.Regimes
	Scores  []float64 // pulse scores, oldest first
}
