package signals

import (
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/domain/repository"
	"PulseForge/internal/domain/service"
)

// Set evaluates the calculators in fixed signal order.
type Set struct {
	calculators []service.SignalCalculator
}

// NewSet builds the five calculators from cfg.
func NewSet(cfg models.EngineConfig) *Set {
	return &Set{calculators: []service.SignalCalculator{
		NewTrend(cfg),
		NewMomentum(cfg),
		NewVolatility(cfg),
		NewVIXDirection(cfg),
		NewBreadth(cfg),
	}}
}

// NewSetOf wraps arbitrary calculators, for tests and custom stacks.
func NewSetOf(calcs ...service.SignalCalculator) *Set {
	return &Set{calculators: calcs}
}

// Compute returns one value per calculator for asOf.
func (s *Set) Compute(series repository.SeriesReader, asOf time.Time) []models.SignalValue {
	out := make([]models.SignalValue, 0, len(s.calculators))
	for _, c := range s.calculators {
		out = append(out, c.Compute(series, asOf))
	}
	return out
}

// Find returns the value of the named signal.
func Find(values []models.SignalValue, name models.SignalName) (models.SignalValue, bool) {
	for _, v := range values {
		if v.Name == name {
			return v, true
		}
	}
	return models.SignalValue{}, false
}
