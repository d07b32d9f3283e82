// Package signals implements the five pulse sub-signal calculators.
package signals

import (
	"PulseForge/internal/domain/models"
)

// base carries the identity shared by every calculator.
type base struct {
	name   models.SignalName
	weight float64
}

func (b base) Name() models.SignalName { return b.name }

func (b base) Weight() float64 { return b.weight }

func (b base) absent() models.SignalValue { return models.NewAbsentSignal(b.name, b.weight) }

// invalid is a degraded value whose inputs were present but unusable (e.g. a zero base price).
func (b base) invalid() models.SignalValue {
	v := models.NewAbsentSignal(b.name, b.weight)
	v.Status = models.StatusInvalid
	return v
}
