package usecase

import (
	"fmt"
	"math"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/services/timeseries"
	"PulseForge/pkg/util"

	"github.com/go-playground/validator/v10"
)

// Ingestor validates raw records and loads them into a fresh store.
// Any malformed record aborts the run.
type Ingestor struct {
	validate  *validator.Validate
	vixSymbol string
}

func NewIngestor(vixSymbol string) *Ingestor {
	return &Ingestor{validate: validator.New(), vixSymbol: vixSymbol}
}

// Build loads in into a store in the order given. Out-of-order records are rejected, never sorted.
func (i *Ingestor) Build(in models.Input) (*timeseries.Store, error) {
	store := timeseries.NewStore()

	if len(in.VIX) > 0 {
		for _, o := range in.Observations {
			if o.Symbol == i.vixSymbol {
				return nil, fmt.Errorf("%w: %s supplied both as observations and as a volatility series",
					models.ErrInvalidObservation, i.vixSymbol)
			}
		}
	}

	for _, o := range in.Observations {
		if err := i.checkObservation(o); err != nil {
			return nil, err
		}
		o.Date = util.DateOf(o.Date)
		if err := store.Add(o); err != nil {
			return nil, fmt.Errorf("ingest: %w", err)
		}
	}

	for _, p := range in.VIX {
		if err := i.checkVolatility(p); err != nil {
			return nil, err
		}
		level := p.Value
		o := models.Observation{
			Symbol:            i.vixSymbol,
			Date:              util.DateOf(p.Date),
			Close:             level,
			ImpliedVolatility: &level,
		}
		if err := store.Add(o); err != nil {
			return nil, fmt.Errorf("ingest: %w", err)
		}
	}
	return store, nil
}

func (i *Ingestor) checkObservation(o models.Observation) error {
	if err := i.validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %s %s: %v", models.ErrInvalidObservation, o.Symbol, util.FormatDate(o.Date), err)
	}
	if o.Date.IsZero() || !finite(o.Close) || !finite(o.Volume) {
		return fmt.Errorf("%w: %s %s: non-finite value or missing date", models.ErrInvalidObservation, o.Symbol, util.FormatDate(o.Date))
	}
	if o.ImpliedVolatility != nil && !finite(*o.ImpliedVolatility) {
		return fmt.Errorf("%w: %s %s: non-finite implied volatility", models.ErrInvalidObservation, o.Symbol, util.FormatDate(o.Date))
	}
	return nil
}

func (i *Ingestor) checkVolatility(p models.VolatilityPoint) error {
	if err := i.validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %s %s: %v", models.ErrInvalidObservation, i.vixSymbol, util.FormatDate(p.Date), err)
	}
	if p.Date.IsZero() || !finite(p.Value) {
		return fmt.Errorf("%w: %s %s: non-finite value or missing date", models.ErrInvalidObservation, i.vixSymbol, util.FormatDate(p.Date))
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
