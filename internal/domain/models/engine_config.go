package models

import (
	"errors"
	"fmt"

	"github.com/creasty/defaults"
)

// EngineConfig carries every threshold and scale used by the calculators and classifiers.
type EngineConfig struct {
	Weights Weights `yaml:"weights"`

	BenchmarkSymbol string   `yaml:"benchmark_symbol" default:"SPY"`
	VIXSymbol       string   `yaml:"vix_symbol" default:"VIX"`
	Universe        []string `yaml:"universe"` // breadth universe; empty means every non-VIX symbol

	TrendWindow int     `yaml:"trend_window" default:"20"`
	TrendScale  float64 `yaml:"trend_scale" default:"20"`

	MomentumLookback int     `yaml:"momentum_lookback" default:"10"`
	MomentumScale    float64 `yaml:"momentum_scale" default:"16"`

	VIXCalm     float64 `yaml:"vix_calm" default:"12"`
	VIXStressed float64 `yaml:"vix_stressed" default:"35"`

	VIXDirectionLookback int     `yaml:"vix_direction_lookback" default:"5"`
	VIXDirectionScale    float64 `yaml:"vix_direction_scale" default:"10"`

	VolRegimeWindow int     `yaml:"vol_regime_window" default:"20"`
	VolRegimeLow    float64 `yaml:"vol_regime_low" default:"0.85"`
	VolRegimeHigh   float64 `yaml:"vol_regime_high" default:"1.15"`

	TrendRegimeBand     float64 `yaml:"trend_regime_band" default:"0.15"`
	NeutralBand         float64 `yaml:"neutral_band" default:"0.15"`
	PulseMomentumWindow int     `yaml:"pulse_momentum_window" default:"5"`
}

// DefaultEngineConfig returns the engine configuration with every default applied.
func DefaultEngineConfig() EngineConfig {
	var cfg EngineConfig
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("engine defaults: %v", err))
	}
	return cfg
}

// Validate checks weights and the structural constraints of the thresholds.
func (c EngineConfig) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	var errs []error
	if c.BenchmarkSymbol == "" {
		errs = append(errs, errors.New("benchmark_symbol is required"))
	}
	if c.VIXSymbol == "" {
		errs = append(errs, errors.New("vix_symbol is required"))
	}
	if c.TrendWindow < 1 {
		errs = append(errs, fmt.Errorf("trend_window must be positive, got %d", c.TrendWindow))
	}
	if c.MomentumLookback < 1 {
		errs = append(errs, fmt.Errorf("momentum_lookback must be positive, got %d", c.MomentumLookback))
	}
	if c.VIXDirectionLookback < 1 {
		errs = append(errs, fmt.Errorf("vix_direction_lookback must be positive, got %d", c.VIXDirectionLookback))
	}
	if c.VolRegimeWindow < 1 {
		errs = append(errs, fmt.Errorf("vol_regime_window must be positive, got %d", c.VolRegimeWindow))
	}
	if c.PulseMomentumWindow < 1 {
		errs = append(errs, fmt.Errorf("pulse_momentum_window must be positive, got %d", c.PulseMomentumWindow))
	}
	if c.VIXStressed <= c.VIXCalm {
		errs = append(errs, fmt.Errorf("vix_stressed (%v) must exceed vix_calm (%v)", c.VIXStressed, c.VIXCalm))
	}
	if c.VolRegimeLow <= 0 || c.VolRegimeHigh <= c.VolRegimeLow {
		errs = append(errs, fmt.Errorf("vol regime bounds %v/%v are not increasing", c.VolRegimeLow, c.VolRegimeHigh))
	}
	if c.TrendRegimeBand < 0 || c.NeutralBand < 0 {
		errs = append(errs, errors.New("regime bands must be non-negative"))
	}
	return errors.Join(errs...)
}
