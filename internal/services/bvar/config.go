package bvar

import (
	"RateCast/internal/domain/models"
)

// PriorSpec holds the Minnesota shrinkage hyperparameters. Immutable per
// model instance, set at construction.
type PriorSpec struct {
	Lambda1 float64 `yaml:"lambda1" json:"lambda1"` // overall tightness
	Lambda2 float64 `yaml:"lambda2" json:"lambda2"` // cross-variable shrinkage
	Lambda3 float64 `yaml:"lambda3" json:"lambda3"` // lag decay exponent
	Lambda4 float64 `yaml:"lambda4" json:"lambda4"` // intercept looseness multiplier

	InterceptMean  float64 `yaml:"intercept_mean" json:"intercept_mean"`
	InterceptSigma float64 `yaml:"intercept_sigma" json:"intercept_sigma"`

	Lags int `yaml:"lags" json:"lags"`
}

// DefaultPriorSpec mirrors the standard Minnesota calibration for monthly
// policy-rate moves.
func DefaultPriorSpec() PriorSpec {
	return PriorSpec{
		Lambda1:        0.2,
		Lambda2:        0.5,
		Lambda3:        1.0,
		Lambda4:        100.0,
		InterceptMean:  0.0,
		InterceptSigma: 10.0,
		Lags:           3,
	}
}

// Validate rejects hyperparameters that cannot produce a proper prior.
func (s PriorSpec) Validate() error {
	if s.Lambda1 <= 0 || s.Lambda2 <= 0 || s.Lambda3 < 0 || s.Lambda4 <= 0 {
		return models.NewModelError(models.ErrConfiguration,
			"prior lambdas must be positive (lambda3 may be zero): l1=%g l2=%g l3=%g l4=%g",
			s.Lambda1, s.Lambda2, s.Lambda3, s.Lambda4)
	}
	if s.InterceptSigma <= 0 {
		return models.NewModelError(models.ErrConfiguration,
			"intercept sigma must be positive, got %g", s.InterceptSigma)
	}
	if s.Lags <= 0 || s.Lags > 12 {
		return models.NewModelError(models.ErrConfiguration,
			"lag order must be in [1,12], got %d", s.Lags)
	}
	return nil
}

// MonteCarloConfig controls the conditional forecast simulation.
type MonteCarloConfig struct {
	Draws        int    `yaml:"draws" json:"draws"`                 // per-horizon simulation draws
	ExtendPolicy string `yaml:"extend_policy" json:"extend_policy"` // "hold" or "zero" beyond given shock path
}

// DefaultMonteCarloConfig uses 1000 draws and the hold-last extension.
func DefaultMonteCarloConfig() MonteCarloConfig {
	return MonteCarloConfig{Draws: 1000, ExtendPolicy: ExtendHold}
}

const (
	ExtendHold = "hold"
	ExtendZero = "zero"
)

// Validate checks the simulation parameters.
func (c MonteCarloConfig) Validate() error {
	if c.Draws <= 0 {
		return models.NewModelError(models.ErrConfiguration, "draw count must be > 0, got %d", c.Draws)
	}
	if c.ExtendPolicy != ExtendHold && c.ExtendPolicy != ExtendZero {
		return models.NewModelError(models.ErrConfiguration,
			"extend policy must be %q or %q, got %q", ExtendHold, ExtendZero, c.ExtendPolicy)
	}
	return nil
}
