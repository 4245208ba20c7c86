package lp

import (
	"RateCast/internal/domain/models"
)

// Artifacts serializes the per-horizon models for the persisted bundle.
func (f *Fitted) Artifacts() []models.LPHorizonArtifact {
	out := make([]models.LPHorizonArtifact, 0, len(f.Horizons))
	for _, m := range f.Horizons {
		out = append(out, models.LPHorizonArtifact{
			Horizon:   m.Horizon,
			Lags:      m.Lags,
			Alpha:     f.Config.Alpha,
			Method:    f.Config.Method,
			Coef:      append([]float64(nil), m.Coef...),
			ShockCoef: m.ShockCoef,
			RSquared:  m.RSquared,
			CILower:   m.CILower,
			CIUpper:   m.CIUpper,
		})
	}
	return out
}

// FromArtifacts restores the LP bundle. An empty bundle fails the load-time
// self-check: a model without horizons would silently degrade predictions.
func FromArtifacts(arts []models.LPHorizonArtifact, cfg Config) (*Fitted, error) {
	if len(arts) == 0 {
		return nil, models.NewModelError(models.ErrSerializationIntegrity,
			"artifact carries no local-projections horizons")
	}
	f := &Fitted{Config: cfg}
	for _, a := range arts {
		if a.Horizon <= 0 || a.Lags <= 0 {
			return nil, models.NewModelError(models.ErrSerializationIntegrity,
				"malformed horizon entry: horizon=%d lags=%d", a.Horizon, a.Lags)
		}
		if want := 2 + 2*a.Lags; len(a.Coef) != want {
			return nil, models.NewModelError(models.ErrSerializationIntegrity,
				"horizon %d coefficient vector has %d entries, want %d", a.Horizon, len(a.Coef), want)
		}
		f.Horizons = append(f.Horizons, &HorizonModel{
			Horizon:   a.Horizon,
			Lags:      a.Lags,
			Coef:      append([]float64(nil), a.Coef...),
			ShockCoef: a.ShockCoef,
			RSquared:  a.RSquared,
			CILower:   a.CILower,
			CIUpper:   a.CIUpper,
		})
	}
	return f, nil
}
