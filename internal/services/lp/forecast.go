package lp

import (
	"fmt"

	"RateCast/internal/domain/models"
)

// z-scores for the derived interval widths
const (
	z80 = 1.2816
	z95 = 1.96
)

// ForecastPath maps the per-horizon shock coefficients onto an imposed
// shock. Local projections estimate the response per unit shock, so the
// path scales the horizon coefficient by the initial shock size. Horizons
// skipped at fit time are absent from the path.
func (f *Fitted) ForecastPath(shockBps float64, horizons int) (*models.ForecastPath, error) {
	if horizons <= 0 {
		return nil, models.NewModelError(models.ErrConfiguration, "horizons must be > 0, got %d", horizons)
	}

	path := &models.ForecastPath{Engine: "lp"}
	for h := 1; h <= horizons; h++ {
		m := f.At(h)
		if m == nil {
			continue
		}
		mean := m.ShockCoef * shockBps
		lo := m.CILower * shockBps
		hi := m.CIUpper * shockBps
		if lo > hi {
			lo, hi = hi, lo
		}
		// bootstrap CI is the only uncertainty source; narrower bands are
		// derived from it under a normal approximation
		std := (hi - lo) / (2 * z95)
		path.Horizons = append(path.Horizons, models.HorizonForecast{
			Horizon:      h,
			ImposedShock: shockBps,
			Mean:         mean,
			Std:          std,
			CI80Lower:    mean - z80*std,
			CI80Upper:    mean + z80*std,
			CI95Lower:    lo,
			CI95Upper:    hi,
		})
	}
	if len(path.Horizons) == 0 {
		return nil, models.NewModelError(models.ErrModel,
			"no fitted horizon within the requested %d", horizons)
	}
	return path, nil
}

// RationaleText renders a short narrative for an LP-based forecast.
func (f *Fitted) RationaleText(fc *models.HorizonForecast) string {
	peakH, peakV := f.PeakHorizon()
	direction := "raises"
	if peakV < 0 {
		direction = "lowers"
	}
	return fmt.Sprintf(
		"Local projections (%s, alpha=%g) estimate a per-unit pass-through that %s the response rate most at month %d (%.3f per bp); month %d mean is %.1f bps with a bootstrap 95%% CI of %.1f to %.1f.",
		f.Config.Method, f.Config.Alpha, direction, peakH, peakV,
		fc.Horizon, fc.Mean, fc.CI95Lower, fc.CI95Upper)
}

// MeanR2 averages the in-sample fit across horizons for evaluate().
func (f *Fitted) MeanR2() float64 {
	if len(f.Horizons) == 0 {
		return 0
	}
	s := 0.0
	for _, m := range f.Horizons {
		s += m.RSquared
	}
	return s / float64(len(f.Horizons))
}

// HorizonR2 returns the fit per horizon.
func (f *Fitted) HorizonR2() map[int]float64 {
	out := make(map[int]float64, len(f.Horizons))
	for _, m := range f.Horizons {
		out[m.Horizon] = m.RSquared
	}
	return out
}

// CumulativeResponse sums the per-unit responses over fitted horizons.
func (f *Fitted) CumulativeResponse() float64 {
	s := 0.0
	for _, m := range f.Horizons {
		s += m.ShockCoef
	}
	return s
}
