package distribution

import (
	"math"

	"RateCast/internal/domain/models"
	"RateCast/internal/services/stats"
)

// Config controls the discretization of a continuous forecast density onto
// the 25-bp decision grid.
type Config struct {
	BinWidthBps    float64 `yaml:"bin_width_bps" json:"bin_width_bps"`       // decision grid step
	MinProbability float64 `yaml:"min_probability" json:"min_probability"`   // bins below this are dropped
	StdOverridePct float64 `yaml:"std_override_pct" json:"std_override_pct"` // relative disagreement triggering the CI-derived std
}

// DefaultConfig matches policy-rate conventions: 25-bp bins, 0.5% floor,
// 20% std disagreement tolerance.
func DefaultConfig() Config {
	return Config{BinWidthBps: 25, MinProbability: 0.005, StdOverridePct: 0.20}
}

// Validate rejects unusable grids.
func (c Config) Validate() error {
	if c.BinWidthBps <= 0 {
		return models.NewModelError(models.ErrConfiguration, "bin width must be > 0, got %g", c.BinWidthBps)
	}
	if c.MinProbability < 0 || c.MinProbability >= 1 {
		return models.NewModelError(models.ErrConfiguration, "min probability must be in [0,1), got %g", c.MinProbability)
	}
	if c.StdOverridePct <= 0 {
		return models.NewModelError(models.ErrConfiguration, "std override tolerance must be > 0, got %g", c.StdOverridePct)
	}
	return nil
}

// Discretize converts the target-horizon forecast into a normalized
// probability table over 25-bp move outcomes.
//
// The reported std and the CI-implied std can disagree when the
// Monte-Carlo aggregation was mis-specified; beyond the tolerance the
// CI-implied value wins. Bin masses are analytic normal probabilities, never
// re-sampled, so the table is deterministic for a given forecast.
func Discretize(fc *models.HorizonForecast, cfg Config) ([]models.DistributionPoint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	std := fc.Std
	stdFromCI := (fc.CI95Upper - fc.CI95Lower) / (2 * 1.96)
	if stdFromCI > 0 {
		if std <= 0 || math.Abs(stdFromCI-std)/std > cfg.StdOverridePct {
			std = stdFromCI
		}
	}
	if std <= 0 {
		// degenerate density: all mass on the nearest grid point
		return []models.DistributionPoint{{
			DeltaBps:    RoundToGrid(fc.Mean, cfg.BinWidthBps),
			Probability: 1.0,
		}}, nil
	}

	w := cfg.BinWidthBps
	half := w / 2
	lo := int(math.Floor(fc.CI95Lower/w)) * int(w)
	hi := int(math.Ceil(fc.CI95Upper/w)) * int(w)

	points := make([]models.DistributionPoint, 0, (hi-lo)/int(w)+1)
	total := 0.0
	for v := lo; v <= hi; v += int(w) {
		p := stats.NormalCDF((float64(v)+half-fc.Mean)/std) -
			stats.NormalCDF((float64(v)-half-fc.Mean)/std)
		if p < cfg.MinProbability {
			continue
		}
		points = append(points, models.DistributionPoint{DeltaBps: v, Probability: p})
		total += p
	}
	if len(points) == 0 || total <= 0 {
		return []models.DistributionPoint{{
			DeltaBps:    RoundToGrid(fc.Mean, w),
			Probability: 1.0,
		}}, nil
	}

	// renormalize to sum exactly to 1
	for i := range points {
		points[i].Probability /= total
	}
	return points, nil
}

// RoundToGrid rounds a continuous move to the nearest grid multiple.
func RoundToGrid(bps, width float64) int {
	return int(math.Round(bps/width)) * int(width)
}

// NonZeroMoveProbability sums the probability mass away from the zero bin.
func NonZeroMoveProbability(points []models.DistributionPoint) float64 {
	p := 0.0
	for _, pt := range points {
		if pt.DeltaBps != 0 {
			p += pt.Probability
		}
	}
	return p
}
