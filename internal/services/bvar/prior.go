package bvar

import (
	"math"

	"RateCast/internal/domain/models"
	"RateCast/internal/services/stats"
)

const varianceFloor = 1e-6

// minnesotaPrior is the expanded prior over one equation's coefficient
// vector: a mean and a diagonal variance, both of length 1 + k*p with the
// intercept first.
type minnesotaPrior struct {
	mean [][]float64 // per equation
	vari [][]float64 // per equation, diagonal variances
}

// buildPrior constructs the Minnesota prior for a k-variable VAR(p), scaled
// by the first-differenced empirical variances of the aligned series.
//
// Variance for (equation i, lag l, variable j):
//
//	(lambda1^2 / l^lambda3) * (var_i / var_j) * (lambda2^2 if i != j else 1)
//
// The intercept is centered at the configured mean with a loose variance
// (lambda4 * interceptSigma)^2. Coefficient means are zero: monthly policy
// moves are treated as unpredictable a priori.
func buildPrior(spec PriorSpec, series *models.AlignedSeries, k int) (*minnesotaPrior, map[string]float64, error) {
	if k != 2 {
		return nil, nil, models.NewModelError(models.ErrConfiguration,
			"prior builder supports the 2-variable system, got k=%d", k)
	}
	if series.Len() < 2 {
		return nil, nil, models.NewModelError(models.ErrInsufficientData,
			"need at least 2 observations to scale the prior, got %d", series.Len())
	}

	empVar := []float64{
		math.Max(stats.DiffVariance(series.Shock), varianceFloor),
		math.Max(stats.DiffVariance(series.Response), varianceFloor),
	}
	scaleInfo := map[string]float64{
		"shock_diff_var":    empVar[0],
		"response_diff_var": empVar[1],
	}

	p := spec.Lags
	m := 1 + k*p
	pr := &minnesotaPrior{
		mean: make([][]float64, k),
		vari: make([][]float64, k),
	}

	interceptSD := spec.Lambda4 * spec.InterceptSigma
	interceptVar := interceptSD * interceptSD

	for i := 0; i < k; i++ {
		mean := make([]float64, m)
		vari := make([]float64, m)
		mean[0] = spec.InterceptMean
		vari[0] = interceptVar

		col := 1
		for lag := 1; lag <= p; lag++ {
			decay := spec.Lambda1 * spec.Lambda1 / math.Pow(float64(lag), spec.Lambda3)
			for j := 0; j < k; j++ {
				v := decay * (empVar[i] / empVar[j])
				if i != j {
					v *= spec.Lambda2 * spec.Lambda2
				}
				if v < varianceFloor {
					v = varianceFloor
				}
				vari[col] = v
				col++
			}
		}
		pr.mean[i] = mean
		pr.vari[i] = vari
	}
	return pr, scaleInfo, nil
}

// columns returns the coefficient count per equation.
func (p *minnesotaPrior) columns() int { return len(p.mean[0]) }
