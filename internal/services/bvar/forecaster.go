package bvar

import (
	"fmt"
	"math/rand"

	"RateCast/internal/domain/models"
	"RateCast/internal/services/stats"

	"gonum.org/v1/gonum/mat"
)

// ConditionalForecast runs the seeded Monte-Carlo multi-step forecast under
// the imposed shock path. Horizons run strictly in order: each horizon's
// mean response feeds the next horizon's lag state. The RNG is owned by this
// call, so identical seed and inputs give bit-identical output regardless of
// other RNG use in the process.
func (f *Fitted) ConditionalForecast(shockPath []float64, horizons int, cfg MonteCarloConfig, seed int64) (*models.ForecastPath, error) {
	if len(shockPath) == 0 {
		return nil, models.NewModelError(models.ErrConfiguration, "shock path is empty")
	}
	if horizons <= 0 {
		return nil, models.NewModelError(models.ErrConfiguration, "horizons must be > 0, got %d", horizons)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	k := f.Post.K()
	p := f.Post.Lags

	// Sigma must factor at call time; post-estimate enforcement makes this
	// a should-not-happen guard.
	var chol mat.Cholesky
	if !chol.Factorize(f.Post.Sigma) {
		return nil, models.NewModelError(models.ErrModel,
			"residual covariance lost positive definiteness; refit the model")
	}
	L := mat.NewTriDense(k, mat.Lower, nil)
	chol.LTo(L)

	rng := rand.New(rand.NewSource(seed))
	intercept := f.Post.Intercept()
	coefs := make([]*mat.Dense, p)
	for l := 1; l <= p; l++ {
		coefs[l-1] = f.Post.CoefAt(l)
	}

	// working copy of the lag state, oldest row first
	state := mat.DenseCopyOf(f.lagState)

	path := &models.ForecastPath{
		Horizons: make([]models.HorizonForecast, 0, horizons),
		Engine:   "bvar",
		Seed:     seed,
	}

	responseDraws := make([]float64, cfg.Draws)

	// Imposing the shock pins the first structural innovation: the shock
	// residual equals imposed - pred[0], and under the Cholesky ordering the
	// response inherits L10/L00 of it, with L11 scaling the free noise.
	passThrough := L.At(1, 0) / L.At(0, 0)

	for h := 1; h <= horizons; h++ {
		imposed := imposedShockAt(shockPath, h, cfg.ExtendPolicy)

		// deterministic AR contribution, shared by every draw
		pred := make([]float64, k)
		copy(pred, intercept)
		for l := 1; l <= p; l++ {
			A := coefs[l-1]
			for i := 0; i < k; i++ {
				for j := 0; j < k; j++ {
					pred[i] += A.At(i, j) * state.At(p-l, j)
				}
			}
		}

		// The shock equation's output is overridden by the imposed value;
		// the response is drawn conditional on that shock residual.
		condMean := pred[1] + passThrough*(imposed-pred[0])
		for d := 0; d < cfg.Draws; d++ {
			responseDraws[d] = condMean + L.At(1, 1)*rng.NormFloat64()
		}

		mean := stats.Mean(responseDraws)
		fc := models.HorizonForecast{
			Horizon:      h,
			ImposedShock: imposed,
			Mean:         mean,
			Std:          stats.StdDev(responseDraws),
			CI80Lower:    stats.Quantile(responseDraws, 0.10),
			CI80Upper:    stats.Quantile(responseDraws, 0.90),
			CI95Lower:    stats.Quantile(responseDraws, 0.025),
			CI95Upper:    stats.Quantile(responseDraws, 0.975),
		}
		path.Horizons = append(path.Horizons, fc)

		// roll the state: drop the oldest row, append (imposedShock, mean)
		for r := 0; r < p-1; r++ {
			for c := 0; c < k; c++ {
				state.Set(r, c, state.At(r+1, c))
			}
		}
		state.Set(p-1, 0, imposed)
		state.Set(p-1, 1, mean)
	}
	return path, nil
}

// imposedShockAt resolves the shock value for horizon h (1-based) under the
// caller-selected extension policy.
func imposedShockAt(path []float64, h int, policy string) float64 {
	if h <= len(path) {
		return path[h-1]
	}
	switch policy {
	case ExtendZero:
		return 0
	default: // hold last value
		return path[len(path)-1]
	}
}

// RationaleText renders a short narrative of what drives the forecast.
func (f *Fitted) RationaleText(fc *models.HorizonForecast) string {
	peakH, peakV := f.IRF.PeakResponseHorizon()
	stance := "pass-through"
	if peakV < 0 {
		stance = "counter-movement"
	}
	txt := fmt.Sprintf(
		"BVAR with Minnesota shrinkage (%d lags) implies %s peaking %.1f bps at month %d; conditional mean at month %d is %.1f bps (80%% CI %.1f to %.1f).",
		f.Post.Lags, stance, peakV, peakH, fc.Horizon, fc.Mean, fc.CI80Lower, fc.CI80Upper)
	if !f.Stability.Stable {
		txt += " Caution: companion dynamics are non-stationary; long-horizon bands are indicative only."
	}
	return txt
}
