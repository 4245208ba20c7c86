package lp

import (
	"math/rand"
	"runtime"
	"sync"

	"RateCast/internal/domain/models"
	"RateCast/internal/services/stats"

	"gonum.org/v1/gonum/mat"
)

// BootstrapConfig controls the pairs bootstrap for the per-horizon shock
// coefficients.
type BootstrapConfig struct {
	Replications int   `yaml:"replications" json:"replications"` // default 1000
	Seed         int64 `yaml:"seed" json:"seed"`
}

// DefaultBootstrapConfig uses 1000 replications.
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{Replications: 1000}
}

// BootstrapCI fills the [2.5, 97.5] percentile bands on every fitted
// horizon by resampling (X, y) rows with replacement and refitting. This is
// the sole source of LP uncertainty; no parametric assumption is made.
//
// Replications run on a worker pool, but each replication owns an RNG
// seeded from the master stream keyed by its index, so the collected
// distribution is reproducible for a fixed seed.
func BootstrapCI(series *models.AlignedSeries, f *Fitted, cfg BootstrapConfig) error {
	if cfg.Replications <= 0 {
		cfg.Replications = 1000
	}

	master := rand.New(rand.NewSource(cfg.Seed))

	for _, hm := range f.Horizons {
		X, y := designForHorizon(series, hm.Horizon, hm.Lags)
		if X == nil {
			return models.NewModelError(models.ErrModel,
				"design rebuild failed for horizon %d", hm.Horizon)
		}

		seeds := make([]int64, cfg.Replications)
		for i := range seeds {
			seeds[i] = master.Int63()
		}

		draws := resampleCoefs(X, y, f.Config, seeds)
		hm.CILower = stats.Quantile(draws, 0.025)
		hm.CIUpper = stats.Quantile(draws, 0.975)
	}
	return nil
}

// resampleCoefs runs the replication worker pool and returns the shock
// coefficients in replication order.
func resampleCoefs(X *mat.Dense, y []float64, cfg Config, seeds []int64) []float64 {
	n, _ := X.Dims()
	reps := len(seeds)
	out := make([]float64, reps)

	workers := runtime.NumCPU()
	if workers > reps {
		workers = reps
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for b := range jobs {
				rng := rand.New(rand.NewSource(seeds[b]))

				Xb, yb := resampleRows(X, y, n, rng)
				coef := fitShrinkage(Xb, yb, cfg)
				out[b] = coef[1]
			}
		}()
	}

	for b := 0; b < reps; b++ {
		jobs <- b
	}
	close(jobs)
	wg.Wait()

	return out
}

func resampleRows(X *mat.Dense, y []float64, n int, rng *rand.Rand) (*mat.Dense, []float64) {
	_, m := X.Dims()
	Xb := mat.NewDense(n, m, nil)
	yb := make([]float64, n)
	for i := 0; i < n; i++ {
		idx := rng.Intn(n)
		for j := 0; j < m; j++ {
			Xb.Set(i, j, X.At(idx, j))
		}
		yb[i] = y[idx]
	}
	return Xb, yb
}
