package lp

import (
	"fmt"
	"math"

	"RateCast/internal/domain/models"

	"gonum.org/v1/gonum/mat"
)

const minUsableRows = 10

// Config controls the local-projections estimator.
type Config struct {
	MaxHorizon int     `yaml:"max_horizon" json:"max_horizon"` // direct regressions for h = 1..MaxHorizon
	MaxLags    int     `yaml:"max_lags" json:"max_lags"`       // AIC search upper bound
	Alpha      float64 `yaml:"alpha" json:"alpha"`             // shrinkage strength
	Method     string  `yaml:"method" json:"method"`           // ridge | lasso | elasticnet
	L1Ratio    float64 `yaml:"l1_ratio" json:"l1_ratio"`       // elastic-net mixing, ignored otherwise
}

const (
	MethodRidge      = "ridge"
	MethodLasso      = "lasso"
	MethodElasticNet = "elasticnet"
)

// DefaultConfig mirrors the standard monthly-policy calibration.
func DefaultConfig() Config {
	return Config{MaxHorizon: 6, MaxLags: 6, Alpha: 0.1, Method: MethodRidge, L1Ratio: 0.5}
}

// Validate rejects configurations that cannot fit.
func (c Config) Validate() error {
	if c.MaxHorizon <= 0 || c.MaxHorizon > 24 {
		return models.NewModelError(models.ErrConfiguration, "max horizon must be in [1,24], got %d", c.MaxHorizon)
	}
	if c.MaxLags <= 0 || c.MaxLags > 12 {
		return models.NewModelError(models.ErrConfiguration, "max lags must be in [1,12], got %d", c.MaxLags)
	}
	if c.Alpha < 0 {
		return models.NewModelError(models.ErrConfiguration, "alpha must be >= 0, got %g", c.Alpha)
	}
	switch c.Method {
	case MethodRidge, MethodLasso, MethodElasticNet:
	default:
		return models.NewModelError(models.ErrConfiguration, "unknown shrinkage method %q", c.Method)
	}
	if c.Method == MethodElasticNet && (c.L1Ratio <= 0 || c.L1Ratio >= 1) {
		return models.NewModelError(models.ErrConfiguration, "elastic-net l1 ratio must be in (0,1), got %g", c.L1Ratio)
	}
	return nil
}

// HorizonModel is one fitted direct projection: response at t+h regressed
// on the shock at t plus lagged controls of both variables.
type HorizonModel struct {
	Horizon   int
	Lags      int       // AIC-selected lag order
	Coef      []float64 // intercept, shock_t, response lags 1..L, shock lags 1..L
	ShockCoef float64   // the horizon-h impulse response
	RSquared  float64
	CILower   float64 // bootstrap percentile CI, filled by BootstrapCI
	CIUpper   float64
	NObs      int
}

// Fitted holds the per-horizon LP models. Horizons that failed the
// small-sample guard are absent rather than fit badly.
type Fitted struct {
	Config     Config
	Horizons   []*HorizonModel
	Advisories []string
}

// At returns the model for horizon h, or nil when skipped.
func (f *Fitted) At(h int) *HorizonModel {
	for _, m := range f.Horizons {
		if m.Horizon == h {
			return m
		}
	}
	return nil
}

// PeakHorizon returns the horizon with the largest absolute shock
// coefficient, defaulting to 1 when nothing was fit.
func (f *Fitted) PeakHorizon() (int, float64) {
	peakH, peakV := 1, 0.0
	for _, m := range f.Horizons {
		if math.Abs(m.ShockCoef) > math.Abs(peakV) {
			peakH, peakV = m.Horizon, m.ShockCoef
		}
	}
	return peakH, peakV
}

// Fit runs one direct regression per horizon. Horizons are independent:
// a failure or short sample at one horizon is isolated, the rest still fit.
func Fit(series *models.AlignedSeries, cfg Config) (*Fitted, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	out := &Fitted{Config: cfg}
	for h := 1; h <= cfg.MaxHorizon; h++ {
		m, err := fitHorizon(series, h, cfg)
		if err != nil {
			out.Advisories = append(out.Advisories,
				fmt.Sprintf("horizon %d skipped: %v", h, err))
			continue
		}
		out.Horizons = append(out.Horizons, m)
	}
	if len(out.Horizons) == 0 {
		return nil, models.NewModelError(models.ErrInsufficientData,
			"no horizon had the %d usable rows required", minUsableRows)
	}
	return out, nil
}

// fitHorizon selects the lag order by in-sample AIC over [1..MaxLags] and
// refits the winner.
func fitHorizon(series *models.AlignedSeries, h int, cfg Config) (*HorizonModel, error) {
	bestAIC := math.Inf(1)
	var best *HorizonModel

	for lags := 1; lags <= cfg.MaxLags; lags++ {
		X, y := designForHorizon(series, h, lags)
		if X == nil || len(y) < minUsableRows {
			continue
		}
		coef := fitShrinkage(X, y, cfg)
		rss, r2 := goodnessOfFit(X, y, coef)

		n := float64(len(y))
		k := float64(len(coef))
		aic := n*math.Log(math.Max(rss/n, 1e-12)) + 2*k
		if aic < bestAIC {
			bestAIC = aic
			best = &HorizonModel{
				Horizon:   h,
				Lags:      lags,
				Coef:      coef,
				ShockCoef: coef[1],
				RSquared:  r2,
				NObs:      len(y),
			}
		}
	}
	if best == nil {
		return nil, models.NewModelError(models.ErrInsufficientData,
			"fewer than %d usable rows at horizon %d", minUsableRows, h)
	}
	return best, nil
}

// designForHorizon builds y = response shifted by -h and
// X = [1, shock_t, response lags 1..L, shock lags 1..L].
// Returns nil when no rows are usable.
func designForHorizon(series *models.AlignedSeries, h, lags int) (*mat.Dense, []float64) {
	T := series.Len()
	rows := T - h - lags
	if rows <= 0 {
		return nil, nil
	}
	cols := 2 + 2*lags

	X := mat.NewDense(rows, cols, nil)
	y := make([]float64, rows)
	for r := 0; r < rows; r++ {
		t := r + lags
		y[r] = series.Response[t+h]
		X.Set(r, 0, 1.0)
		X.Set(r, 1, series.Shock[t])
		for l := 1; l <= lags; l++ {
			X.Set(r, 1+l, series.Response[t-l])
			X.Set(r, 1+lags+l, series.Shock[t-l])
		}
	}
	return X, y
}

// fitShrinkage dispatches to the configured penalized regression. The
// intercept is never penalized.
func fitShrinkage(X *mat.Dense, y []float64, cfg Config) []float64 {
	switch cfg.Method {
	case MethodLasso:
		return coordinateDescent(X, y, cfg.Alpha, 1.0)
	case MethodElasticNet:
		return coordinateDescent(X, y, cfg.Alpha, cfg.L1Ratio)
	default:
		return ridgeClosedForm(X, y, cfg.Alpha)
	}
}

// ridgeClosedForm solves (X'X + alpha*I)beta = X'y with a zero penalty on
// the intercept column.
func ridgeClosedForm(X *mat.Dense, y []float64, alpha float64) []float64 {
	n, m := X.Dims()

	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	for j := 1; j < m; j++ {
		xtx.Set(j, j, xtx.At(j, j)+alpha)
	}
	// tiny jitter on the intercept keeps the system invertible
	xtx.Set(0, 0, xtx.At(0, 0)+1e-10)

	yv := mat.NewVecDense(n, y)
	var xty mat.VecDense
	xty.MulVec(X.T(), yv)

	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		// singular despite the penalty: retreat to the mean-only model
		coef := make([]float64, m)
		s := 0.0
		for _, v := range y {
			s += v
		}
		coef[0] = s / float64(n)
		return coef
	}
	var beta mat.VecDense
	beta.MulVec(&inv, &xty)

	coef := make([]float64, m)
	for j := 0; j < m; j++ {
		coef[j] = beta.AtVec(j)
	}
	return coef
}

// coordinateDescent fits lasso (l1Ratio=1) or elastic net by cyclic
// coordinate updates with soft thresholding.
func coordinateDescent(X *mat.Dense, y []float64, alpha, l1Ratio float64) []float64 {
	n, m := X.Dims()
	nf := float64(n)
	coef := make([]float64, m)

	// warm start from ridge keeps iteration count small
	copy(coef, ridgeClosedForm(X, y, alpha))

	resid := make([]float64, n)
	for i := 0; i < n; i++ {
		pred := 0.0
		for j := 0; j < m; j++ {
			pred += X.At(i, j) * coef[j]
		}
		resid[i] = y[i] - pred
	}

	colNorm := make([]float64, m)
	for j := 0; j < m; j++ {
		s := 0.0
		for i := 0; i < n; i++ {
			v := X.At(i, j)
			s += v * v
		}
		colNorm[j] = s / nf
	}

	l1 := alpha * l1Ratio
	l2 := alpha * (1 - l1Ratio)

	const maxIter = 200
	const tol = 1e-8
	for iter := 0; iter < maxIter; iter++ {
		maxDelta := 0.0
		for j := 0; j < m; j++ {
			old := coef[j]
			z := 0.0
			for i := 0; i < n; i++ {
				z += X.At(i, j) * (resid[i] + X.At(i, j)*old)
			}
			z /= nf

			var next float64
			if j == 0 {
				// unpenalized intercept
				if colNorm[j] > 0 {
					next = z / colNorm[j]
				}
			} else {
				denom := colNorm[j] + l2
				if denom > 0 {
					next = softThreshold(z, l1) / denom
				}
			}
			if next != old {
				d := next - old
				for i := 0; i < n; i++ {
					resid[i] -= X.At(i, j) * d
				}
				coef[j] = next
				if math.Abs(d) > maxDelta {
					maxDelta = math.Abs(d)
				}
			}
		}
		if maxDelta < tol {
			break
		}
	}
	return coef
}

func softThreshold(z, gamma float64) float64 {
	switch {
	case z > gamma:
		return z - gamma
	case z < -gamma:
		return z + gamma
	default:
		return 0
	}
}

// goodnessOfFit returns the residual sum of squares and clamped R^2.
func goodnessOfFit(X *mat.Dense, y []float64, coef []float64) (rss, r2 float64) {
	n, m := X.Dims()
	meanY := 0.0
	for _, v := range y {
		meanY += v
	}
	meanY /= float64(n)

	tss := 0.0
	for i := 0; i < n; i++ {
		pred := 0.0
		for j := 0; j < m; j++ {
			pred += X.At(i, j) * coef[j]
		}
		r := y[i] - pred
		rss += r * r
		d := y[i] - meanY
		tss += d * d
	}
	if tss > 0 {
		r2 = 1 - rss/tss
	}
	if r2 < 0 {
		r2 = 0
	}
	if r2 > 1 {
		r2 = 1
	}
	return rss, r2
}
