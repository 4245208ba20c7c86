package bvar

import (
	"math"

	"RateCast/internal/domain/models"

	"gonum.org/v1/gonum/mat"
)

const (
	jitterEps     = 1e-8 // always added to the posterior precision, keeps N~20 samples invertible
	condRidge     = 1e-4 // ridge added to Sigma when badly conditioned
	condThreshold = 1e8
	eigenFloor    = 1e-8
)

// PosteriorEstimate is the immutable output of the Bayesian update:
// coefficient matrix Beta (k x 1+k*p, intercept column first) and the
// residual covariance Sigma (symmetric PSD). Produced once per fit and
// read-only thereafter.
type PosteriorEstimate struct {
	Beta  *mat.Dense
	Sigma *mat.SymDense
	Lags  int

	CondNumber float64 // condition number of Sigma before ridging
	RSquared   []float64
}

// K returns the variable count.
func (p *PosteriorEstimate) K() int {
	k, _ := p.Beta.Dims()
	return k
}

// CoefAt returns the k x k coefficient block for lag l (1-based).
func (p *PosteriorEstimate) CoefAt(l int) *mat.Dense {
	k := p.K()
	out := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			out.Set(i, j, p.Beta.At(i, 1+(l-1)*k+j))
		}
	}
	return out
}

// Intercept returns the intercept column as a slice of length k.
func (p *PosteriorEstimate) Intercept() []float64 {
	k := p.K()
	out := make([]float64, k)
	for i := 0; i < k; i++ {
		out[i] = p.Beta.At(i, 0)
	}
	return out
}

// estimatePosterior runs the per-equation regularized Bayesian update
//
//	postVar  = inv(priorVarInv + X'X + eps*I)
//	postMean = postVar * (priorVarInv*priorMean + X'y)
//
// then computes, conditions and PSD-enforces the residual covariance.
func estimatePosterior(Y, X *mat.Dense, prior *minnesotaPrior, lags int) (*PosteriorEstimate, error) {
	n, k := Y.Dims()
	_, m := X.Dims()
	if m != prior.columns() {
		return nil, models.NewModelError(models.ErrConfiguration,
			"design/prior shape mismatch: X has %d columns, prior expects %d", m, prior.columns())
	}

	var xtx mat.Dense
	xtx.Mul(X.T(), X)

	beta := mat.NewDense(k, m, nil)
	for eq := 0; eq < k; eq++ {
		// per-equation precision: priorVarInv + X'X + eps*I
		prec := mat.NewDense(m, m, nil)
		prec.Copy(&xtx)
		for c := 0; c < m; c++ {
			prec.Set(c, c, prec.At(c, c)+1.0/prior.vari[eq][c]+jitterEps)
		}

		var precInv mat.Dense
		if err := precInv.Inverse(prec); err != nil {
			return nil, models.WrapModelError(models.ErrModel, err,
				"posterior precision not invertible for equation %d", eq)
		}

		// rhs = priorVarInv*priorMean + X'y
		y := mat.NewVecDense(n, nil)
		for t := 0; t < n; t++ {
			y.SetVec(t, Y.At(t, eq))
		}
		var xty mat.VecDense
		xty.MulVec(X.T(), y)

		rhs := mat.NewVecDense(m, nil)
		for c := 0; c < m; c++ {
			rhs.SetVec(c, prior.mean[eq][c]/prior.vari[eq][c]+xty.AtVec(c))
		}

		var coef mat.VecDense
		coef.MulVec(&precInv, rhs)
		for c := 0; c < m; c++ {
			beta.Set(eq, c, coef.AtVec(c))
		}
	}

	sigma, cond, r2 := residualCovariance(Y, X, beta)

	return &PosteriorEstimate{
		Beta:       beta,
		Sigma:      sigma,
		Lags:       lags,
		CondNumber: cond,
		RSquared:   r2,
	}, nil
}

// residualCovariance computes the symmetrized residual covariance, adds a
// ridge when its condition number exceeds 1e8, and projects it onto the PSD
// cone by flooring negative eigenvalues.
func residualCovariance(Y, X, beta *mat.Dense) (*mat.SymDense, float64, []float64) {
	n, k := Y.Dims()

	var fitted mat.Dense
	fitted.Mul(X, beta.T())

	var resid mat.Dense
	resid.Sub(Y, &fitted)

	var utu mat.Dense
	utu.Mul(resid.T(), &resid)

	df := float64(n)
	data := make([]float64, k*k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			// symmetrize while scaling
			data[i*k+j] = (utu.At(i, j) + utu.At(j, i)) / (2 * df)
		}
	}
	sigma := mat.NewSymDense(k, data)

	cond := conditionNumber(sigma)
	if cond > condThreshold {
		for i := 0; i < k; i++ {
			sigma.SetSym(i, i, sigma.At(i, i)+condRidge)
		}
	}
	sigma = psdProject(sigma)

	// per-equation in-sample R^2
	r2 := make([]float64, k)
	for eq := 0; eq < k; eq++ {
		meanY := 0.0
		for t := 0; t < n; t++ {
			meanY += Y.At(t, eq)
		}
		meanY /= float64(n)
		rss, tss := 0.0, 0.0
		for t := 0; t < n; t++ {
			r := resid.At(t, eq)
			d := Y.At(t, eq) - meanY
			rss += r * r
			tss += d * d
		}
		if tss > 0 {
			r2[eq] = clamp01(1 - rss/tss)
		}
	}
	return sigma, cond, r2
}

// conditionNumber is the 2-norm condition number via the eigenvalues of the
// symmetric matrix; +Inf when the smallest eigenvalue is not positive.
func conditionNumber(s *mat.SymDense) float64 {
	var eig mat.EigenSym
	if !eig.Factorize(s, false) {
		return math.Inf(1)
	}
	vals := eig.Values(nil)
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo <= 0 {
		return math.Inf(1)
	}
	return hi / lo
}

// psdProject reconstructs the matrix with negative eigenvalues floored.
func psdProject(s *mat.SymDense) *mat.SymDense {
	k, _ := s.Dims()

	var eig mat.EigenSym
	if !eig.Factorize(s, true) {
		// factorization failure: fall back to a diagonal floor
		out := mat.NewSymDense(k, nil)
		for i := 0; i < k; i++ {
			d := s.At(i, i)
			if d < eigenFloor {
				d = eigenFloor
			}
			out.SetSym(i, i, d)
		}
		return out
	}

	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	floored := false
	for i, v := range vals {
		if v < eigenFloor {
			vals[i] = eigenFloor
			floored = true
		}
	}
	if !floored {
		return s
	}

	// V * diag(vals) * V'
	scaled := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			scaled.Set(i, j, vecs.At(i, j)*vals[j])
		}
	}
	var rec mat.Dense
	rec.Mul(scaled, vecs.T())

	out := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			out.SetSym(i, j, (rec.At(i, j)+rec.At(j, i))/2)
		}
	}
	return out
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
