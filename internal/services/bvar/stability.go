package bvar

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// StabilityVerdict reports whether the fitted VAR is stationary. Instability
// is advisory: the model stays usable, callers surface the flag.
type StabilityVerdict struct {
	Stable          bool    `json:"stable"`
	MaxEigenModulus float64 `json:"max_eigen_modulus"`
}

// companionMatrix builds the first-order companion form F of the VAR(p):
// top block row [A_1 ... A_p], identity blocks of size k(p-1) below the
// diagonal shifting the state.
func companionMatrix(post *PosteriorEstimate) *mat.Dense {
	k := post.K()
	p := post.Lags
	dim := k * p

	F := mat.NewDense(dim, dim, nil)
	for l := 1; l <= p; l++ {
		A := post.CoefAt(l)
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				F.Set(i, (l-1)*k+j, A.At(i, j))
			}
		}
	}
	for i := k; i < dim; i++ {
		F.Set(i, i-k, 1.0)
	}
	return F
}

// checkStability computes the companion eigenvalues and compares the
// largest modulus against 1.
func checkStability(post *PosteriorEstimate) StabilityVerdict {
	F := companionMatrix(post)

	var eig mat.Eigen
	if !eig.Factorize(F, mat.EigenNone) {
		// eigenvalue failure is treated as non-stationary, not as an error
		return StabilityVerdict{Stable: false, MaxEigenModulus: 0}
	}

	maxMod := 0.0
	for _, v := range eig.Values(nil) {
		if m := cmplx.Abs(v); m > maxMod {
			maxMod = m
		}
	}
	return StabilityVerdict{Stable: maxMod < 1.0, MaxEigenModulus: maxMod}
}
