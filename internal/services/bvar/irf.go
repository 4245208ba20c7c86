package bvar

import (
	"math"

	"RateCast/internal/domain/models"

	"gonum.org/v1/gonum/mat"
)

// IRFSet holds horizon-indexed structural impulse responses under the fixed
// causal ordering (shock variable first) and the unit-shock convention
// L[0,0] = 1. Responses[h] is the k x k matrix at horizon h, h = 0..H.
// Cached on the fitted model, invalidated only by re-estimation.
type IRFSet struct {
	Horizon   int
	Responses []*mat.Dense
}

// ShockResponse returns the response of variable idx at horizon h to the
// unit shock in the first variable.
func (s *IRFSet) ShockResponse(h, idx int) float64 {
	if h < 0 || h >= len(s.Responses) {
		return 0
	}
	return s.Responses[h].At(idx, 0)
}

// PeakResponseHorizon returns the horizon (>= 1) where the response
// variable's absolute reaction peaks, together with the signed peak value.
func (s *IRFSet) PeakResponseHorizon() (int, float64) {
	peakH, peakV := 1, 0.0
	for h := 1; h <= s.Horizon; h++ {
		v := s.ShockResponse(h, 1)
		if math.Abs(v) > math.Abs(peakV) {
			peakH, peakV = h, v
		}
	}
	return peakH, peakV
}

// Cumulative returns the summed response of variable idx over h = 0..H.
func (s *IRFSet) Cumulative(idx int) float64 {
	total := 0.0
	for h := 0; h <= s.Horizon; h++ {
		total += s.ShockResponse(h, idx)
	}
	return total
}

// structuralIRF Cholesky-factors Sigma + eps*I (with a PSD projection
// retry), normalizes the factor to a unit first shock, and propagates it
// through the companion form: IRF(0) = L, IRF(h) = (F^h)[0:k,0:k] * L.
func structuralIRF(post *PosteriorEstimate, horizon int) (*IRFSet, error) {
	k := post.K()

	// jittered copy for factorization
	jittered := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			v := post.Sigma.At(i, j)
			if i == j {
				v += jitterEps
			}
			jittered.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(jittered) {
		projected := psdProject(jittered)
		for i := 0; i < k; i++ {
			projected.SetSym(i, i, projected.At(i, i)+jitterEps)
		}
		if !chol.Factorize(projected) {
			return nil, models.NewModelError(models.ErrModel,
				"residual covariance is not positive definite even after projection")
		}
	}

	L := mat.NewTriDense(k, mat.Lower, nil)
	chol.LTo(L)

	// unit-shock normalization
	scale := L.At(0, 0)
	if scale == 0 {
		return nil, models.NewModelError(models.ErrModel, "degenerate shock variance: L[0,0] = 0")
	}
	impact := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			impact.Set(i, j, L.At(i, j)/scale)
		}
	}

	F := companionMatrix(post)
	dim, _ := F.Dims()

	set := &IRFSet{Horizon: horizon, Responses: make([]*mat.Dense, horizon+1)}
	set.Responses[0] = impact

	// running power of F
	Fh := mat.NewDense(dim, dim, nil)
	Fh.Copy(F)
	for h := 1; h <= horizon; h++ {
		top := mat.DenseCopyOf(Fh.Slice(0, k, 0, k))
		resp := mat.NewDense(k, k, nil)
		resp.Mul(top, impact)
		set.Responses[h] = resp

		if h < horizon {
			var next mat.Dense
			next.Mul(Fh, F)
			Fh.Copy(&next)
		}
	}
	return set, nil
}
