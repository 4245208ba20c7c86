package bvar

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func posteriorWithCoefs(lags int, blocks ...[]float64) *PosteriorEstimate {
	k := 2
	beta := mat.NewDense(k, 1+k*lags, nil)
	for l, block := range blocks {
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				beta.Set(i, 1+l*k+j, block[i*k+j])
			}
		}
	}
	return &PosteriorEstimate{Beta: beta, Sigma: mat.NewSymDense(k, nil), Lags: lags}
}

func TestCheckStabilityStableCoefficients(t *testing.T) {
	post := posteriorWithCoefs(1, []float64{0.5, 0, 0, 0.3})
	v := checkStability(post)
	if !v.Stable {
		t.Fatalf("diag(0.5, 0.3) flagged unstable, max modulus %v", v.MaxEigenModulus)
	}
	if math.Abs(v.MaxEigenModulus-0.5) > 1e-9 {
		t.Fatalf("max modulus = %v, want 0.5", v.MaxEigenModulus)
	}
}

func TestCheckStabilityUnitRootAndExplosive(t *testing.T) {
	unit := checkStability(posteriorWithCoefs(1, []float64{1.0, 0, 0, 0.2}))
	if unit.Stable {
		t.Fatalf("unit root flagged stable")
	}
	explosive := checkStability(posteriorWithCoefs(1, []float64{1.1, 0, 0, 0.2}))
	if explosive.Stable || math.Abs(explosive.MaxEigenModulus-1.1) > 1e-9 {
		t.Fatalf("explosive verdict %+v", explosive)
	}
}

func TestCheckStabilityTwoLags(t *testing.T) {
	// lag-2 only: lambda^2 = 1.21 gives modulus 1.1
	post := posteriorWithCoefs(2,
		[]float64{0, 0, 0, 0},
		[]float64{1.21, 0, 0, 0})
	v := checkStability(post)
	if v.Stable {
		t.Fatalf("lag-2 explosive process flagged stable")
	}
	if math.Abs(v.MaxEigenModulus-1.1) > 1e-6 {
		t.Fatalf("max modulus = %v, want 1.1", v.MaxEigenModulus)
	}

	damped := posteriorWithCoefs(2,
		[]float64{0.4, 0, 0, 0.4},
		[]float64{0.1, 0, 0, 0.1})
	if got := checkStability(damped); !got.Stable {
		t.Fatalf("damped lag-2 process flagged unstable, max modulus %v", got.MaxEigenModulus)
	}
}
