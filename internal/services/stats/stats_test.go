package stats

import (
	"math"
	"testing"
)

func TestQuantileInterpolates(t *testing.T) {
	xs := []float64{4, 1, 3, 2}
	if got := Quantile(xs, 0.5); got != 2.5 {
		t.Fatalf("median = %v, want 2.5", got)
	}
	if got := Quantile(xs, 0); got != 1 {
		t.Fatalf("min = %v, want 1", got)
	}
	if got := Quantile(xs, 1); got != 4 {
		t.Fatalf("max = %v, want 4", got)
	}
}

func TestQuantileEmpty(t *testing.T) {
	if got := Quantile(nil, 0.5); !math.IsNaN(got) {
		t.Fatalf("expected NaN, got %v", got)
	}
}

func TestQuantileDoesNotMutateInput(t *testing.T) {
	xs := []float64{3, 1, 2}
	Quantile(xs, 0.5)
	if xs[0] != 3 || xs[1] != 1 || xs[2] != 2 {
		t.Fatalf("input mutated: %v", xs)
	}
}

func TestMeanVariance(t *testing.T) {
	xs := []float64{2, 4, 6}
	if got := Mean(xs); got != 4 {
		t.Fatalf("mean = %v, want 4", got)
	}
	if got := Variance(xs); math.Abs(got-8.0/3.0) > 1e-12 {
		t.Fatalf("variance = %v, want %v", got, 8.0/3.0)
	}
	if got := StdDev(xs); math.Abs(got-math.Sqrt(8.0/3.0)) > 1e-12 {
		t.Fatalf("stddev = %v", got)
	}
}

func TestDiffVariance(t *testing.T) {
	// constant increments have zero diff variance
	if got := DiffVariance([]float64{1, 2, 3, 4}); got != 0 {
		t.Fatalf("diff variance of linear series = %v, want 0", got)
	}
	if got := DiffVariance([]float64{5}); got != 0 {
		t.Fatalf("short series = %v, want 0", got)
	}
}

func TestNormalCDF(t *testing.T) {
	if got := NormalCDF(0); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("Phi(0) = %v, want 0.5", got)
	}
	if got := NormalCDF(1.96); math.Abs(got-0.975) > 1e-3 {
		t.Fatalf("Phi(1.96) = %v, want ~0.975", got)
	}
	lo, hi := NormalCDF(-6), NormalCDF(6)
	if lo > 1e-8 || hi < 1-1e-8 {
		t.Fatalf("tails not saturated: %v %v", lo, hi)
	}
}
