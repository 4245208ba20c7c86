package bvar

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"RateCast/internal/domain/models"

	"gonum.org/v1/gonum/mat"
)

// syntheticSeries simulates a stable bivariate system where the response
// follows roughly 0.3 of the previous shock plus noise.
func syntheticSeries(n int, seed int64) *models.AlignedSeries {
	rng := rand.New(rand.NewSource(seed))
	s := &models.AlignedSeries{
		Dates:    make([]time.Time, n),
		Shock:    make([]float64, n),
		Response: make([]float64, n),
	}
	base := time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)
	prevShock := 0.0
	for i := 0; i < n; i++ {
		s.Dates[i] = base.AddDate(0, i, 0)
		shock := 25*float64(rng.Intn(3)-1) + rng.NormFloat64()
		s.Shock[i] = shock
		s.Response[i] = 0.3*prevShock + 5*rng.NormFloat64()
		prevShock = shock
	}
	return s
}

func TestFitProducesStableModel(t *testing.T) {
	series := syntheticSeries(120, 7)
	f, err := Fit(series, DefaultPriorSpec())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if !f.Stability.Stable {
		t.Fatalf("synthetic stationary system judged non-stationary: max modulus %v",
			f.Stability.MaxEigenModulus)
	}
	if f.Stability.MaxEigenModulus >= 1 {
		t.Fatalf("max eigen modulus = %v", f.Stability.MaxEigenModulus)
	}
	if len(f.Advisories) != 0 {
		t.Fatalf("unexpected advisories: %v", f.Advisories)
	}
	if f.DataHash == "" {
		t.Fatalf("data hash empty")
	}
}

func TestFitSigmaIsPSD(t *testing.T) {
	series := syntheticSeries(80, 3)
	f, err := Fit(series, DefaultPriorSpec())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	var eig mat.EigenSym
	if !eig.Factorize(f.Post.Sigma, false) {
		t.Fatalf("sigma factorization failed")
	}
	for _, v := range eig.Values(nil) {
		if v < -1e-10 {
			t.Fatalf("sigma has negative eigenvalue %v", v)
		}
	}
	var chol mat.Cholesky
	if !chol.Factorize(f.Post.Sigma) {
		t.Fatalf("sigma does not Cholesky-factor")
	}
}

func TestFitSmallSampleAdvisory(t *testing.T) {
	series := syntheticSeries(6, 1)
	f, err := Fit(series, DefaultPriorSpec())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if len(f.Advisories) == 0 {
		t.Fatalf("expected a small-sample advisory")
	}
}

func TestFitRejectsBadPrior(t *testing.T) {
	spec := DefaultPriorSpec()
	spec.Lambda1 = -1
	if _, err := Fit(syntheticSeries(50, 1), spec); !models.IsErrKind(err, models.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestIRFUnitShockNormalization(t *testing.T) {
	f, err := Fit(syntheticSeries(120, 7), DefaultPriorSpec())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if got := f.IRF.ShockResponse(0, 0); math.Abs(got-1) > 1e-12 {
		t.Fatalf("impact shock response = %v, want 1", got)
	}
	// a stable system's responses decay toward zero
	late := math.Abs(f.IRF.ShockResponse(DefaultIRFHorizon, 1))
	if late > 1 {
		t.Fatalf("late-horizon response did not decay: %v", late)
	}
}

func TestConditionalForecastDeterministicForSeed(t *testing.T) {
	f, err := Fit(syntheticSeries(120, 7), DefaultPriorSpec())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	cfg := MonteCarloConfig{Draws: 400, ExtendPolicy: ExtendHold}
	shock := []float64{25, 0}

	a, err := f.ConditionalForecast(shock, 6, cfg, 42)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	b, err := f.ConditionalForecast(shock, 6, cfg, 42)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	for i := range a.Horizons {
		if a.Horizons[i] != b.Horizons[i] {
			t.Fatalf("horizon %d differs across identical seeds", i+1)
		}
	}

	c, err := f.ConditionalForecast(shock, 6, cfg, 43)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if a.Horizons[0].Mean == c.Horizons[0].Mean {
		t.Fatalf("different seeds produced identical draws")
	}
}

func TestConditionalForecastBandsOrdered(t *testing.T) {
	f, err := Fit(syntheticSeries(120, 7), DefaultPriorSpec())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	path, err := f.ConditionalForecast([]float64{50}, 6, DefaultMonteCarloConfig(), 1)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(path.Horizons) != 6 {
		t.Fatalf("horizons = %d, want 6", len(path.Horizons))
	}
	for _, h := range path.Horizons {
		if !(h.CI95Lower <= h.CI80Lower && h.CI80Lower <= h.Mean &&
			h.Mean <= h.CI80Upper && h.CI80Upper <= h.CI95Upper) {
			t.Fatalf("bands out of order at horizon %d: %+v", h.Horizon, h)
		}
		if h.Std <= 0 {
			t.Fatalf("std = %v at horizon %d", h.Std, h.Horizon)
		}
	}
}

// contemporaneousSeries simulates a response that loads 0.3 on the same
// month's shock plus noise.
func contemporaneousSeries(n int, seed int64) *models.AlignedSeries {
	rng := rand.New(rand.NewSource(seed))
	s := &models.AlignedSeries{
		Dates:    make([]time.Time, n),
		Shock:    make([]float64, n),
		Response: make([]float64, n),
	}
	base := time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		s.Dates[i] = base.AddDate(0, i, 0)
		shock := 25*float64(rng.Intn(3)-1) + rng.NormFloat64()
		s.Shock[i] = shock
		s.Response[i] = 0.3*shock + 5*rng.NormFloat64()
	}
	return s
}

func TestConditionalForecastContemporaneousPassThrough(t *testing.T) {
	// response loads 0.3 on the same month's shock, so imposing a 25-bp
	// shock must pull the horizon-1 mean to roughly +7.5 bps immediately
	f, err := Fit(contemporaneousSeries(50, 42), DefaultPriorSpec())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	path, err := f.ConditionalForecast([]float64{25, 25, 25, 25}, 4, DefaultMonteCarloConfig(), 42)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	h := path.At(1)
	if h == nil {
		t.Fatalf("horizon 1 missing")
	}
	if h.Mean <= 0 {
		t.Fatalf("horizon-1 mean = %v, want positive pass-through", h.Mean)
	}
	if math.Abs(h.Mean-7.5) > 4 {
		t.Fatalf("horizon-1 mean = %v, want near 7.5 bps", h.Mean)
	}
	if h.CI95Lower > 7.5 || h.CI95Upper < 7.5 {
		t.Fatalf("7.5 bps outside CI95 [%v, %v]", h.CI95Lower, h.CI95Upper)
	}
}

func TestConditionalForecastLaggedTransmission(t *testing.T) {
	// response tracks 0.3 of last month's shock; a 25-bp shock shows up
	// around 7.5 bps one month after impact
	f, err := Fit(syntheticSeries(240, 11), DefaultPriorSpec())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	path, err := f.ConditionalForecast([]float64{25}, 3, DefaultMonteCarloConfig(), 5)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	h := path.At(2)
	if h == nil {
		t.Fatalf("horizon 2 missing")
	}
	if h.CI95Lower > 7.5 || h.CI95Upper < 7.5 {
		t.Fatalf("7.5 bps outside CI95 [%v, %v]", h.CI95Lower, h.CI95Upper)
	}
}

func TestExtendPolicies(t *testing.T) {
	path := []float64{25, 50}
	if got := imposedShockAt(path, 2, ExtendHold); got != 50 {
		t.Fatalf("within-path value = %v", got)
	}
	if got := imposedShockAt(path, 5, ExtendHold); got != 50 {
		t.Fatalf("hold extension = %v, want 50", got)
	}
	if got := imposedShockAt(path, 5, ExtendZero); got != 0 {
		t.Fatalf("zero extension = %v, want 0", got)
	}
}

func TestForecastInputValidation(t *testing.T) {
	f, err := Fit(syntheticSeries(60, 2), DefaultPriorSpec())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if _, err := f.ConditionalForecast(nil, 6, DefaultMonteCarloConfig(), 0); !models.IsErrKind(err, models.ErrConfiguration) {
		t.Fatalf("empty shock path: %v", err)
	}
	if _, err := f.ConditionalForecast([]float64{25}, 0, DefaultMonteCarloConfig(), 0); !models.IsErrKind(err, models.ErrConfiguration) {
		t.Fatalf("zero horizons: %v", err)
	}
	bad := MonteCarloConfig{Draws: 100, ExtendPolicy: "loop"}
	if _, err := f.ConditionalForecast([]float64{25}, 6, bad, 0); !models.IsErrKind(err, models.ErrConfiguration) {
		t.Fatalf("bad extend policy: %v", err)
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	f, err := Fit(syntheticSeries(120, 7), DefaultPriorSpec())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	art := f.Artifact()

	restored, err := FromArtifact(art)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	origEval := f.Evaluate()
	restEval := restored.Evaluate()
	if math.Abs(origEval.RSquared-restEval.RSquared) > 1e-12 {
		t.Fatalf("r-squared drifted: %v vs %v", origEval.RSquared, restEval.RSquared)
	}
	if origEval.Stable != restEval.Stable {
		t.Fatalf("stability verdict drifted")
	}
	if restored.DataHash != f.DataHash {
		t.Fatalf("data hash drifted")
	}

	// restored model forecasts identically for the same seed
	cfg := MonteCarloConfig{Draws: 200, ExtendPolicy: ExtendHold}
	a, err := f.ConditionalForecast([]float64{25}, 4, cfg, 9)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	b, err := restored.ConditionalForecast([]float64{25}, 4, cfg, 9)
	if err != nil {
		t.Fatalf("restored forecast: %v", err)
	}
	for i := range a.Horizons {
		if math.Abs(a.Horizons[i].Mean-b.Horizons[i].Mean) > 1e-9 {
			t.Fatalf("restored forecast differs at horizon %d", i+1)
		}
	}
}

func TestFromArtifactRejectsCorruption(t *testing.T) {
	f, err := Fit(syntheticSeries(60, 2), DefaultPriorSpec())
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	art := f.Artifact()
	art.Beta = art.Beta[:1]
	if _, err := FromArtifact(art); !models.IsErrKind(err, models.ErrSerializationIntegrity) {
		t.Fatalf("truncated beta accepted: %v", err)
	}

	art = f.Artifact()
	art.LagState = nil
	if _, err := FromArtifact(art); !models.IsErrKind(err, models.ErrSerializationIntegrity) {
		t.Fatalf("missing lag state accepted: %v", err)
	}

	if _, err := FromArtifact(nil); !models.IsErrKind(err, models.ErrSerializationIntegrity) {
		t.Fatalf("nil artifact accepted: %v", err)
	}
}
