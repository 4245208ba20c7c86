package bvar

import (
	"time"

	"RateCast/internal/domain/models"

	"gonum.org/v1/gonum/mat"
)

const artifactVersion = 1

// Artifact produces the JSON-serializable snapshot of the fitted model.
// The LP bundle is attached by the orchestrator, which owns both engines.
func (f *Fitted) Artifact() *models.ModelArtifact {
	k := f.Post.K()
	_, m := f.Post.Beta.Dims()
	p := f.Post.Lags

	beta := make([][]float64, k)
	for i := 0; i < k; i++ {
		beta[i] = make([]float64, m)
		for j := 0; j < m; j++ {
			beta[i][j] = f.Post.Beta.At(i, j)
		}
	}
	sigma := make([][]float64, k)
	for i := 0; i < k; i++ {
		sigma[i] = make([]float64, k)
		for j := 0; j < k; j++ {
			sigma[i][j] = f.Post.Sigma.At(i, j)
		}
	}
	state := make([][]float64, p)
	for r := 0; r < p; r++ {
		state[r] = []float64{f.lagState.At(r, 0), f.lagState.At(r, 1)}
	}

	return &models.ModelArtifact{
		Version: artifactVersion,
		Beta:    beta,
		Sigma:   sigma,
		Lags:    p,
		PriorParams: map[string]float64{
			"lambda1":         f.Spec.Lambda1,
			"lambda2":         f.Spec.Lambda2,
			"lambda3":         f.Spec.Lambda3,
			"lambda4":         f.Spec.Lambda4,
			"intercept_mean":  f.Spec.InterceptMean,
			"intercept_sigma": f.Spec.InterceptSigma,
		},
		TrainStart:      f.TrainStart.Format(time.RFC3339),
		TrainEnd:        f.TrainEnd.Format(time.RFC3339),
		ScaleInfo:       f.ScaleInfo,
		Stable:          f.Stability.Stable,
		RSquared:        append([]float64(nil), f.Post.RSquared...),
		ConditionNumber: f.Post.CondNumber,
		LagState:        state,
		DataHash:        f.DataHash,
	}
}

// FromArtifact restores a fitted model from a snapshot. The self-check is
// strict: a snapshot that fails it is rejected outright rather than patched
// into something that produces synthetic output.
func FromArtifact(a *models.ModelArtifact) (*Fitted, error) {
	if a == nil {
		return nil, models.NewModelError(models.ErrSerializationIntegrity, "artifact is nil")
	}
	const k = 2
	p := a.Lags
	if p <= 0 {
		return nil, models.NewModelError(models.ErrSerializationIntegrity, "artifact lag order %d invalid", p)
	}
	wantCols := 1 + k*p
	if len(a.Beta) != k {
		return nil, models.NewModelError(models.ErrSerializationIntegrity,
			"beta has %d rows, want %d", len(a.Beta), k)
	}
	for i, row := range a.Beta {
		if len(row) != wantCols {
			return nil, models.NewModelError(models.ErrSerializationIntegrity,
				"beta row %d has %d columns, want %d", i, len(row), wantCols)
		}
	}
	if len(a.Sigma) != k || len(a.Sigma[0]) != k || len(a.Sigma[1]) != k {
		return nil, models.NewModelError(models.ErrSerializationIntegrity, "sigma is not 2x2")
	}
	if len(a.LagState) != p {
		return nil, models.NewModelError(models.ErrSerializationIntegrity,
			"lag state has %d rows, want %d", len(a.LagState), p)
	}

	beta := mat.NewDense(k, wantCols, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < wantCols; j++ {
			beta.Set(i, j, a.Beta[i][j])
		}
	}
	sigma := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			sigma.SetSym(i, j, (a.Sigma[i][j]+a.Sigma[j][i])/2)
		}
	}
	if cond := conditionNumber(sigma); cond <= 0 {
		return nil, models.NewModelError(models.ErrSerializationIntegrity, "sigma condition check failed")
	}
	// PSD self-check: all eigenvalues >= -1e-6
	var eig mat.EigenSym
	if !eig.Factorize(sigma, false) {
		return nil, models.NewModelError(models.ErrSerializationIntegrity, "sigma eigen factorization failed")
	}
	for _, v := range eig.Values(nil) {
		if v < -1e-6 {
			return nil, models.NewModelError(models.ErrSerializationIntegrity,
				"sigma is not PSD: eigenvalue %g", v)
		}
	}

	spec := PriorSpec{
		Lambda1:        a.PriorParams["lambda1"],
		Lambda2:        a.PriorParams["lambda2"],
		Lambda3:        a.PriorParams["lambda3"],
		Lambda4:        a.PriorParams["lambda4"],
		InterceptMean:  a.PriorParams["intercept_mean"],
		InterceptSigma: a.PriorParams["intercept_sigma"],
		Lags:           p,
	}
	if err := spec.Validate(); err != nil {
		return nil, models.WrapModelError(models.ErrSerializationIntegrity, err, "artifact prior params invalid")
	}

	r2 := a.RSquared
	if len(r2) != k {
		return nil, models.NewModelError(models.ErrSerializationIntegrity,
			"artifact r_squared has %d entries, want %d", len(r2), k)
	}
	post := &PosteriorEstimate{
		Beta:       beta,
		Sigma:      psdProject(sigma),
		Lags:       p,
		CondNumber: a.ConditionNumber,
		RSquared:   append([]float64(nil), r2...),
	}
	verdict := checkStability(post)
	irf, err := structuralIRF(post, DefaultIRFHorizon)
	if err != nil {
		return nil, models.WrapModelError(models.ErrSerializationIntegrity, err, "irf reconstruction failed")
	}

	state := mat.NewDense(p, k, nil)
	for r := 0; r < p; r++ {
		if len(a.LagState[r]) != k {
			return nil, models.NewModelError(models.ErrSerializationIntegrity,
				"lag state row %d has %d values, want %d", r, len(a.LagState[r]), k)
		}
		state.Set(r, 0, a.LagState[r][0])
		state.Set(r, 1, a.LagState[r][1])
	}

	trainStart, _ := time.Parse(time.RFC3339, a.TrainStart)
	trainEnd, _ := time.Parse(time.RFC3339, a.TrainEnd)

	f := &Fitted{
		Spec:       spec,
		Post:       post,
		Stability:  verdict,
		IRF:        irf,
		TrainStart: trainStart,
		TrainEnd:   trainEnd,
		ScaleInfo:  a.ScaleInfo,
		DataHash:   a.DataHash,
		lagState:   state,
	}
	if !verdict.Stable {
		f.Advisories = append(f.Advisories, "restored model is non-stationary")
	}
	return f, nil
}
