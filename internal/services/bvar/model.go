package bvar

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"RateCast/internal/domain/models"
	"RateCast/internal/services/align"

	"gonum.org/v1/gonum/mat"
)

// DefaultIRFHorizon is how far the cached impulse responses extend.
const DefaultIRFHorizon = 24

// Fitted is an immutable snapshot of an estimated BVAR: posterior, stability
// verdict and structural IRFs, plus the lag state and audit metadata. A
// Fitted value is produced once by Fit and is safe to share across
// concurrent inference calls; each forecast owns its RNG.
type Fitted struct {
	Spec      PriorSpec
	Post      *PosteriorEstimate
	Stability StabilityVerdict
	IRF       *IRFSet

	TrainStart time.Time
	TrainEnd   time.Time
	ScaleInfo  map[string]float64
	DataHash   string
	Advisories []string

	lagState *mat.Dense // last p observations, oldest row first
}

// Fit estimates the model on the aligned series. Estimation-time errors
// abort the whole fit; small-sample and instability findings come back as
// advisories on the result.
func Fit(series *models.AlignedSeries, spec PriorSpec) (*Fitted, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	const k = 2
	p := spec.Lags

	var advisories []string
	if series.Len() < p+5 {
		advisories = append(advisories, fmt.Sprintf(
			"small sample: %d aligned months for %d lags; estimates lean heavily on the prior",
			series.Len(), p))
	}

	Y, X, err := align.DesignMatrices(series, p)
	if err != nil {
		return nil, err
	}

	prior, scaleInfo, err := buildPrior(spec, series, k)
	if err != nil {
		return nil, err
	}

	post, err := estimatePosterior(Y, X, prior, p)
	if err != nil {
		return nil, err
	}

	verdict := checkStability(post)
	if !verdict.Stable {
		advisories = append(advisories, fmt.Sprintf(
			"non-stationary dynamics: max companion eigenvalue modulus %.4f >= 1; forecasts may diverge at long horizons",
			verdict.MaxEigenModulus))
	}

	irf, err := structuralIRF(post, DefaultIRFHorizon)
	if err != nil {
		return nil, err
	}

	// lag state: last p rows, oldest first
	state := mat.NewDense(p, k, nil)
	T := series.Len()
	for i := 0; i < p; i++ {
		state.Set(i, 0, series.Shock[T-p+i])
		state.Set(i, 1, series.Response[T-p+i])
	}

	return &Fitted{
		Spec:       spec,
		Post:       post,
		Stability:  verdict,
		IRF:        irf,
		TrainStart: series.Dates[0],
		TrainEnd:   series.Dates[T-1],
		ScaleInfo:  scaleInfo,
		DataHash:   hashSeries(series),
		Advisories: advisories,
		lagState:   state,
	}, nil
}

// Evaluate reports model diagnostics for the response equation.
func (f *Fitted) Evaluate() models.EvaluateResult {
	peakH, peakV := f.IRF.PeakResponseHorizon()
	return models.EvaluateResult{
		RSquared:        f.Post.RSquared[1],
		Stable:          f.Stability.Stable,
		MaxEigenModulus: f.Stability.MaxEigenModulus,
		ConditionNumber: f.Post.CondNumber,
		IRF: models.IRFSummary{
			PeakHorizon:     peakH,
			PeakResponseBps: peakV,
			Horizon1Bps:     f.IRF.ShockResponse(1, 1),
			CumulativeBps:   f.IRF.Cumulative(1),
		},
		Advisories: f.Advisories,
	}
}

func hashSeries(s *models.AlignedSeries) string {
	h := sha256.New()
	buf := make([]byte, 8)
	for i := 0; i < s.Len(); i++ {
		binary.LittleEndian.PutUint64(buf, uint64(s.Dates[i].Unix()))
		h.Write(buf)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(s.Shock[i]))
		h.Write(buf)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(s.Response[i]))
		h.Write(buf)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
