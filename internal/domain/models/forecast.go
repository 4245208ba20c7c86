package models

import "time"

// HorizonForecast is the per-horizon output of a conditional forecast:
// the response-variable move distribution summary under the imposed shock.
type HorizonForecast struct {
	Horizon      int     // months ahead, >= 1
	ImposedShock float64 // shock value imposed at this horizon, bps
	Mean         float64 // mean response move, bps
	Std          float64 // standard deviation of response move, bps
	CI80Lower    float64 // 10th percentile
	CI80Upper    float64 // 90th percentile
	CI95Lower    float64 // 2.5th percentile
	CI95Upper    float64 // 97.5th percentile
}

// ForecastPath is a full multi-step conditional forecast. Horizons are
// strictly increasing. The path is created per inference call and is not
// retained by the model.
type ForecastPath struct {
	Horizons []HorizonForecast
	Engine   string // "bvar" or "lp"
	Seed     int64
}

// At returns the forecast for horizon h, or nil if the path does not
// contain it.
func (p *ForecastPath) At(h int) *HorizonForecast {
	for i := range p.Horizons {
		if p.Horizons[i].Horizon == h {
			return &p.Horizons[i]
		}
	}
	return nil
}

// DistributionPoint is one discretized outcome: a rate move that is a
// multiple of 25 bps and its probability. A full set sums to 1.0.
type DistributionPoint struct {
	DeltaBps    int     `json:"delta_bps"`
	Probability float64 `json:"probability"`
}

// CalendarAllocation assigns a slice of the aggregate move probability to
// one upcoming scheduled decision date.
type CalendarAllocation struct {
	Date        time.Time `json:"date"`
	Label       string    `json:"label,omitempty"`
	DeltaBps    int       `json:"delta_bps"`
	Probability float64   `json:"probability"`
}

// PredictResult is the assembled response of a predict call.
type PredictResult struct {
	ExpectedMoveBps   int                  `json:"expected_move_bps"` // rounded to nearest 25
	HorizonLabel      string               `json:"horizon_label"`
	ProbabilityOfMove float64              `json:"probability_of_move_by_next_meeting"`
	CI80Bps           [2]float64           `json:"ci80_bps"`
	CI95Bps           [2]float64           `json:"ci95_bps"`
	PerMeeting        []CalendarAllocation `json:"per_meeting"`
	Distribution      []DistributionPoint  `json:"distribution"`
	Rationale         string               `json:"rationale"`
	Engine            string               `json:"engine"`
	Advisories        []string             `json:"advisories,omitempty"`
}

// IRFSummary condenses the structural impulse responses for reporting.
type IRFSummary struct {
	PeakHorizon     int     `json:"peak_horizon"`
	PeakResponseBps float64 `json:"peak_response_bps"`
	Horizon1Bps     float64 `json:"horizon1_bps"`
	CumulativeBps   float64 `json:"cumulative_bps"`
}

// EvaluateResult reports model diagnostics.
type EvaluateResult struct {
	RSquared        float64         `json:"r_squared"`
	Stable          bool            `json:"stable"`
	MaxEigenModulus float64         `json:"max_eigen_modulus"`
	ConditionNumber float64         `json:"condition_number"`
	IRF             IRFSummary      `json:"irf_summary"`
	LPHorizonR2     map[int]float64 `json:"lp_horizon_r2,omitempty"`
	Advisories      []string        `json:"advisories,omitempty"`
}
