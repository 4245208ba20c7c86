package models

import "time"

// CycleSignal classifies the recent policy stance.
type CycleSignal struct {
	Series        string    `json:"series"`
	State         string    `json:"state"` // tightening, easing, hold
	CumulativeBps float64   `json:"cumulative_bps"`
	WindowMonths  int       `json:"window_months"`
	Timestamp     time.Time `json:"timestamp"`
}

// VolatilitySignal is the trailing standard deviation of monthly moves.
type VolatilitySignal struct {
	Series       string  `json:"series"`
	SigmaBps     float64 `json:"sigma_bps"`
	WindowMonths int     `json:"window_months"`
}

// SurpriseSignal scores the latest move against the trailing volatility.
type SurpriseSignal struct {
	Series        string  `json:"series"`
	Score         float64 `json:"score"` // standard deviations
	LatestMoveBps float64 `json:"latest_move_bps"`
}

// Diagnostics bundles model health and history signals for one response.
// Individual failures land in Errors instead of failing the whole call.
type Diagnostics struct {
	Timestamp  time.Time         `json:"timestamp"`
	Cycle      *CycleSignal      `json:"cycle,omitempty"`
	Volatility *VolatilitySignal `json:"volatility,omitempty"`
	Surprise   *SurpriseSignal   `json:"surprise,omitempty"`
	BVAR       *EvaluateResult   `json:"bvar,omitempty"`
	LP         *EvaluateResult   `json:"lp,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}
