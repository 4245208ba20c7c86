package models

import "time"

// RateEvent represents a single policy-rate decision event as it arrives
// from a feed or a store: the bank moved (or held) its policy rate.
type RateEvent struct {
	Series        string  `json:"series"`         // series code, e.g. "FED_FUNDS", "ECB_DFR"
	EffectiveDate int64   `json:"effective_date"` // unix seconds of the decision taking effect
	MoveBps       float64 `json:"move_bps"`       // signed move in basis points (0 = hold)
	NewRatePct    float64 `json:"new_rate_pct"`   // resulting rate level in percent
	Source        string  `json:"source"`         // feed identifier
}

// Time returns the effective date as time.Time.
func (e *RateEvent) Time() time.Time { return time.Unix(e.EffectiveDate, 0).UTC() }

// AlignedSeries holds a shock and a response rate-move series synchronized
// onto a common monthly grid. Both slices have equal length and Dates is
// strictly increasing month by month with no gaps.
type AlignedSeries struct {
	Dates    []time.Time
	Shock    []float64 // monthly shock-variable moves, bps
	Response []float64 // monthly response-variable moves, bps
}

// Len returns the number of monthly observations.
func (s *AlignedSeries) Len() int { return len(s.Dates) }

// MeetingDate is one upcoming scheduled decision date in the calendar.
type MeetingDate struct {
	Date  time.Time
	Label string // e.g. "2026-09 ECB Governing Council"
}
