package distribution

import (
	"RateCast/internal/domain/models"
)

// CalendarConfig selects the geometric decay applied when spreading an
// aggregate move probability across scheduled decision dates. The decay is
// chosen by when the impulse response peaks: a fast-peaking response
// front-loads the probability, a slow one spreads it further out.
type CalendarConfig struct {
	DecayFast   float64 `yaml:"decay_fast" json:"decay_fast"`     // peak within FastHorizon
	DecayMid    float64 `yaml:"decay_mid" json:"decay_mid"`       // peak within MidHorizon
	DecaySlow   float64 `yaml:"decay_slow" json:"decay_slow"`     // later peaks
	FastHorizon int     `yaml:"fast_horizon" json:"fast_horizon"` // months
	MidHorizon  int     `yaml:"mid_horizon" json:"mid_horizon"`   // months
	MaxMeetings int     `yaml:"max_meetings" json:"max_meetings"` // calendar entries considered
}

// DefaultCalendarConfig carries the decay schedule used for policy-rate
// pass-through.
func DefaultCalendarConfig() CalendarConfig {
	return CalendarConfig{
		DecayFast:   0.60,
		DecayMid:    0.55,
		DecaySlow:   0.45,
		FastHorizon: 2,
		MidHorizon:  4,
		MaxMeetings: 6,
	}
}

// Validate rejects decay rates outside (0,1) and degenerate windows.
func (c CalendarConfig) Validate() error {
	for _, d := range []float64{c.DecayFast, c.DecayMid, c.DecaySlow} {
		if d <= 0 || d >= 1 {
			return models.NewModelError(models.ErrConfiguration, "decay rates must be in (0,1), got %g", d)
		}
	}
	if c.FastHorizon <= 0 || c.MidHorizon <= c.FastHorizon {
		return models.NewModelError(models.ErrConfiguration,
			"horizon windows must satisfy 0 < fast < mid, got fast=%d mid=%d", c.FastHorizon, c.MidHorizon)
	}
	if c.MaxMeetings <= 0 {
		return models.NewModelError(models.ErrConfiguration, "max meetings must be > 0, got %d", c.MaxMeetings)
	}
	return nil
}

// DecayFor picks the decay rate for a given peak-response horizon in months.
func (c CalendarConfig) DecayFor(peakHorizon int) float64 {
	switch {
	case peakHorizon <= c.FastHorizon:
		return c.DecayFast
	case peakHorizon <= c.MidHorizon:
		return c.DecayMid
	default:
		return c.DecaySlow
	}
}

// MapToCalendar distributes aggregateP, the total probability that the
// expected move materializes, over the upcoming meetings with geometric
// weights (1-d)*d^i. The weights are renormalized over the meetings actually
// available so the allocations always sum back to aggregateP.
func MapToCalendar(meetings []models.MeetingDate, aggregateP float64, deltaBps int, peakHorizon int, cfg CalendarConfig) ([]models.CalendarAllocation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(meetings) == 0 {
		return nil, models.NewModelError(models.ErrInsufficientData, "no upcoming meetings to allocate probability to")
	}
	n := len(meetings)
	if n > cfg.MaxMeetings {
		n = cfg.MaxMeetings
	}

	d := cfg.DecayFor(peakHorizon)
	weights := make([]float64, n)
	total := 0.0
	w := 1.0 - d
	for i := 0; i < n; i++ {
		weights[i] = w
		total += w
		w *= d
	}

	out := make([]models.CalendarAllocation, n)
	for i := 0; i < n; i++ {
		out[i] = models.CalendarAllocation{
			Date:        meetings[i].Date,
			Label:       meetings[i].Label,
			DeltaBps:    deltaBps,
			Probability: aggregateP * weights[i] / total,
		}
	}
	return out, nil
}
