package repository

// Series identifies a rate time series tracked by the system.
type Series string

const (
	SeriesPolicy    Series = "policy"
	SeriesInterbank Series = "interbank"
	SeriesDeposit   Series = "deposit"
)

// IsValidSeries returns true if s is a supported series.
func IsValidSeries(s Series) bool {
	switch s {
	case SeriesPolicy, SeriesInterbank, SeriesDeposit:
		return true
	default:
		return false
	}
}

// DefaultSeries returns the default response series.
func DefaultSeries() Series { return SeriesInterbank }

// NormalizeSeries converts a raw string to a valid series (or default).
func NormalizeSeries(raw string) Series {
	if raw == "" {
		return DefaultSeries()
	}
	s := Series(raw)
	if IsValidSeries(s) {
		return s
	}
	return DefaultSeries()
}
