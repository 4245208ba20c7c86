package align

import (
	"fmt"
	"sort"
	"time"

	"RateCast/internal/domain/models"

	"gonum.org/v1/gonum/mat"
)

// Aligner synchronizes two event-driven policy-rate series onto a common
// monthly grid and builds the lagged design matrices the estimators consume.
type Aligner struct{}

func New() *Aligner { return &Aligner{} }

// monthIndex counts months since year 0 so grid arithmetic is gap-free.
func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func monthStart(idx int) time.Time {
	return time.Date(idx/12, time.Month(idx%12+1), 1, 0, 0, 0, 0, time.UTC)
}

// Align buckets both event series into calendar months and returns the
// synchronized move series over the overlapping span. Months with no
// decision carry a zero move (the level is forward-filled, so its monthly
// change is zero). Within one month multiple decisions sum.
func (a *Aligner) Align(shock, response []*models.RateEvent) (*models.AlignedSeries, error) {
	if len(shock) == 0 || len(response) == 0 {
		return nil, models.NewModelError(models.ErrInsufficientData,
			"empty input series: shock=%d response=%d events", len(shock), len(response))
	}

	shockByMonth := bucketByMonth(shock)
	respByMonth := bucketByMonth(response)

	sFirst, sLast := spanOf(shockByMonth)
	rFirst, rLast := spanOf(respByMonth)

	first := maxInt(sFirst, rFirst)
	last := minInt(sLast, rLast)
	if last < first {
		return nil, models.NewModelError(models.ErrInsufficientData,
			"series do not overlap: shock span ends %s, response span starts %s",
			monthStart(sLast).Format("2006-01"), monthStart(rFirst).Format("2006-01"))
	}

	n := last - first + 1
	out := &models.AlignedSeries{
		Dates:    make([]time.Time, n),
		Shock:    make([]float64, n),
		Response: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		idx := first + i
		out.Dates[i] = monthStart(idx)
		out.Shock[i] = shockByMonth[idx]
		out.Response[i] = respByMonth[idx]
	}
	return out, nil
}

func bucketByMonth(events []*models.RateEvent) map[int]float64 {
	m := make(map[int]float64, len(events))
	for _, e := range events {
		if e == nil {
			continue
		}
		m[monthIndex(e.Time())] += e.MoveBps
	}
	return m
}

func spanOf(byMonth map[int]float64) (first, last int) {
	keys := make([]int, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys[0], keys[len(keys)-1]
}

// DesignMatrices builds the stacked regression system for a VAR(p) on the
// aligned series with the shock variable ordered first:
//
//	Y  : (T-p) x 2 rows of [shock_t, response_t]
//	X  : (T-p) x (1 + 2p) rows of [1, y_{t-1}, ..., y_{t-p}]
//
// Returns an error when T <= p.
func DesignMatrices(s *models.AlignedSeries, p int) (Y, X *mat.Dense, err error) {
	if p <= 0 {
		return nil, nil, fmt.Errorf("lag order must be > 0, got %d", p)
	}
	T := s.Len()
	if T <= p {
		return nil, nil, models.NewModelError(models.ErrInsufficientData,
			"need more than %d observations for %d lags, got %d", p, p, T)
	}

	const k = 2
	rows := T - p
	cols := 1 + k*p

	Y = mat.NewDense(rows, k, nil)
	X = mat.NewDense(rows, cols, nil)

	for t := 0; t < rows; t++ {
		Y.Set(t, 0, s.Shock[t+p])
		Y.Set(t, 1, s.Response[t+p])

		X.Set(t, 0, 1.0) // intercept
		col := 1
		for lag := 1; lag <= p; lag++ {
			src := t + p - lag
			X.Set(t, col, s.Shock[src])
			X.Set(t, col+1, s.Response[src])
			col += k
		}
	}
	return Y, X, nil
}

// ValueMatrix returns the aligned observations as a T x 2 matrix with the
// shock variable in column 0, matching the fixed causal ordering.
func ValueMatrix(s *models.AlignedSeries) *mat.Dense {
	T := s.Len()
	m := mat.NewDense(T, 2, nil)
	for t := 0; t < T; t++ {
		m.Set(t, 0, s.Shock[t])
		m.Set(t, 1, s.Response[t])
	}
	return m
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
