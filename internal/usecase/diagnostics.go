package usecase

import (
	"context"
	"sync"
	"time"

	"RateCast/internal/domain/models"
	drepo "RateCast/internal/domain/repository"
	"RateCast/internal/services/features"
)

// DiagnosticsUseCase aggregates model health and history signals.
type DiagnosticsUseCase struct {
	orch    *ForecastOrchestrator
	events  drepo.EventStore
	series  string
	timeout time.Duration
}

func NewDiagnosticsUseCase(orch *ForecastOrchestrator, events drepo.EventStore, series string) *DiagnosticsUseCase {
	return &DiagnosticsUseCase{orch: orch, events: events, series: series, timeout: 10 * time.Second}
}

type DiagnosticsParams struct {
	WindowMonths int
}

func (uc *DiagnosticsUseCase) Get(ctx context.Context, p DiagnosticsParams) (*models.Diagnostics, error) {
	if p.WindowMonths <= 0 {
		p.WindowMonths = 12
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res := &models.Diagnostics{
		Timestamp: time.Now().UTC(),
		Errors:    map[string]string{},
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.orch.Evaluate(ctx, &models.EvaluateRequest{Engine: "bvar"})
		ch <- item{"bvar", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.orch.Evaluate(ctx, &models.EvaluateRequest{Engine: "lp"})
		ch <- item{"lp", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.historySignals(ctx, p.WindowMonths)
		ch <- item{"history", v, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			res.Errors[it.name] = it.err.Error()
			continue
		}
		switch it.name {
		case "bvar":
			res.BVAR = it.val.(*models.EvaluateResult)
		case "lp":
			res.LP = it.val.(*models.EvaluateResult)
		case "history":
			h := it.val.(historySignals)
			res.Cycle = h.cycle
			res.Volatility = h.vol
			res.Surprise = h.surprise
		}
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}

type historySignals struct {
	cycle    *models.CycleSignal
	vol      *models.VolatilitySignal
	surprise *models.SurpriseSignal
}

func (uc *DiagnosticsUseCase) historySignals(ctx context.Context, window int) (historySignals, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, -2*window, 0)
	events, err := uc.events.Query(ctx, uc.series, from, to, 0)
	if err != nil {
		return historySignals{}, err
	}
	moves := make([]float64, 0, len(events))
	for _, ev := range events {
		moves = append(moves, ev.MoveBps)
	}

	now := time.Now().UTC()
	out := historySignals{
		cycle: &models.CycleSignal{
			Series:        uc.series,
			State:         features.DetectCycle(moves, window, 25),
			CumulativeBps: features.CumulativeMove(moves, window),
			WindowMonths:  window,
			Timestamp:     now,
		},
		vol: &models.VolatilitySignal{
			Series:       uc.series,
			SigmaBps:     features.MoveVolatility(moves, min(window, len(moves))),
			WindowMonths: window,
		},
	}
	if len(moves) > 0 {
		out.surprise = &models.SurpriseSignal{
			Series:        uc.series,
			Score:         features.SurpriseScore(moves, window),
			LatestMoveBps: moves[len(moves)-1],
		}
	}
	return out, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
