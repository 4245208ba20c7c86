package usecase

import (
	"context"
	"testing"
	"time"

	"RateCast/internal/domain/models"
	"RateCast/internal/services/features"
)

func TestDiagnosticsAggregates(t *testing.T) {
	cfg := DefaultForecastConfig()
	cfg.Bootstrap.Replications = 50

	store := newMemEventStore()
	seedHistory(t, store, cfg)

	orch := NewForecastOrchestrator(store, &fakeCalendar{}, newMemArtifactStore(),
		nopMetrics{}, testLogger(t), cfg)
	if err := orch.Refit(context.Background()); err != nil {
		t.Fatalf("refit: %v", err)
	}

	uc := NewDiagnosticsUseCase(orch, store, cfg.ShockSeries)
	res, err := uc.Get(context.Background(), DiagnosticsParams{WindowMonths: 12})
	if err != nil {
		t.Fatalf("diagnostics: %v", err)
	}

	if res.BVAR == nil || res.LP == nil {
		t.Fatalf("model evaluations missing: %+v", res)
	}
	if res.Cycle == nil || res.Volatility == nil {
		t.Fatalf("history signals missing")
	}
	switch res.Cycle.State {
	case features.CycleTightening, features.CycleEasing, features.CycleHold:
	default:
		t.Fatalf("unknown cycle state %q", res.Cycle.State)
	}
	if res.Cycle.WindowMonths != 12 {
		t.Fatalf("window = %d", res.Cycle.WindowMonths)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestDiagnosticsIsolatesFailures(t *testing.T) {
	// unfitted orchestrator: both evaluations fail, history still works
	store := newMemEventStore()
	now := time.Now().UTC()
	for i := 0; i < 6; i++ {
		_ = store.Store(context.Background(), &models.RateEvent{
			Series:        "policy",
			EffectiveDate: now.AddDate(0, -i, 0).Unix(),
			MoveBps:       25,
			NewRatePct:    3,
			Source:        "test",
		})
	}
	orch := NewForecastOrchestrator(store, &fakeCalendar{}, newMemArtifactStore(),
		nopMetrics{}, testLogger(t), DefaultForecastConfig())

	uc := NewDiagnosticsUseCase(orch, store, "policy")
	res, err := uc.Get(context.Background(), DiagnosticsParams{})
	if err != nil {
		t.Fatalf("diagnostics: %v", err)
	}
	if res.BVAR != nil || res.LP != nil {
		t.Fatalf("unfitted models reported evaluations")
	}
	if res.Errors["bvar"] == "" || res.Errors["lp"] == "" {
		t.Fatalf("missing per-engine errors: %v", res.Errors)
	}
	if res.Cycle == nil {
		t.Fatalf("history signal should still be present")
	}
	if res.Cycle.State != features.CycleTightening {
		t.Fatalf("cycle = %q, want tightening", res.Cycle.State)
	}
}
