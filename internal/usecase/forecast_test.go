package usecase

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"RateCast/internal/domain/models"
	"RateCast/pkg/logger"
)

// In-memory doubles for the orchestrator's collaborators.

type memEventStore struct {
	mu     sync.Mutex
	events map[string][]*models.RateEvent
	fail   bool
}

func newMemEventStore() *memEventStore {
	return &memEventStore{events: make(map[string][]*models.RateEvent)}
}

func (s *memEventStore) Init(context.Context) error { return nil }

func (s *memEventStore) Store(_ context.Context, ev *models.RateEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.Series] = append(s.events[ev.Series], ev)
	return nil
}

func (s *memEventStore) StoreBatch(ctx context.Context, evs []*models.RateEvent) error {
	for _, ev := range evs {
		if err := s.Store(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *memEventStore) Query(_ context.Context, series string, from, to time.Time, limit int) ([]*models.RateEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, fmt.Errorf("store down")
	}
	var out []*models.RateEvent
	for _, ev := range s.events[series] {
		ts := ev.Time()
		if ts.Before(from) || ts.After(to) {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *memEventStore) Health(context.Context) error { return nil }
func (s *memEventStore) Close() error                 { return nil }

type fakeCalendar struct {
	meetings []models.MeetingDate
	err      error
}

func (c *fakeCalendar) UpcomingMeetings(context.Context, time.Time, int) ([]models.MeetingDate, error) {
	return c.meetings, c.err
}

type memArtifactStore struct {
	mu   sync.Mutex
	arts map[string]*models.ModelArtifact
}

func newMemArtifactStore() *memArtifactStore {
	return &memArtifactStore{arts: make(map[string]*models.ModelArtifact)}
}

func (s *memArtifactStore) Save(_ context.Context, name string, art *models.ModelArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arts[name] = art
	return nil
}

func (s *memArtifactStore) Load(_ context.Context, name string) (*models.ModelArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	art, ok := s.arts[name]
	if !ok {
		return nil, fmt.Errorf("artifact %q not found", name)
	}
	return art, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordEventIngested(string, string) {}
func (nopMetrics) RecordError(string)                 {}
func (nopMetrics) RecordLastRate(string, float64)     {}
func (nopMetrics) RecordLatency(string, float64)      {}
func (nopMetrics) RecordForecast(string)              {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// seedHistory writes a decade of synthetic monthly decisions for both
// configured series, with the response trailing 0.3 of last month's shock.
func seedHistory(t *testing.T, store *memEventStore, cfg ForecastConfig) {
	t.Helper()
	rng := rand.New(rand.NewSource(21))
	ctx := context.Background()
	start := time.Now().UTC().AddDate(-10, 0, 0)
	prev := 0.0
	for i := 0; i < 120; i++ {
		date := start.AddDate(0, i, 0)
		shock := 25 * float64(rng.Intn(3)-1)
		resp := 0.3*prev + 4*rng.NormFloat64()
		prev = shock
		if err := store.Store(ctx, &models.RateEvent{
			Series:        cfg.ShockSeries,
			EffectiveDate: date.Unix(),
			MoveBps:       shock,
			NewRatePct:    3,
			Source:        "test",
		}); err != nil {
			t.Fatalf("seed shock: %v", err)
		}
		if err := store.Store(ctx, &models.RateEvent{
			Series:        cfg.ResponseSeries,
			EffectiveDate: date.Unix(),
			MoveBps:       resp,
			NewRatePct:    3,
			Source:        "test",
		}); err != nil {
			t.Fatalf("seed response: %v", err)
		}
	}
}

func fittedOrchestrator(t *testing.T, cal *fakeCalendar) (*ForecastOrchestrator, *memArtifactStore) {
	t.Helper()
	cfg := DefaultForecastConfig()
	cfg.Bootstrap.Replications = 100
	cfg.MonteCarlo.Draws = 300

	store := newMemEventStore()
	seedHistory(t, store, cfg)

	arts := newMemArtifactStore()
	orch := NewForecastOrchestrator(store, cal, arts, nopMetrics{}, testLogger(t), cfg)
	if err := orch.Refit(context.Background()); err != nil {
		t.Fatalf("refit: %v", err)
	}
	return orch, arts
}

func upcomingMeetings(n int) []models.MeetingDate {
	out := make([]models.MeetingDate, n)
	base := time.Now().UTC().AddDate(0, 1, 0)
	for i := range out {
		out[i] = models.MeetingDate{Date: base.AddDate(0, i, 0), Label: "decision"}
	}
	return out
}

func TestPredictAssemblesFullResult(t *testing.T) {
	orch, _ := fittedOrchestrator(t, &fakeCalendar{meetings: upcomingMeetings(6)})

	res, err := orch.Predict(context.Background(), &models.PredictRequest{
		Engine:       "bvar",
		ShockPathBps: []float64{25},
		Horizons:     6,
		ExtendPolicy: "hold",
		Seed:         42,
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	if res.Engine != "bvar" {
		t.Fatalf("engine = %q", res.Engine)
	}
	if res.ExpectedMoveBps%25 != 0 {
		t.Fatalf("expected move %d not on grid", res.ExpectedMoveBps)
	}
	if res.HorizonLabel != "6m" {
		t.Fatalf("label = %q", res.HorizonLabel)
	}
	total := 0.0
	for _, p := range res.Distribution {
		total += p.Probability
	}
	if math.Abs(total-1) > 1e-9 {
		t.Fatalf("distribution mass = %v", total)
	}
	if len(res.PerMeeting) == 0 {
		t.Fatalf("per-meeting allocation missing")
	}
	if res.ProbabilityOfMove != res.PerMeeting[0].Probability {
		t.Fatalf("probability of move %v != first allocation %v",
			res.ProbabilityOfMove, res.PerMeeting[0].Probability)
	}
	if res.Rationale == "" {
		t.Fatalf("rationale empty")
	}
	if res.CI95Bps[0] > res.CI80Bps[0] || res.CI80Bps[1] > res.CI95Bps[1] {
		t.Fatalf("bands out of order: %v %v", res.CI80Bps, res.CI95Bps)
	}
}

func TestPredictDeterministicForSeed(t *testing.T) {
	orch, _ := fittedOrchestrator(t, &fakeCalendar{meetings: upcomingMeetings(4)})
	req := &models.PredictRequest{Engine: "bvar", ShockPathBps: []float64{25, 0}, Horizons: 4, Seed: 7}

	a, err := orch.Predict(context.Background(), req)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	b, err := orch.Predict(context.Background(), req)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if a.ExpectedMoveBps != b.ExpectedMoveBps || a.CI95Bps != b.CI95Bps {
		t.Fatalf("identical seeds disagreed: %+v vs %+v", a, b)
	}
}

func TestPredictLPEngine(t *testing.T) {
	orch, _ := fittedOrchestrator(t, &fakeCalendar{meetings: upcomingMeetings(4)})

	res, err := orch.Predict(context.Background(), &models.PredictRequest{
		Engine:       "lp",
		ShockPathBps: []float64{25},
		Horizons:     4,
	})
	if err != nil {
		t.Fatalf("predict lp: %v", err)
	}
	if res.Engine != "lp" {
		t.Fatalf("engine = %q", res.Engine)
	}
	total := 0.0
	for _, p := range res.Distribution {
		total += p.Probability
	}
	if math.Abs(total-1) > 1e-9 {
		t.Fatalf("distribution mass = %v", total)
	}
}

func TestPredictUnknownEngine(t *testing.T) {
	orch, _ := fittedOrchestrator(t, &fakeCalendar{meetings: upcomingMeetings(2)})
	_, err := orch.Predict(context.Background(), &models.PredictRequest{
		Engine:       "arima",
		ShockPathBps: []float64{25},
		Horizons:     3,
	})
	if !models.IsErrKind(err, models.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestWarmStartPrefersSnapshot(t *testing.T) {
	cal := &fakeCalendar{meetings: upcomingMeetings(2)}
	fitted, arts := fittedOrchestrator(t, cal)
	if err := fitted.Snapshot(context.Background(), "latest"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	// empty event store, so only the snapshot can make this one servable
	cold := NewForecastOrchestrator(newMemEventStore(), cal, arts,
		nopMetrics{}, testLogger(t), DefaultForecastConfig())
	if err := cold.WarmStart(context.Background(), "latest"); err != nil {
		t.Fatalf("warm start: %v", err)
	}
	if !cold.Fitted() {
		t.Fatalf("snapshot restore left orchestrator unfitted")
	}
}

func TestWarmStartFallsBackToRefit(t *testing.T) {
	cfg := DefaultForecastConfig()
	cfg.Bootstrap.Replications = 100
	cfg.MonteCarlo.Draws = 300
	store := newMemEventStore()
	seedHistory(t, store, cfg)

	cal := &fakeCalendar{meetings: upcomingMeetings(2)}
	fresh := NewForecastOrchestrator(store, cal, newMemArtifactStore(),
		nopMetrics{}, testLogger(t), cfg)
	if err := fresh.WarmStart(context.Background(), "latest"); err != nil {
		t.Fatalf("warm start: %v", err)
	}
	if !fresh.Fitted() {
		t.Fatalf("refit fallback left orchestrator unfitted")
	}

	bare := NewForecastOrchestrator(newMemEventStore(), cal, newMemArtifactStore(),
		nopMetrics{}, testLogger(t), DefaultForecastConfig())
	if err := bare.WarmStart(context.Background(), "latest"); err == nil {
		t.Fatalf("no snapshot and no data must surface an error")
	}
}

func TestPredictEmptyShockPath(t *testing.T) {
	orch, _ := fittedOrchestrator(t, &fakeCalendar{meetings: upcomingMeetings(2)})
	for _, engine := range []string{"lp", "bvar", ""} {
		_, err := orch.Predict(context.Background(), &models.PredictRequest{
			Engine:   engine,
			Horizons: 3,
		})
		if !models.IsErrKind(err, models.ErrConfiguration) {
			t.Fatalf("engine %q: expected configuration error, got %v", engine, err)
		}
	}
}

func TestPredictWithoutFitReturnsModelError(t *testing.T) {
	orch := NewForecastOrchestrator(newMemEventStore(), &fakeCalendar{}, newMemArtifactStore(),
		nopMetrics{}, testLogger(t), DefaultForecastConfig())
	_, err := orch.Predict(context.Background(), &models.PredictRequest{
		ShockPathBps: []float64{25}, Horizons: 3,
	})
	if !models.IsErrKind(err, models.ErrModel) {
		t.Fatalf("expected model error, got %v", err)
	}
}

func TestPredictCalendarUnavailableDegrades(t *testing.T) {
	orch, _ := fittedOrchestrator(t, &fakeCalendar{err: fmt.Errorf("calendar down")})

	res, err := orch.Predict(context.Background(), &models.PredictRequest{
		Engine:       "bvar",
		ShockPathBps: []float64{25},
		Horizons:     3,
		Seed:         1,
	})
	if err != nil {
		t.Fatalf("predict must degrade, not fail: %v", err)
	}
	if len(res.PerMeeting) != 0 {
		t.Fatalf("per-meeting allocation present without a calendar")
	}
	found := false
	for _, a := range res.Advisories {
		if a == "meeting calendar unavailable, per-meeting allocation skipped" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing degradation advisory: %v", res.Advisories)
	}
}

func TestEvaluateBothEngines(t *testing.T) {
	orch, _ := fittedOrchestrator(t, &fakeCalendar{meetings: upcomingMeetings(2)})
	ctx := context.Background()

	bv, err := orch.Evaluate(ctx, &models.EvaluateRequest{Engine: "bvar"})
	if err != nil {
		t.Fatalf("bvar evaluate: %v", err)
	}
	if bv.RSquared < 0 || bv.RSquared > 1 {
		t.Fatalf("bvar r-squared = %v", bv.RSquared)
	}
	if bv.IRF.PeakHorizon < 1 {
		t.Fatalf("peak horizon = %d", bv.IRF.PeakHorizon)
	}

	lpRes, err := orch.Evaluate(ctx, &models.EvaluateRequest{Engine: "lp"})
	if err != nil {
		t.Fatalf("lp evaluate: %v", err)
	}
	if len(lpRes.LPHorizonR2) == 0 {
		t.Fatalf("lp per-horizon fit missing")
	}
	if !lpRes.Stable {
		t.Fatalf("lp evaluate must not report instability")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	cal := &fakeCalendar{meetings: upcomingMeetings(4)}
	orch, arts := fittedOrchestrator(t, cal)
	ctx := context.Background()

	if err := orch.Snapshot(ctx, "latest"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	// a cold orchestrator sharing the artifact store restores to the same state
	cfg := DefaultForecastConfig()
	cold := NewForecastOrchestrator(newMemEventStore(), cal, arts, nopMetrics{}, testLogger(t), cfg)
	if cold.Fitted() {
		t.Fatalf("cold orchestrator claims to be fitted")
	}
	if err := cold.Restore(ctx, "latest"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !cold.Fitted() {
		t.Fatalf("restore did not fit the orchestrator")
	}

	req := &models.PredictRequest{Engine: "bvar", ShockPathBps: []float64{25}, Horizons: 4, Seed: 3}
	a, err := orch.Predict(ctx, req)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	b, err := cold.Predict(ctx, req)
	if err != nil {
		t.Fatalf("restored predict: %v", err)
	}
	if a.ExpectedMoveBps != b.ExpectedMoveBps {
		t.Fatalf("restored model predicts differently: %d vs %d", a.ExpectedMoveBps, b.ExpectedMoveBps)
	}
}

func TestSnapshotWithoutModel(t *testing.T) {
	orch := NewForecastOrchestrator(newMemEventStore(), &fakeCalendar{}, newMemArtifactStore(),
		nopMetrics{}, testLogger(t), DefaultForecastConfig())
	if err := orch.Snapshot(context.Background(), "x"); !models.IsErrKind(err, models.ErrModel) {
		t.Fatalf("expected model error, got %v", err)
	}
}

func TestMoveToAllocate(t *testing.T) {
	pts := []models.DistributionPoint{
		{DeltaBps: -50, Probability: 0.05},
		{DeltaBps: -25, Probability: 0.30},
		{DeltaBps: 0, Probability: 0.40},
		{DeltaBps: 25, Probability: 0.25},
	}

	// expected move set: probability is the same-sign mass
	delta, p := moveToAllocate(pts, -25)
	if delta != -25 || math.Abs(p-0.35) > 1e-12 {
		t.Fatalf("negative expected: delta=%d p=%v", delta, p)
	}

	// expected rounds to zero: most probable non-zero bin carries the
	// total non-zero mass
	delta, p = moveToAllocate(pts, 0)
	if delta != -25 || math.Abs(p-0.60) > 1e-12 {
		t.Fatalf("zero expected: delta=%d p=%v", delta, p)
	}
}
