package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"RateCast/internal/domain/models"
)

type recordingProc struct {
	mu     sync.Mutex
	events []*models.RateEvent
	fail   bool
}

func (p *recordingProc) Process(_ context.Context, ev *models.RateEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("downstream unavailable")
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func (p *recordingProc) setFail(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = v
}

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{errors: make(map[string]int)}
}

func (m *countingMetrics) RecordEventIngested(string, string) {}
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}
func (m *countingMetrics) RecordLastRate(string, float64) {}
func (m *countingMetrics) RecordLatency(string, float64)  {}
func (m *countingMetrics) RecordForecast(string)          {}

func (m *countingMetrics) errCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func testEvent(series string, date int64) *models.RateEvent {
	return &models.RateEvent{
		Series:        series,
		EffectiveDate: date,
		MoveBps:       25,
		NewRatePct:    3.5,
		Source:        "test",
	}
}

func TestPipelineForwardsValidEvents(t *testing.T) {
	proc := &recordingProc{}
	p := NewRealtimePipeline(proc, newCountingMetrics())

	if err := p.Process(context.Background(), testEvent("policy", 100)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("forwarded %d events, want 1", proc.count())
	}
}

func TestPipelineRejectsInvalidEvents(t *testing.T) {
	proc := &recordingProc{}
	m := newCountingMetrics()
	p := NewRealtimePipeline(proc, m)

	cases := []*models.RateEvent{
		nil,
		{Series: "", EffectiveDate: 100, NewRatePct: 3},
		{Series: "policy", EffectiveDate: 0, NewRatePct: 3},
		{Series: "policy", EffectiveDate: 100, NewRatePct: 500},
	}
	for i, ev := range cases {
		if err := p.Process(context.Background(), ev); err == nil {
			t.Fatalf("case %d accepted", i)
		}
	}
	if proc.count() != 0 {
		t.Fatalf("invalid events reached downstream")
	}
	if m.errCount("pipeline_validate") != len(cases) {
		t.Fatalf("validate errors = %d, want %d", m.errCount("pipeline_validate"), len(cases))
	}
}

func TestPipelineDeduplicatesPerSeries(t *testing.T) {
	proc := &recordingProc{}
	m := newCountingMetrics()
	p := NewRealtimePipeline(proc, m)

	ctx := context.Background()
	if err := p.Process(ctx, testEvent("policy", 200)); err != nil {
		t.Fatalf("first: %v", err)
	}
	// replayed announcement: same date, silently dropped
	if err := p.Process(ctx, testEvent("policy", 200)); err != nil {
		t.Fatalf("duplicate must not error: %v", err)
	}
	// stale announcement
	if err := p.Process(ctx, testEvent("policy", 150)); err != nil {
		t.Fatalf("stale must not error: %v", err)
	}
	// other series is independent
	if err := p.Process(ctx, testEvent("interbank", 150)); err != nil {
		t.Fatalf("other series: %v", err)
	}
	// newer decision passes
	if err := p.Process(ctx, testEvent("policy", 300)); err != nil {
		t.Fatalf("newer: %v", err)
	}

	if proc.count() != 3 {
		t.Fatalf("forwarded %d events, want 3", proc.count())
	}
	if m.errCount("pipeline_duplicate") != 2 {
		t.Fatalf("duplicate drops = %d, want 2", m.errCount("pipeline_duplicate"))
	}
}

func TestPipelineBuffersOnDownstreamFailure(t *testing.T) {
	proc := &recordingProc{}
	proc.setFail(true)
	p := NewRealtimePipeline(proc, newCountingMetrics(), WithBufferSize(10))

	ctx := context.Background()
	if err := p.Process(ctx, testEvent("policy", 400)); err == nil {
		t.Fatalf("expected downstream error")
	}

	proc.setFail(false)
	p.Start(ctx)
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for proc.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if proc.count() != 1 {
		t.Fatalf("buffered event not flushed")
	}
}

func TestPipelineTransform(t *testing.T) {
	proc := &recordingProc{}
	p := NewRealtimePipeline(proc, newCountingMetrics(), WithTransform(func(ev *models.RateEvent) *models.RateEvent {
		ev.Source = "normalized"
		return ev
	}))
	if err := p.Process(context.Background(), testEvent("policy", 500)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.events[0].Source != "normalized" {
		t.Fatalf("transform not applied")
	}
}
