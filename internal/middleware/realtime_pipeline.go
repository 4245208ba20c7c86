package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"RateCast/internal/domain/models"
	domrepo "RateCast/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, ev *models.RateEvent) error
}

// RealtimePipeline sits between the rate feed and the downstream backend.
// It validates, deduplicates repeated decision announcements, and buffers
// when downstream is unavailable.
type RealtimePipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	bufSize int
	bufCh   chan *models.RateEvent
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	// per-series effective date of the last accepted event
	lastAccepted map[string]int64
	// optional format transform hook
	transform func(*models.RateEvent) *models.RateEvent

	bufDepthGauge func(int)
}

type PipelineOption func(*RealtimePipeline)

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a transformation hook to normalize the event format.
func WithTransform(fn func(*models.RateEvent) *models.RateEvent) PipelineOption {
	return func(p *RealtimePipeline) { p.transform = fn }
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:         proc,
		metrics:      metrics,
		bufSize:      1000,
		bufCh:        make(chan *models.RateEvent, 1000),
		stopCh:       make(chan struct{}),
		lastAccepted: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.RateEvent, p.bufSize)
	}
	p.bufDepthGauge = func(n int) { p.metrics.RecordLatency("pipeline_buffer_depth", float64(n)) }
	return p
}

// Start launches background flushing of buffered events.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case ev := <-p.bufCh:
				if ev == nil {
					continue
				}
				if err := p.proc.Process(ctx, ev); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- ev:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, deduplicates and forwards an event downstream,
// buffering on errors.
func (p *RealtimePipeline) Process(ctx context.Context, ev *models.RateEvent) error {
	start := time.Now()
	if err := validateEvent(ev); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		ev = p.transform(ev)
		if err := validateEvent(ev); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.accept(ev) {
		// repeated announcement of a decision already seen
		p.metrics.RecordError("pipeline_duplicate")
		return nil
	}

	if err := p.proc.Process(ctx, ev); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- ev:
			if p.bufDepthGauge != nil {
				p.bufDepthGauge(len(p.bufCh))
			}
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateEvent(ev *models.RateEvent) error {
	if ev == nil {
		return fmt.Errorf("event nil")
	}
	if ev.Series == "" {
		return fmt.Errorf("series empty")
	}
	if ev.EffectiveDate <= 0 {
		return fmt.Errorf("effective date invalid")
	}
	if ev.NewRatePct < -5 || ev.NewRatePct > 100 {
		return fmt.Errorf("rate level out of range")
	}
	return nil
}

// accept admits an event only if it is newer than the last accepted decision
// for its series. Feeds replay the same announcement on reconnect.
func (p *RealtimePipeline) accept(ev *models.RateEvent) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if last, ok := p.lastAccepted[ev.Series]; ok && ev.EffectiveDate <= last {
		return false
	}
	p.lastAccepted[ev.Series] = ev.EffectiveDate
	return true
}
