package usecase

import (
	"context"
	"fmt"
	"time"

	"RateCast/internal/domain/models"
	drepo "RateCast/internal/domain/repository"
)

// EventProcessor routes rate events to the configured backend.
type EventProcessor struct {
	pub     drepo.Publisher
	store   drepo.EventStore
	metrics drepo.Metrics
	backend string
	batchSz int
	batchTO time.Duration
}

// NewEventProcessor creates a new EventProcessor instance.
func NewEventProcessor(
	pub drepo.Publisher,
	store drepo.EventStore,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *EventProcessor {
	return &EventProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
		batchTO: batchTO,
	}
}

// Process routes a single rate event to the configured backend.
func (p *EventProcessor) Process(ctx context.Context, ev *models.RateEvent) error {
	if ev == nil {
		return fmt.Errorf("event is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, ev)
	case "clickhouse":
		err = p.store.Store(ctx, ev)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process event: %w", err)
	}

	p.metrics.RecordEventIngested(p.backend, ev.Series)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes multiple rate events in a batch.
func (p *EventProcessor) ProcessBatch(ctx context.Context, events []*models.RateEvent) error {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, events)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, events)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, ev := range events {
		p.metrics.RecordEventIngested(p.backend, ev.Series)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *EventProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
