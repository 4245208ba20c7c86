package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"RateCast/internal/domain/models"
	"RateCast/internal/domain/repository"
	pkgkafka "RateCast/pkg/kafka"
)

// ClickHouseEventStore implements EventStore for ClickHouse.
type ClickHouseEventStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseEventStore creates ClickHouse event storage.
func NewClickHouseEventStore(db *sql.DB, table string) repository.EventStore {
	return &ClickHouseEventStore{db: db, table: table}
}

func (s *ClickHouseEventStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseEventStore) Store(ctx context.Context, ev *models.RateEvent) error {
	q := fmt.Sprintf("INSERT INTO %s (effective_date, series, move_bps, rate_pct, source, event_id) VALUES (?, ?, ?, ?, ?, ?)", s.table)
	// Idempotency key derived from series+effective date; the table engine
	// deduplicates on it.
	eventID := fmt.Sprintf("%s-%d", ev.Series, ev.EffectiveDate)
	_, err := s.db.ExecContext(ctx, q,
		time.Unix(ev.EffectiveDate, 0),
		ev.Series,
		ev.MoveBps,
		ev.NewRatePct,
		ev.Source,
		eventID,
	)
	return err
}

func (s *ClickHouseEventStore) StoreBatch(ctx context.Context, events []*models.RateEvent) error {
	if len(events) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips. Rate decisions arrive in
	// backfills of at most a few thousand rows, so a single chunk size works.
	const chunkSize = 2000
	for start := 0; start < len(events); start += chunkSize {
		end := start + chunkSize
		if end > len(events) {
			end = len(events)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*6)
		for _, ev := range events[start:end] {
			if ev == nil || ev.Series == "" || ev.EffectiveDate == 0 {
				continue
			}
			eventID := fmt.Sprintf("%s-%d", ev.Series, ev.EffectiveDate)
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args,
				time.Unix(ev.EffectiveDate, 0),
				ev.Series,
				ev.MoveBps,
				ev.NewRatePct,
				ev.Source,
				eventID,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (effective_date, series, move_bps, rate_pct, source, event_id) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseEventStore) Query(ctx context.Context, series string, from, to time.Time, limit int) ([]*models.RateEvent, error) {
	if limit <= 0 {
		limit = 100000
	}
	q := fmt.Sprintf("SELECT series, effective_date, move_bps, rate_pct, source FROM %s WHERE series = ? AND effective_date >= ? AND effective_date <= ? ORDER BY effective_date ASC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, series, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.RateEvent
	for rows.Next() {
		var ev models.RateEvent
		var ts time.Time
		if err := rows.Scan(&ev.Series, &ts, &ev.MoveBps, &ev.NewRatePct, &ev.Source); err != nil {
			return nil, err
		}
		ev.EffectiveDate = ts.Unix()
		events = append(events, &ev)
	}
	return events, rows.Err()
}

func (s *ClickHouseEventStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseEventStore) Close() error {
	return nil // Managed by pkg
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev *models.RateEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Series), map[string]interface{}{
		"series":   ev.Series,
		"t":        ev.EffectiveDate,
		"move_bps": ev.MoveBps,
		"rate_pct": ev.NewRatePct,
		"source":   ev.Source,
	})
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, events []*models.RateEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(events))
	for i, ev := range events {
		msgs[i] = pkgkafka.Message{
			Key: []byte(ev.Series),
			Value: map[string]interface{}{
				"series":   ev.Series,
				"t":        ev.EffectiveDate,
				"move_bps": ev.MoveBps,
				"rate_pct": ev.NewRatePct,
				"source":   ev.Source,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
