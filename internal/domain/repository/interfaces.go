package repository

import (
	"context"
	"time"

	"RateCast/internal/domain/models"
)

type RateStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.RateEvent, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type Publisher interface {
	Publish(ctx context.Context, ev *models.RateEvent) error
	PublishBatch(ctx context.Context, events []*models.RateEvent) error
	Close() error
}

type EventStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, ev *models.RateEvent) error
	StoreBatch(ctx context.Context, events []*models.RateEvent) error
	Query(ctx context.Context, series string, from, to time.Time, limit int) ([]*models.RateEvent, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type CalendarSource interface {
	UpcomingMeetings(ctx context.Context, after time.Time, limit int) ([]models.MeetingDate, error)
}

type ArtifactStore interface {
	Save(ctx context.Context, name string, art *models.ModelArtifact) error
	Load(ctx context.Context, name string) (*models.ModelArtifact, error)
}

type Metrics interface {
	RecordEventIngested(source, series string)
	RecordError(kind string)
	RecordLastRate(series string, pct float64)
	RecordLatency(op string, seconds float64)
	RecordForecast(engine string)
}
