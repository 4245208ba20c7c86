package queue

import (
	"context"
	"encoding/json"
	"time"
)

// Job handles one message type pulled off the queue.
type Job interface {
	Type() string
	Handle(ctx context.Context, payload json.RawMessage) error
}

// Config sizes the worker pool and retry behavior.
type Config struct {
	Workers    int
	RetryLimit int
	RetryDelay time.Duration
	Prefix     string
}

func (c *Config) normalize() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 10 * time.Second
	}
	if c.Prefix == "" {
		c.Prefix = "ratecast:queue"
	}
}

// message is the wire envelope on the redis list.
type message struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}
