package kafka

import "time"

// ProducerConfig tunes the shared writer. Messages are keyed by rate series,
// so the writer always hash-balances to keep per-series ordering.
type ProducerConfig struct {
	Brokers      []string
	Compression  string
	RequiredAcks int
	MaxAttempts  int
	BatchSize    int
	BatchBytes   int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	Async        bool
}

func (c *ProducerConfig) normalize() {
	if c.Compression == "" {
		c.Compression = "gzip"
	}
	if c.RequiredAcks == 0 {
		c.RequiredAcks = -1
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.BatchBytes <= 0 {
		c.BatchBytes = 1 << 20
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
}

// ConsumerConfig tunes the decision-feed consumer group.
type ConsumerConfig struct {
	Brokers    []string
	GroupID    string
	Workers    int
	RetryMax   int
	BackoffMin time.Duration
	BackoffMax time.Duration
	DLQTopic   string
	MinBytes   int
	MaxBytes   int
}

func (c *ConsumerConfig) normalize() {
	if c.GroupID == "" {
		c.GroupID = "ratecast"
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.RetryMax <= 0 {
		c.RetryMax = 3
	}
	if c.BackoffMin <= 0 {
		c.BackoffMin = 50 * time.Millisecond
	}
	if c.BackoffMax < c.BackoffMin {
		c.BackoffMax = 2 * time.Second
	}
	if c.MinBytes <= 0 {
		c.MinBytes = 10e3
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10e6
	}
}
