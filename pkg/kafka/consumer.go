package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler processes messages from one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// Consumer reads the decision topic in a consumer group. Offsets are
// committed only after the handler succeeds or the message is parked on the
// dead-letter topic, so a crash never drops an uncommitted decision.
type Consumer struct {
	cfg     ConsumerConfig
	handler MessageHandler
	reader  *kafka.Reader
	dlq     *kafka.Writer

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	cfg.normalize()
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	initHandleMetrics()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{cfg: cfg, ctx: ctx, cancel: cancel}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.Hash{}}
	}
	return c, nil
}

// RegisterHandler sets the handler; the reader is created on Start from its
// topic.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	c.handler = h
}

func (c *Consumer) Start() error {
	if c.handler == nil {
		return fmt.Errorf("no handler registered")
	}
	c.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.cfg.Brokers,
		Topic:    c.handler.Topic(),
		GroupID:  c.cfg.GroupID,
		MinBytes: c.cfg.MinBytes,
		MaxBytes: c.cfg.MaxBytes,
	})
	for i := 0; i < c.cfg.Workers; i++ {
		c.wg.Add(1)
		go c.run()
	}
	return nil
}

func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.once.Do(func() {
		c.cancel()
		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-ctx.Done():
			stopErr = fmt.Errorf("consumer stop: %w", ctx.Err())
		case <-done:
		}
		if c.reader != nil {
			if err := c.reader.Close(); err != nil && stopErr == nil {
				stopErr = err
			}
		}
		if c.dlq != nil {
			_ = c.dlq.Close()
		}
	})
	return stopErr
}

func (c *Consumer) run() {
	defer c.wg.Done()
	topic := c.handler.Topic()
	for {
		msg, err := c.reader.FetchMessage(c.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			time.Sleep(time.Second)
			continue
		}

		start := time.Now()
		handleErr := c.handleWithRetry(msg.Value)
		handleSeconds.WithLabelValues(topic).Observe(time.Since(start).Seconds())

		if handleErr != nil {
			handleFailures.WithLabelValues(topic).Inc()
			if !c.park(msg) {
				// no DLQ: leave the offset uncommitted for redelivery
				continue
			}
		}
		if err := c.reader.CommitMessages(c.ctx, msg); err != nil &&
			!errors.Is(err, context.Canceled) {
			handleFailures.WithLabelValues(topic).Inc()
		}
	}
}

func (c *Consumer) handleWithRetry(data []byte) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = c.handler.Handle(c.ctx, data)
		if err == nil || attempt > c.cfg.RetryMax {
			return err
		}
		select {
		case <-time.After(jitteredBackoff(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
		case <-c.ctx.Done():
			return err
		}
	}
}

// park sends an exhausted message to the dead-letter topic. Reports whether
// the offset should be committed.
func (c *Consumer) park(msg kafka.Message) bool {
	if c.dlq == nil {
		return false
	}
	err := c.dlq.WriteMessages(context.Background(), kafka.Message{
		Topic:   c.cfg.DLQTopic,
		Key:     msg.Key,
		Value:   msg.Value,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "source_topic", Value: []byte(c.handler.Topic())}},
	})
	return err == nil
}

func jitteredBackoff(min, max time.Duration, attempt int) time.Duration {
	d := min << uint(attempt-1)
	if d > max || d <= 0 {
		d = max
	}
	return d - time.Duration(rand.Int63n(int64(d)/2))
}

var (
	handleSeconds  *prometheus.HistogramVec
	handleFailures *prometheus.CounterVec
	handleOnce     sync.Once
)

func initHandleMetrics() {
	handleOnce.Do(func() {
		handleSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{Name: "ratecast_kafka_handle_seconds", Help: "Handler latency per decision message"},
			[]string{"topic"},
		)
		handleFailures = promauto.NewCounterVec(
			prometheus.CounterOpts{Name: "ratecast_kafka_handle_failures_total", Help: "Messages that exhausted handler retries"},
			[]string{"topic"},
		)
	})
}
