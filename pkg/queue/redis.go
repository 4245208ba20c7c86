package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"RateCast/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Worker consumes a redis list with a small pool, retrying failed messages
// through a sorted set and parking exhausted ones on a dead-letter list.
// Refit requests are the only traffic, so there is one queue per prefix.
type Worker struct {
	log    *logger.Logger
	cfg    Config
	client *redis.Client
	jobs   map[string]Job

	wg      sync.WaitGroup
	cancel  context.CancelFunc
	ctx     context.Context
	running bool
	mu      sync.Mutex
}

func New(l *logger.Logger, cfg Config, client *redis.Client, jobs ...Job) *Worker {
	cfg.normalize()
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		log:    l,
		cfg:    cfg,
		client: client,
		jobs:   make(map[string]Job, len(jobs)),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, j := range jobs {
		w.jobs[j.Type()] = j
	}
	return w
}

func (w *Worker) listKey() string  { return w.cfg.Prefix + ":messages" }
func (w *Worker) retryKey() string { return w.cfg.Prefix + ":retry" }
func (w *Worker) dlqKey() string   { return w.cfg.Prefix + ":dlq" }

// Start verifies connectivity and launches the pool plus the retry scanner.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("queue already running")
	}

	pingCtx, cancel := context.WithTimeout(w.ctx, 5*time.Second)
	defer cancel()
	if err := w.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	w.running = true
	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go w.consume(i)
	}
	w.wg.Add(1)
	go w.scanRetries()

	w.log.Info("refit queue started",
		logger.Int("workers", w.cfg.Workers),
		logger.String("prefix", w.cfg.Prefix))
	return nil
}

// Stop cancels the pool and waits for in-flight handlers up to ctx.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("queue stop: %w", ctx.Err())
	case <-done:
		w.log.Info("refit queue stopped")
		return nil
	}
}

// Enqueue pushes a message for the named job type.
func (w *Worker) Enqueue(ctx context.Context, jobType string, payload any) error {
	if _, ok := w.jobs[jobType]; !ok {
		return fmt.Errorf("no job registered for type %q", jobType)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	msg := message{
		ID:         strconv.FormatInt(time.Now().UnixNano(), 10),
		Type:       jobType,
		Payload:    raw,
		EnqueuedAt: time.Now(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return w.client.LPush(ctx, w.listKey(), data).Err()
}

func (w *Worker) consume(id int) {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		res, err := w.client.BRPop(w.ctx, time.Second, w.listKey()).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.log.Error("queue pop error", logger.Int("worker", id), logger.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if len(res) < 2 {
			continue
		}

		var msg message
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			w.log.Error("queue decode error", logger.Error(err))
			continue
		}
		w.dispatch(msg)
	}
}

func (w *Worker) dispatch(msg message) {
	job, ok := w.jobs[msg.Type]
	if !ok {
		w.log.Error("unknown message type", logger.String("type", msg.Type))
		return
	}
	err := job.Handle(w.ctx, msg.Payload)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}

	w.log.Error("job failed",
		logger.String("type", msg.Type),
		logger.Int("attempt", msg.Attempts+1),
		logger.Error(err))

	data, merr := json.Marshal(messageWithAttempt(msg))
	if merr != nil {
		w.log.Error("queue encode error", logger.Error(merr))
		return
	}
	if msg.Attempts+1 > w.cfg.RetryLimit {
		if err := w.client.LPush(context.Background(), w.dlqKey(), data).Err(); err != nil {
			w.log.Error("dead-letter push error", logger.Error(err))
		}
		return
	}
	due := float64(time.Now().Add(w.cfg.RetryDelay).Unix())
	if err := w.client.ZAdd(context.Background(), w.retryKey(), redis.Z{Score: due, Member: data}).Err(); err != nil {
		w.log.Error("retry schedule error", logger.Error(err))
	}
}

func messageWithAttempt(msg message) message {
	msg.Attempts++
	return msg
}

// scanRetries moves due retry messages back onto the main list.
func (w *Worker) scanRetries() {
	defer w.wg.Done()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
		}

		due, err := w.client.ZRangeByScore(w.ctx, w.retryKey(), &redis.ZRangeBy{
			Min: "0",
			Max: strconv.FormatInt(time.Now().Unix(), 10),
		}).Result()
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				w.log.Error("retry scan error", logger.Error(err))
			}
			continue
		}
		for _, data := range due {
			pipe := w.client.TxPipeline()
			pipe.ZRem(w.ctx, w.retryKey(), data)
			pipe.LPush(w.ctx, w.listKey(), data)
			if _, err := pipe.Exec(w.ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.log.Error("retry requeue error", logger.Error(err))
			}
		}
	}
}
