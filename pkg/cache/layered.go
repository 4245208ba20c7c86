package cache

import (
	"context"
	"time"
)

// Layered reads through an in-process front before hitting redis and
// writes through both. Redis errors on Set are returned; a failed memory
// write only loses the fast path.
type Layered struct {
	mem   *Memory
	redis *Redis
}

func NewLayered(redis *Redis) *Layered {
	return &Layered{mem: NewMemory(), redis: redis}
}

func (l *Layered) Get(ctx context.Context, key string) (string, error) {
	if v, err := l.mem.Get(ctx, key); err == nil {
		return v, nil
	}
	v, err := l.redis.Get(ctx, key)
	if err != nil {
		return "", err
	}
	_ = l.mem.Set(ctx, key, v, time.Minute)
	return v, nil
}

func (l *Layered) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := l.redis.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return l.mem.Set(ctx, key, value, ttl)
}

func (l *Layered) Delete(ctx context.Context, keys ...string) error {
	_ = l.mem.Delete(ctx, keys...)
	return l.redis.Delete(ctx, keys...)
}
