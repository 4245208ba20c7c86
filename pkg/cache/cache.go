package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Store holds short-lived JSON documents keyed by request shape. Values are
// strings: callers marshal before Set and unmarshal after Get, which keeps
// the memory, redis and layered backends interchangeable.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Key builds a colon-separated cache key from heterogeneous parts, e.g.
// Key("history", "policy", from.Unix(), to.Unix()).
func Key(parts ...any) string {
	segs := make([]string, len(parts))
	for i, p := range parts {
		segs[i] = fmt.Sprint(p)
	}
	return strings.Join(segs, ":")
}
