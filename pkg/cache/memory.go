package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value    string
	expireAt time.Time
}

// Memory is a bounded in-process store. Eviction is lazy on read plus a
// random sweep on write once the bound is hit; forecast and history payloads
// are small and few, so no LRU bookkeeping is kept.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	cap     int
}

const defaultMemoryCap = 512

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), cap: defaultMemoryCap}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return "", ErrMiss
	}
	if time.Now().After(e.expireAt) {
		delete(m.entries, key)
		return "", ErrMiss
	}
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Hour
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) >= m.cap {
		m.sweep()
	}
	m.entries[key] = memoryEntry{value: value, expireAt: time.Now().Add(ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

// sweep drops expired entries; if everything is live it drops an arbitrary
// entry so the write always fits. Caller holds the lock.
func (m *Memory) sweep() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expireAt) {
			delete(m.entries, k)
		}
	}
	if len(m.entries) >= m.cap {
		for k := range m.entries {
			delete(m.entries, k)
			break
		}
	}
}
