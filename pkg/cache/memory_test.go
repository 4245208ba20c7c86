package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Get(ctx, "absent"); err != ErrMiss {
		t.Fatalf("absent key: %v", err)
	}
	if err := m.Set(ctx, "k", `{"a":1}`, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err := m.Get(ctx, "k")
	if err != nil || v != `{"a":1}` {
		t.Fatalf("get = %q, %v", v, err)
	}
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(ctx, "k"); err != ErrMiss {
		t.Fatalf("deleted key still served: %v", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.Set(ctx, "k", "v", time.Nanosecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := m.Get(ctx, "k"); err != ErrMiss {
		t.Fatalf("expired key still served: %v", err)
	}
}

func TestMemoryBounded(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := 0; i < 2*defaultMemoryCap; i++ {
		if err := m.Set(ctx, Key("k", i), "v", time.Minute); err != nil {
			t.Fatalf("set %d: %v", i, err)
		}
	}
	if n := len(m.entries); n > defaultMemoryCap {
		t.Fatalf("cache grew past its bound: %d entries", n)
	}
}

func TestKey(t *testing.T) {
	if got := Key("history", "policy", 42); got != "history:policy:42" {
		t.Fatalf("key = %q", got)
	}
}
