package ratelimit

import (
	"testing"
	"time"
)

func TestAllowBurstThenDeny(t *testing.T) {
	l := New(3, 1)
	for i := 0; i < 3; i++ {
		if !l.Allow("caller") {
			t.Fatalf("call %d within burst denied", i)
		}
	}
	if l.Allow("caller") {
		t.Fatal("call beyond burst allowed")
	}
	// Other keys get their own bucket.
	if !l.Allow("other") {
		t.Fatal("fresh key denied")
	}
}

func TestAllowRefills(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(2, 2)
	l.now = func() time.Time { return clock }

	l.Allow("k")
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("empty bucket allowed")
	}

	// Half a second at 2 tokens/sec refills one token.
	clock = clock.Add(500 * time.Millisecond)
	if !l.Allow("k") {
		t.Fatal("refilled token denied")
	}
	if l.Allow("k") {
		t.Fatal("second token allowed after partial refill")
	}
}

func TestSweepDropsIdleBuckets(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(1, 1)
	l.now = func() time.Time { return clock }

	l.Allow("stale")
	clock = clock.Add(idleAfter + time.Minute)
	l.sweep(clock)
	if _, ok := l.buckets["stale"]; ok {
		t.Fatal("idle bucket survived sweep")
	}
}
