package usecase

import (
	"context"
	"testing"
	"time"

	"RateCast/internal/domain/models"
	"RateCast/pkg/cache"
)

func seedDaily(store *memEventStore, series string, days int) {
	ctx := context.Background()
	start := time.Now().UTC().AddDate(0, 0, -days)
	for i := 0; i < days; i++ {
		_ = store.Store(ctx, &models.RateEvent{
			Series:        series,
			EffectiveDate: start.AddDate(0, 0, i).Unix(),
			MoveBps:       0,
			NewRatePct:    3,
			Source:        "test",
		})
	}
}

func TestGetHistoryReturnsEvents(t *testing.T) {
	store := newMemEventStore()
	seedDaily(store, "policy", 30)
	uc := NewHistoryUseCase(store, cache.NewMemory())

	res, err := uc.GetHistory(context.Background(), GetHistoryParams{
		Series: "policy",
		From:   time.Now().UTC().AddDate(0, -2, 0),
		To:     time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if res.Count != 30 || len(res.Events) != 30 {
		t.Fatalf("count = %d, want 30", res.Count)
	}
	if res.Series != "policy" {
		t.Fatalf("series = %q", res.Series)
	}
}

func TestGetHistoryValidation(t *testing.T) {
	uc := NewHistoryUseCase(newMemEventStore(), nil)
	ctx := context.Background()

	if _, err := uc.GetHistory(ctx, GetHistoryParams{From: time.Now(), To: time.Now()}); err == nil {
		t.Fatalf("empty series accepted")
	}
	if _, err := uc.GetHistory(ctx, GetHistoryParams{
		Series: "policy",
		From:   time.Now(),
		To:     time.Now().AddDate(0, 0, -1),
	}); err == nil {
		t.Fatalf("inverted range accepted")
	}
}

func TestGetHistoryServesFromCache(t *testing.T) {
	store := newMemEventStore()
	seedDaily(store, "policy", 10)
	uc := NewHistoryUseCase(store, cache.NewMemory())
	ctx := context.Background()

	params := GetHistoryParams{
		Series: "policy",
		From:   time.Now().UTC().AddDate(0, -1, 0),
		To:     time.Now().UTC(),
	}
	first, err := uc.GetHistory(ctx, params)
	if err != nil {
		t.Fatalf("first: %v", err)
	}

	// new events behind the same key are hidden until the TTL expires
	seedDaily(store, "policy", 5)
	second, err := uc.GetHistory(ctx, params)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.Count != first.Count {
		t.Fatalf("cache miss: second read saw %d events, first %d", second.Count, first.Count)
	}
}

func TestGetHistoryLimitClamped(t *testing.T) {
	store := newMemEventStore()
	seedDaily(store, "policy", 20)
	uc := NewHistoryUseCase(store, nil)

	res, err := uc.GetHistory(context.Background(), GetHistoryParams{
		Series: "policy",
		From:   time.Now().UTC().AddDate(0, -1, 0),
		To:     time.Now().UTC(),
		Limit:  5,
	})
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if res.Count != 5 {
		t.Fatalf("limit not applied: %d", res.Count)
	}
}
