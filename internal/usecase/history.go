package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"RateCast/internal/domain/models"
	drepo "RateCast/internal/domain/repository"
	"RateCast/pkg/cache"
	"RateCast/pkg/util"
)

// HistoryUseCase provides business logic for retrieving rate-event history.
type HistoryUseCase struct {
	store drepo.EventStore
	cache cache.Store
	ttl   time.Duration
}

func NewHistoryUseCase(store drepo.EventStore, c cache.Store) *HistoryUseCase {
	return &HistoryUseCase{store: store, cache: c, ttl: 5 * time.Minute}
}

type GetHistoryParams struct {
	Series string
	From   time.Time
	To     time.Time
	Limit  int
}

type GetHistoryResult struct {
	Series string              `json:"series"`
	From   time.Time           `json:"from"`
	To     time.Time           `json:"to"`
	Count  int                 `json:"count"`
	Events []*models.RateEvent `json:"events"`
}

func (uc *HistoryUseCase) GetHistory(ctx context.Context, p GetHistoryParams) (*GetHistoryResult, error) {
	if p.Series == "" {
		return nil, fmt.Errorf("series required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 1000
	}
	if p.Limit > 10000 {
		p.Limit = 10000
	}
	p.From, p.To = util.AlignFromTo(p.From, p.To)
	if !p.To.Before(util.StartOfDay(time.Now())) {
		p.To = util.StartOfDay(time.Now()).Add(24 * time.Hour)
	}

	key := cache.Key("history", p.Series, p.From.Unix(), p.To.Unix(), p.Limit)
	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, key); err == nil {
			var cached GetHistoryResult
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		}
	}

	events, err := uc.store.Query(ctx, p.Series, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	res := &GetHistoryResult{
		Series: p.Series,
		From:   p.From,
		To:     p.To,
		Count:  len(events),
		Events: events,
	}
	if uc.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			_ = uc.cache.Set(ctx, key, string(b), uc.ttl)
		}
	}
	return res, nil
}
