package usecase

import (
	"context"
	"encoding/json"
	"time"

	"RateCast/internal/domain/models"
	domrepo "RateCast/internal/domain/repository"
	pkgkafka "RateCast/pkg/kafka"
)

// KafkaRatesHandler consumes rate-decision messages and writes to storage.
type KafkaRatesHandler struct {
	topic   string
	storage domrepo.EventStore
	metrics domrepo.Metrics
}

func NewKafkaRatesHandler(topic string, storage domrepo.EventStore, metrics domrepo.Metrics) *KafkaRatesHandler {
	return &KafkaRatesHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaRatesHandler) Topic() string { return h.topic }

// incoming message schema: {series, t, move_bps, rate_pct, source}
func (h *KafkaRatesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Series  string  `json:"series"`
		T       int64   `json:"t"`
		MoveBps float64 `json:"move_bps"`
		RatePct float64 `json:"rate_pct"`
		Source  string  `json:"source"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	// E2E latency from announcement time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &models.RateEvent{
		Series:        m.Series,
		EffectiveDate: m.T,
		MoveBps:       m.MoveBps,
		NewRatePct:    m.RatePct,
		Source:        m.Source,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordEventIngested("clickhouse", m.Series)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaRatesHandler)(nil)
