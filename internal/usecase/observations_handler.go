package usecase

import (
	"context"
	"encoding/json"
	"time"

	"DispersionSignal/internal/domain/models"
	domrepo "DispersionSignal/internal/domain/repository"
	pkgkafka "DispersionSignal/pkg/kafka"

	"github.com/shopspring/decimal"
)

// KafkaObservationsHandler consumes observation messages and writes them to storage.
type KafkaObservationsHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaObservationsHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaObservationsHandler {
	return &KafkaObservationsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaObservationsHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, source, t, p, v}
func (h *KafkaObservationsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string `json:"symbol"`
		Source string `json:"source"`
		T      int64  `json:"t"`
		P      string `json:"p"`
		V      string `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	price, err := decimal.NewFromString(m.P)
	if err != nil {
		h.metrics.RecordError("consumer_price_parse")
		return err
	}
	var volume decimal.NullDecimal
	if m.V != "" {
		if v, err := decimal.NewFromString(m.V); err == nil {
			volume = decimal.NewNullDecimal(v)
		}
	}

	ts := time.UnixMilli(m.T).UTC()
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ts).Seconds())

	start := time.Now()
	err = h.storage.Store(ctx, &models.Observation{
		Symbol:    m.Symbol,
		Source:    m.Source,
		Price:     price,
		Volume:    volume,
		Timestamp: ts,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", m.Symbol)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaObservationsHandler)(nil)
