package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"DispersionSignal/internal/domain/models"
	"DispersionSignal/internal/domain/repository"
	pkgkafka "DispersionSignal/pkg/kafka"

	"github.com/shopspring/decimal"
)

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB, table string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseStorage) Store(ctx context.Context, o *models.Observation) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, source, price, volume) VALUES (?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		o.Timestamp,
		o.Symbol,
		o.Source,
		o.Price.InexactFloat64(),
		ndArg(o.Volume),
	)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	// Chunk size tuned to 2000 rows per batch.
	const chunkSize = 2000
	for start := 0; start < len(obs); start += chunkSize {
		end := start + chunkSize
		if end > len(obs) {
			end = len(obs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*5)
		for _, o := range obs[start:end] {
			if o == nil || o.Symbol == "" || o.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args,
				o.Timestamp,
				o.Symbol,
				o.Source,
				o.Price.InexactFloat64(),
				ndArg(o.Volume),
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, source, price, volume) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Observation, error) {
	q := fmt.Sprintf("SELECT symbol, source, ts, price, volume FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obs []*models.Observation
	for rows.Next() {
		var (
			o     models.Observation
			price float64
			vol   sql.NullFloat64
		)
		if err := rows.Scan(&o.Symbol, &o.Source, &o.Timestamp, &price, &vol); err != nil {
			return nil, err
		}
		o.Price = decimal.NewFromFloat(price)
		o.Volume = ndFrom(vol)
		obs = append(obs, &o)
	}
	return obs, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, o *models.Observation) error {
	return p.producer.Publish(ctx, p.topic, []byte(o.Symbol), observationPayload(o))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(obs))
	for i, o := range obs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(o.Symbol),
			Value: observationPayload(o),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func observationPayload(o *models.Observation) map[string]interface{} {
	payload := map[string]interface{}{
		"symbol": o.Symbol,
		"source": o.Source,
		"t":      o.Timestamp.UnixMilli(),
		"p":      o.Price.String(),
	}
	if o.Volume.Valid {
		payload["v"] = o.Volume.Decimal.String()
	}
	return payload
}

// KafkaSignalPublisher pushes computed signals onto the signal topic.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) repository.SignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) PublishSignal(ctx context.Context, s *models.DispersionSignal) error {
	payload := map[string]interface{}{
		"symbol":      s.Symbol,
		"ts":          s.Timestamp.UTC().Format(time.RFC3339),
		"signal_type": string(s.SignalType),
		"sources":     s.PriceSources,
	}
	if s.PriceDispersion.Valid {
		payload["price_dispersion"] = s.PriceDispersion.Decimal.String()
	}
	if s.VolumeConcentration.Valid {
		payload["volume_concentration"] = s.VolumeConcentration.Decimal.String()
	}
	if s.SignalLevel != nil {
		payload["signal_level"] = *s.SignalLevel
	}
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), payload)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
