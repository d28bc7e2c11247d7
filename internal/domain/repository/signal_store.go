package repository

import (
	"context"
	"time"

	"DispersionSignal/internal/domain/models"
)

// SignalFilter narrows signal queries. Zero values mean "no constraint".
type SignalFilter struct {
	Symbol   string
	MinLevel int
	MaxLevel int
	Type     models.SignalType
	Date     time.Time // UTC date; zero means any
	Limit    int
}

// SignalStore persists and reads back dispersion signals and rollups.
type SignalStore interface {
	UpsertSignals(ctx context.Context, signals []models.DispersionSignal) error
	UpsertEnhancedSignals(ctx context.Context, signals []models.EnhancedSignal) error
	QuerySignals(ctx context.Context, f SignalFilter) ([]models.DispersionSignal, error)
	SignalsForDate(ctx context.Context, date time.Time) ([]models.DispersionSignal, error)

	UpsertDailySummary(ctx context.Context, s models.DailySummary) error
	GetDailySummary(ctx context.Context, date time.Time) (*models.DailySummary, error)

	InsertGlobalMetrics(ctx context.Context, m models.GlobalMetrics) error
	DominanceHistory(ctx context.Context, days int) ([]models.GlobalMetrics, error)
	DominanceAveragesForDate(ctx context.Context, date time.Time) (btcAvg, ethAvg *float64, err error)

	Health(ctx context.Context) error
}
