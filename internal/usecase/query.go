package usecase

import (
	"context"
	"fmt"
	"time"

	"DispersionSignal/internal/domain/models"
	domrepo "DispersionSignal/internal/domain/repository"
	"DispersionSignal/pkg/cache"
	"DispersionSignal/pkg/logger"
	"DispersionSignal/pkg/util"
)

// QueryUsecase serves read paths over stored signals and summaries,
// with an optional cache in front of ClickHouse.
type QueryUsecase struct {
	store    domrepo.SignalStore
	cache    cache.Service
	logger   *logger.Logger
	cacheTTL time.Duration
}

func NewQueryUsecase(store domrepo.SignalStore, c cache.Service, lgr *logger.Logger, ttl time.Duration) *QueryUsecase {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &QueryUsecase{store: store, cache: c, logger: lgr, cacheTTL: ttl}
}

type GetSignalsParams struct {
	Symbol string
	Level  string // low | medium | high | empty
	Type   string
	Date   string
	Limit  int
}

func (uc *QueryUsecase) GetSignals(ctx context.Context, p GetSignalsParams) ([]models.DispersionSignal, error) {
	f := domrepo.SignalFilter{
		Symbol: p.Symbol,
		Type:   models.SignalType(p.Type),
		Limit:  p.Limit,
	}
	if p.Level != "" {
		band := domrepo.Band(p.Level)
		if !domrepo.IsValidBand(band) {
			return nil, fmt.Errorf("invalid level band: %s", p.Level)
		}
		f.MinLevel, f.MaxLevel = domrepo.LevelRange(band)
	}
	if p.Date != "" {
		day, err := util.ParseDate(p.Date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", p.Date, err)
		}
		f.Date = day
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 500 {
		f.Limit = 500
	}

	key := cache.GenerateKeyWithParams("signals", p.Symbol, p.Level, p.Type, p.Date, f.Limit)
	var cached []models.DispersionSignal
	if uc.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	signals, err := uc.store.QuerySignals(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	uc.cacheSet(ctx, key, signals)
	return signals, nil
}

// GetSummary returns the daily summary for "today", "yesterday", or a
// YYYY-MM-DD date. A nil result means no summary exists for that day yet.
func (uc *QueryUsecase) GetSummary(ctx context.Context, date string) (*models.DailySummary, error) {
	day, err := util.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}

	key := cache.GenerateKey("summary", day.Format("2006-01-02"))
	var cached models.DailySummary
	if uc.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	summary, err := uc.store.GetDailySummary(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}
	if summary != nil {
		uc.cacheSet(ctx, key, summary)
	}
	return summary, nil
}

type RankingsResult struct {
	Date               time.Time
	TopDispersionCoins []string
	LowDispersionCoins []string
}

// GetRankings serves the top/low dispersion coin lists from the stored
// daily summary.
func (uc *QueryUsecase) GetRankings(ctx context.Context, date string, n int) (*RankingsResult, error) {
	summary, err := uc.GetSummary(ctx, date)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, nil
	}

	top := summary.TopDispersionCoins
	low := summary.LowDispersionCoins
	if n > 0 {
		if len(top) > n {
			top = top[:n]
		}
		if len(low) > n {
			low = low[:n]
		}
	}
	return &RankingsResult{Date: summary.Date, TopDispersionCoins: top, LowDispersionCoins: low}, nil
}

// Health reports storage reachability.
func (uc *QueryUsecase) Health(ctx context.Context) error {
	return uc.store.Health(ctx)
}

func (uc *QueryUsecase) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if uc.cache == nil {
		return false
	}
	if err := uc.cache.Get(ctx, key, dest); err != nil {
		if err != cache.ErrCacheMiss {
			uc.logger.Debug("cache get failed", logger.String("key", key), logger.Error(err))
		}
		return false
	}
	return true
}

func (uc *QueryUsecase) cacheSet(ctx context.Context, key string, value interface{}) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, key, value, uc.cacheTTL); err != nil {
		uc.logger.Debug("cache set failed", logger.String("key", key), logger.Error(err))
	}
}
