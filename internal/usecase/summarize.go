package usecase

import (
	"context"
	"fmt"
	"time"

	"DispersionSignal/internal/domain/models"
	domrepo "DispersionSignal/internal/domain/repository"
	"DispersionSignal/internal/services/dispersion"
	"DispersionSignal/pkg/logger"
	"DispersionSignal/pkg/util"

	"github.com/shopspring/decimal"
)

// SummarizeUsecase rolls the day's signals into a single daily summary row.
type SummarizeUsecase struct {
	calc     *dispersion.Calculator
	store    domrepo.SignalStore
	logger   *logger.Logger
	topCoins int
}

func NewSummarizeUsecase(calc *dispersion.Calculator, store domrepo.SignalStore, lgr *logger.Logger, topCoins int) *SummarizeUsecase {
	if topCoins <= 0 {
		topCoins = 5
	}
	return &SummarizeUsecase{calc: calc, store: store, logger: lgr, topCoins: topCoins}
}

// Run summarizes the latest signal per coin for the given date. The date
// string accepts "today", "yesterday", or YYYY-MM-DD.
func (u *SummarizeUsecase) Run(ctx context.Context, date string, dryRun bool) (*models.DailySummary, error) {
	day, err := util.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}

	start := time.Now()
	signals, err := u.store.SignalsForDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("load signals for %s: %w", day.Format("2006-01-02"), err)
	}

	stats := u.calc.MarketSummary(signals)
	summary := &models.DailySummary{
		Date:                day,
		MarketDispersionAvg: stats.MarketDispersionAvg,
		MarketDispersionMax: stats.MarketDispersionMax,
		MarketDispersionMin: stats.MarketDispersionMin,
		TopDispersionCoins:  u.calc.TopDispersionCoins(signals, u.topCoins),
		LowDispersionCoins:  u.calc.LowDispersionCoins(signals, u.topCoins),
		HighSignalCount:     stats.HighSignalCount,
		LowSignalCount:      stats.LowSignalCount,
		CoinsAnalyzed:       stats.CoinsAnalyzed,
	}

	btcAvg, ethAvg, err := u.store.DominanceAveragesForDate(ctx, day)
	if err != nil {
		u.logger.Warn("dominance averages unavailable", logger.Error(err))
	}
	if btcAvg != nil {
		summary.BTCDominanceAvg = decimal.NewNullDecimal(decimal.NewFromFloat(*btcAvg).Round(4))
	}
	if ethAvg != nil {
		summary.ETHDominanceAvg = decimal.NewNullDecimal(decimal.NewFromFloat(*ethAvg).Round(4))
	}

	if !dryRun {
		if err := u.store.UpsertDailySummary(ctx, *summary); err != nil {
			return summary, fmt.Errorf("upsert summary: %w", err)
		}
	}

	u.logger.Info("daily summary built",
		logger.String("date", day.Format("2006-01-02")),
		logger.Int("coins_analyzed", summary.CoinsAnalyzed),
		logger.Bool("dry_run", dryRun),
		logger.Duration("duration_ms", time.Since(start)),
	)
	return summary, nil
}
