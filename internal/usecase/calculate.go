package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"DispersionSignal/internal/domain/models"
	domrepo "DispersionSignal/internal/domain/repository"
	"DispersionSignal/internal/services/collectors"
	"DispersionSignal/internal/services/dispersion"
	"DispersionSignal/pkg/logger"

	"github.com/shopspring/decimal"
)

const calculationMethod = "multi_source_dispersion"

// CalculateUsecase runs one full calculation round: collect multi-source
// observations, compute dispersion signals per coin, persist and publish.
type CalculateUsecase struct {
	registry  *collectors.Registry
	calc      *dispersion.Calculator
	store     domrepo.SignalStore
	sigPub    domrepo.SignalPublisher
	metrics   domrepo.Metrics
	logger    *logger.Logger
	domWindow int
}

func NewCalculateUsecase(
	registry *collectors.Registry,
	calc *dispersion.Calculator,
	store domrepo.SignalStore,
	sigPub domrepo.SignalPublisher,
	metrics domrepo.Metrics,
	lgr *logger.Logger,
	dominanceWindow int,
) *CalculateUsecase {
	if dominanceWindow <= 0 {
		dominanceWindow = 7
	}
	return &CalculateUsecase{
		registry:  registry,
		calc:      calc,
		store:     store,
		sigPub:    sigPub,
		metrics:   metrics,
		logger:    lgr,
		domWindow: dominanceWindow,
	}
}

// Run computes a signal for every requested coin. Coins with no usable
// observations still produce a record with null dispersion and level,
// so a round always yields len(coins) results. With dryRun set, nothing
// is persisted or published.
func (u *CalculateUsecase) Run(ctx context.Context, coins []string, dryRun bool) ([]models.DispersionSignal, error) {
	start := time.Now()
	ts := time.Now().UTC().Truncate(time.Second)

	quotes, err := u.registry.CollectQuotes(ctx, coins)
	if err != nil {
		u.metrics.RecordError("collect_quotes")
		return nil, fmt.Errorf("collect quotes: %w", err)
	}

	global, err := u.registry.CollectGlobal(ctx)
	if err != nil {
		u.logger.Warn("global metrics unavailable", logger.Error(err))
	}
	if global != nil && !dryRun {
		if err := u.store.InsertGlobalMetrics(ctx, *global); err != nil {
			u.logger.Warn("store global metrics failed", logger.Error(err))
		}
	}

	trend := u.dominanceTrend(ctx)

	results := make([]models.DispersionSignal, 0, len(coins))
	for _, symbol := range coins {
		sig := u.buildSignal(symbol, ts, quotes[symbol], global, trend)
		results = append(results, sig)
	}

	if !dryRun {
		if err := u.store.UpsertSignals(ctx, results); err != nil {
			u.metrics.RecordError("upsert_signals")
			return results, fmt.Errorf("upsert signals: %w", err)
		}
		u.publish(ctx, results)
		u.enhance(ctx, coins, results)
	}

	u.metrics.RecordLatency("calculate_round", time.Since(start).Seconds())
	u.logger.Info("calculation round done",
		logger.Int("coins", len(results)),
		logger.Bool("dry_run", dryRun),
		logger.Duration("duration_ms", time.Since(start)),
	)
	return results, nil
}

func (u *CalculateUsecase) dominanceTrend(ctx context.Context) models.DominanceTrend {
	history, err := u.store.DominanceHistory(ctx, u.domWindow+1)
	if err != nil {
		u.logger.Warn("dominance history unavailable", logger.Error(err))
		return models.DominanceTrend{Direction: models.TrendError}
	}
	return u.calc.DominanceTrend(history, u.domWindow)
}

func (u *CalculateUsecase) buildSignal(symbol string, ts time.Time, obs []models.Observation, global *models.GlobalMetrics, trend models.DominanceTrend) models.DispersionSignal {
	prices := make([]decimal.NullDecimal, 0, len(obs))
	volumes := make(map[string]decimal.NullDecimal, len(obs))
	sources := make([]string, 0, len(obs))
	volumeTotal := decimal.Zero
	haveVolume := false

	for _, o := range obs {
		prices = append(prices, decimal.NewNullDecimal(o.Price))
		volumes[o.Source] = o.Volume
		sources = append(sources, o.Source)
		if o.Volume.Valid {
			volumeTotal = volumeTotal.Add(o.Volume.Decimal)
			haveVolume = true
		}
	}
	sort.Strings(sources)

	stats := dispersion.ComputePriceStats(prices)
	sig := models.DispersionSignal{
		Symbol:            symbol,
		Timestamp:         ts,
		PriceSources:      stats.Count,
		PriceMax:          stats.Max,
		PriceMin:          stats.Min,
		PriceAvg:          stats.Avg,
		PriceStdDev:       stats.StdDev,
		DataSources:       sources,
		CalculationMethod: calculationMethod,
		SignalType:        models.SignalNeutral,
	}

	if global != nil {
		sig.BTCDominance = global.BTCDominance
		sig.ETHDominance = global.ETHDominance
	}
	if trend.Direction != models.TrendInsufficientData && trend.Direction != models.TrendError {
		sig.BTCDominanceChange7d = decimal.NewNullDecimal(trend.BTCDominanceChange7d)
		sig.ETHDominanceChange7d = decimal.NewNullDecimal(trend.ETHDominanceChange7d)
	}
	if haveVolume {
		sig.VolumeTotal = decimal.NewNullDecimal(volumeTotal)
		sig.VolumeConcentration = decimal.NewNullDecimal(u.calc.VolumeConcentration(volumes))
	}

	// A coin nobody quoted twice has no dispersion and no level.
	if stats.Count < 2 {
		return sig
	}

	pd := u.calc.PriceDispersion(prices)
	sig.PriceDispersion = decimal.NewNullDecimal(pd)

	vc := decimal.Zero
	if sig.VolumeConcentration.Valid {
		vc = sig.VolumeConcentration.Decimal
	}
	level, typ := u.calc.SignalLevel(pd, vc, trend.BTCDominanceChange7d)
	sig.SignalLevel = &level
	sig.SignalType = typ
	return sig
}

func (u *CalculateUsecase) publish(ctx context.Context, results []models.DispersionSignal) {
	if u.sigPub == nil {
		return
	}
	for i := range results {
		if err := u.sigPub.PublishSignal(ctx, &results[i]); err != nil {
			u.metrics.RecordError("publish_signal")
			u.logger.Warn("publish signal failed",
				logger.String("symbol", results[i].Symbol),
				logger.Error(err))
		}
	}
}

// enhance augments the round with community sentiment when a sentiment
// source is configured.
func (u *CalculateUsecase) enhance(ctx context.Context, coins []string, results []models.DispersionSignal) {
	sentiments, err := u.registry.CollectSentiment(ctx, coins)
	if err != nil || len(sentiments) == 0 {
		return
	}

	enhanced := make([]models.EnhancedSignal, 0, len(results))
	for _, sig := range results {
		enhanced = append(enhanced, u.calc.Enhance(sig, sentiments[sig.Symbol]))
	}
	if err := u.store.UpsertEnhancedSignals(ctx, enhanced); err != nil {
		u.metrics.RecordError("upsert_enhanced")
		u.logger.Warn("upsert enhanced signals failed", logger.Error(err))
	}
}
