package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"DispersionSignal/internal/domain/models"
	domrepo "DispersionSignal/internal/domain/repository"
	pkgch "DispersionSignal/pkg/clickhouse"
	applogger "DispersionSignal/pkg/logger"

	"github.com/shopspring/decimal"
)

const (
	signalsTable = "dispersion.dispersion_signals"
	summaryTable = "dispersion.dispersion_summary_daily"
)

// CHSignalStore implements SignalStore backed by ClickHouse. Upsert
// semantics come from ReplacingMergeTree keyed on (symbol, ts) for
// signals and on date for summaries; reads that need replace-correctness
// use FINAL.
type CHSignalStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHSignalStore(ch *pkgch.Client) *CHSignalStore {
	return &CHSignalStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

const signalColumns = `symbol, ts, price_dispersion, price_sources, price_max, price_min, price_avg, price_stddev,
volume_concentration, volume_total, btc_dominance, btc_dominance_change_7d, eth_dominance, eth_dominance_change_7d,
signal_level, signal_type, data_sources, calculation_method`

func (s *CHSignalStore) UpsertSignals(ctx context.Context, signals []models.DispersionSignal) error {
	if len(signals) == 0 {
		return nil
	}
	start := time.Now()

	values := make([]string, 0, len(signals))
	args := make([]interface{}, 0, len(signals)*18)
	for _, sig := range signals {
		if sig.Symbol == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, signalArgs(sig)...)
	}
	if len(values) == 0 {
		return nil
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", signalsTable, signalColumns, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse upsert_signals error",
				applogger.Int("count", len(signals)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("upsert signals: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse upsert_signals ok",
			applogger.Int("count", len(values)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func signalArgs(sig models.DispersionSignal) []interface{} {
	return []interface{}{
		sig.Symbol,
		sig.Timestamp,
		ndArg(sig.PriceDispersion),
		int32(sig.PriceSources),
		ndArg(sig.PriceMax),
		ndArg(sig.PriceMin),
		ndArg(sig.PriceAvg),
		ndArg(sig.PriceStdDev),
		ndArg(sig.VolumeConcentration),
		ndArg(sig.VolumeTotal),
		ndArg(sig.BTCDominance),
		ndArg(sig.BTCDominanceChange7d),
		ndArg(sig.ETHDominance),
		ndArg(sig.ETHDominanceChange7d),
		levelArg(sig.SignalLevel),
		string(sig.SignalType),
		strings.Join(sig.DataSources, ","),
		sig.CalculationMethod,
	}
}

func (s *CHSignalStore) UpsertEnhancedSignals(ctx context.Context, signals []models.EnhancedSignal) error {
	if len(signals) == 0 {
		return nil
	}
	start := time.Now()

	const cols = `symbol, ts, price_dispersion, price_sources, sentiment_score, mention_count, signal_level, signal_type, confidence_score, data_sources`
	values := make([]string, 0, len(signals))
	args := make([]interface{}, 0, len(signals)*10)
	for _, sig := range signals {
		if sig.Symbol == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			sig.Symbol,
			sig.Timestamp,
			ndArg(sig.PriceDispersion),
			int32(sig.PriceSources),
			ndArg(sig.SentimentScore),
			mentionArg(sig.MentionCount),
			levelArg(sig.SignalLevel),
			string(sig.SignalType),
			sig.ConfidenceScore.InexactFloat64(),
			strings.Join(sig.DataSources, ","),
		)
	}
	if len(values) == 0 {
		return nil
	}

	q := fmt.Sprintf("INSERT INTO dispersion.enhanced_signals (%s) VALUES %s", cols, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse upsert_enhanced error",
				applogger.Int("count", len(signals)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("upsert enhanced signals: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse upsert_enhanced ok",
			applogger.Int("count", len(values)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHSignalStore) QuerySignals(ctx context.Context, f domrepo.SignalFilter) ([]models.DispersionSignal, error) {
	start := time.Now()

	var where []string
	var args []interface{}
	if f.Symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, f.Symbol)
	}
	if f.MinLevel > 0 {
		where = append(where, "signal_level >= ?")
		args = append(args, int32(f.MinLevel))
	}
	if f.MaxLevel > 0 {
		where = append(where, "signal_level <= ?")
		args = append(args, int32(f.MaxLevel))
	}
	if f.Type != "" {
		where = append(where, "signal_type = ?")
		args = append(args, string(f.Type))
	}
	if !f.Date.IsZero() {
		where = append(where, "toDate(ts) = toDate(?)")
		args = append(args, f.Date)
	}

	q := fmt.Sprintf("SELECT %s FROM %s FINAL", signalColumns, signalsTable)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY ts DESC LIMIT ?"
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse query_signals error", applogger.Error(err))
		}
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	out := make([]models.DispersionSignal, 0, limit)
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			if s.l != nil {
				s.l.Error("clickhouse query_signals scan error", applogger.Error(err))
			}
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse query_signals ok",
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// SignalsForDate returns the latest signal per symbol for the given UTC date.
func (s *CHSignalStore) SignalsForDate(ctx context.Context, date time.Time) ([]models.DispersionSignal, error) {
	all, err := s.QuerySignals(ctx, domrepo.SignalFilter{Date: date, Limit: 100000})
	if err != nil {
		return nil, err
	}

	// Rows come back most-recent-first; keep the first per symbol.
	seen := make(map[string]bool, len(all))
	out := make([]models.DispersionSignal, 0, len(all))
	for _, sig := range all {
		if seen[sig.Symbol] {
			continue
		}
		seen[sig.Symbol] = true
		out = append(out, sig)
	}
	return out, nil
}

func scanSignal(rows *sql.Rows) (models.DispersionSignal, error) {
	var (
		sig        models.DispersionSignal
		pd, pmax   sql.NullFloat64
		pmin, pavg sql.NullFloat64
		psd        sql.NullFloat64
		vc, vt     sql.NullFloat64
		btcD, btcC sql.NullFloat64
		ethD, ethC sql.NullFloat64
		sources    int32
		level      sql.NullInt32
		sigType    string
		dataSrc    string
	)
	err := rows.Scan(&sig.Symbol, &sig.Timestamp, &pd, &sources, &pmax, &pmin, &pavg, &psd,
		&vc, &vt, &btcD, &btcC, &ethD, &ethC, &level, &sigType, &dataSrc, &sig.CalculationMethod)
	if err != nil {
		return sig, err
	}

	sig.PriceSources = int(sources)
	sig.PriceDispersion = ndFrom(pd)
	sig.PriceMax = ndFrom(pmax)
	sig.PriceMin = ndFrom(pmin)
	sig.PriceAvg = ndFrom(pavg)
	sig.PriceStdDev = ndFrom(psd)
	sig.VolumeConcentration = ndFrom(vc)
	sig.VolumeTotal = ndFrom(vt)
	sig.BTCDominance = ndFrom(btcD)
	sig.BTCDominanceChange7d = ndFrom(btcC)
	sig.ETHDominance = ndFrom(ethD)
	sig.ETHDominanceChange7d = ndFrom(ethC)
	if level.Valid {
		lv := int(level.Int32)
		sig.SignalLevel = &lv
	}
	sig.SignalType = models.SignalType(sigType)
	if dataSrc != "" {
		sig.DataSources = strings.Split(dataSrc, ",")
	}
	return sig, nil
}

func (s *CHSignalStore) UpsertDailySummary(ctx context.Context, sum models.DailySummary) error {
	const cols = `date, market_dispersion_avg, market_dispersion_max, market_dispersion_min,
top_dispersion_coins, low_dispersion_coins, btc_dominance_avg, eth_dominance_avg,
high_signal_count, low_signal_count, coins_analyzed`

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", summaryTable, cols)
	_, err := s.db.ExecContext(ctx, q,
		sum.Date,
		ndArg(sum.MarketDispersionAvg),
		ndArg(sum.MarketDispersionMax),
		ndArg(sum.MarketDispersionMin),
		strings.Join(sum.TopDispersionCoins, ","),
		strings.Join(sum.LowDispersionCoins, ","),
		ndArg(sum.BTCDominanceAvg),
		ndArg(sum.ETHDominanceAvg),
		int32(sum.HighSignalCount),
		int32(sum.LowSignalCount),
		int32(sum.CoinsAnalyzed),
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse upsert_summary error",
				applogger.String("date", sum.Date.Format("2006-01-02")),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("upsert daily summary: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse upsert_summary ok",
			applogger.String("date", sum.Date.Format("2006-01-02")),
			applogger.Int("coins", sum.CoinsAnalyzed),
		)
	}
	return nil
}

func (s *CHSignalStore) GetDailySummary(ctx context.Context, date time.Time) (*models.DailySummary, error) {
	const q = `
        SELECT date, market_dispersion_avg, market_dispersion_max, market_dispersion_min,
               top_dispersion_coins, low_dispersion_coins, btc_dominance_avg, eth_dominance_avg,
               high_signal_count, low_signal_count, coins_analyzed
        FROM dispersion.dispersion_summary_daily FINAL
        WHERE date = toDate(?)
        LIMIT 1
    `
	var (
		sum                models.DailySummary
		avg, maxD, minD    sql.NullFloat64
		topCoins, lowCoins string
		btcAvg, ethAvg     sql.NullFloat64
		high, low, coins   int32
	)
	err := s.db.QueryRowContext(ctx, q, date).Scan(
		&sum.Date, &avg, &maxD, &minD, &topCoins, &lowCoins, &btcAvg, &ethAvg, &high, &low, &coins)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_summary error",
				applogger.String("date", date.Format("2006-01-02")),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get daily summary: %w", err)
	}

	sum.MarketDispersionAvg = ndFrom(avg)
	sum.MarketDispersionMax = ndFrom(maxD)
	sum.MarketDispersionMin = ndFrom(minD)
	if topCoins != "" {
		sum.TopDispersionCoins = strings.Split(topCoins, ",")
	}
	if lowCoins != "" {
		sum.LowDispersionCoins = strings.Split(lowCoins, ",")
	}
	sum.BTCDominanceAvg = ndFrom(btcAvg)
	sum.ETHDominanceAvg = ndFrom(ethAvg)
	sum.HighSignalCount = int(high)
	sum.LowSignalCount = int(low)
	sum.CoinsAnalyzed = int(coins)
	return &sum, nil
}

func (s *CHSignalStore) InsertGlobalMetrics(ctx context.Context, m models.GlobalMetrics) error {
	const q = `INSERT INTO dispersion.global_metrics (ts, btc_dominance, eth_dominance, total_market_cap, total_volume_24h, source) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		m.Timestamp,
		ndArg(m.BTCDominance),
		ndArg(m.ETHDominance),
		ndArg(m.TotalMarketCap),
		ndArg(m.TotalVolume24h),
		m.Source,
	)
	if err != nil {
		return fmt.Errorf("insert global metrics: %w", err)
	}
	return nil
}

// DominanceHistory returns one snapshot per day, most recent day first,
// using the latest reading within each day.
func (s *CHSignalStore) DominanceHistory(ctx context.Context, days int) ([]models.GlobalMetrics, error) {
	const q = `
        SELECT toDate(ts) AS day,
               argMax(btc_dominance, ts) AS btc,
               argMax(eth_dominance, ts) AS eth
        FROM dispersion.global_metrics
        WHERE ts >= ?
        GROUP BY day
        ORDER BY day DESC
    `
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.db.QueryContext(ctx, q, cutoff)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse dominance_history error", applogger.Error(err))
		}
		return nil, fmt.Errorf("dominance history: %w", err)
	}
	defer rows.Close()

	out := make([]models.GlobalMetrics, 0, days+1)
	for rows.Next() {
		var (
			day      time.Time
			btc, eth sql.NullFloat64
		)
		if err := rows.Scan(&day, &btc, &eth); err != nil {
			return nil, fmt.Errorf("scan dominance: %w", err)
		}
		out = append(out, models.GlobalMetrics{
			Timestamp:    day,
			BTCDominance: ndFrom(btc),
			ETHDominance: ndFrom(eth),
		})
	}
	return out, rows.Err()
}

func (s *CHSignalStore) DominanceAveragesForDate(ctx context.Context, date time.Time) (*float64, *float64, error) {
	const q = `
        SELECT avg(btc_dominance), avg(eth_dominance)
        FROM dispersion.global_metrics
        WHERE toDate(ts) = toDate(?)
    `
	var btc, eth sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, q, date).Scan(&btc, &eth); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("dominance averages: %w", err)
	}

	var btcPtr, ethPtr *float64
	if btc.Valid {
		btcPtr = &btc.Float64
	}
	if eth.Valid {
		ethPtr = &eth.Float64
	}
	return btcPtr, ethPtr, nil
}

func (s *CHSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- decimal <-> Float64 boundary helpers ---

func ndArg(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}

func ndFrom(v sql.NullFloat64) decimal.NullDecimal {
	if !v.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(v.Float64))
}

func levelArg(level *int) interface{} {
	if level == nil {
		return nil
	}
	return int32(*level)
}

func mentionArg(v *int) interface{} {
	if v == nil {
		return nil
	}
	return int32(*v)
}
