package usecase

import (
	"context"
	"testing"
	"time"

	"DispersionSignal/internal/domain/models"
	domrepo "DispersionSignal/internal/domain/repository"
	"DispersionSignal/internal/services/collectors"
	"DispersionSignal/internal/services/dispersion"
	"DispersionSignal/pkg/logger"

	"github.com/shopspring/decimal"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(string, string) {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordLastPrice(string, float64)  {}
func (nopMetrics) RecordLatency(string, float64)    {}

type fakeQuoteSource struct {
	name string
	obs  []models.Observation
}

func (s *fakeQuoteSource) Name() string { return s.name }
func (s *fakeQuoteSource) FetchQuotes(ctx context.Context, symbols []string) ([]models.Observation, error) {
	return s.obs, nil
}

type fakeSignalStore struct {
	history   []models.GlobalMetrics
	signals   []models.DispersionSignal
	upserted  []models.DispersionSignal
	enhanced  []models.EnhancedSignal
	summaries []models.DailySummary
	globals   []models.GlobalMetrics
}

func (s *fakeSignalStore) UpsertSignals(ctx context.Context, signals []models.DispersionSignal) error {
	s.upserted = append(s.upserted, signals...)
	return nil
}

func (s *fakeSignalStore) UpsertEnhancedSignals(ctx context.Context, signals []models.EnhancedSignal) error {
	s.enhanced = append(s.enhanced, signals...)
	return nil
}

func (s *fakeSignalStore) QuerySignals(ctx context.Context, f domrepo.SignalFilter) ([]models.DispersionSignal, error) {
	return s.signals, nil
}

func (s *fakeSignalStore) SignalsForDate(ctx context.Context, date time.Time) ([]models.DispersionSignal, error) {
	return s.signals, nil
}

func (s *fakeSignalStore) UpsertDailySummary(ctx context.Context, sum models.DailySummary) error {
	s.summaries = append(s.summaries, sum)
	return nil
}

func (s *fakeSignalStore) GetDailySummary(ctx context.Context, date time.Time) (*models.DailySummary, error) {
	if len(s.summaries) == 0 {
		return nil, nil
	}
	return &s.summaries[len(s.summaries)-1], nil
}

func (s *fakeSignalStore) InsertGlobalMetrics(ctx context.Context, m models.GlobalMetrics) error {
	s.globals = append(s.globals, m)
	return nil
}

func (s *fakeSignalStore) DominanceHistory(ctx context.Context, days int) ([]models.GlobalMetrics, error) {
	return s.history, nil
}

func (s *fakeSignalStore) DominanceAveragesForDate(ctx context.Context, date time.Time) (*float64, *float64, error) {
	btc, eth := 52.5, 17.25
	return &btc, &eth, nil
}

func (s *fakeSignalStore) Health(ctx context.Context) error { return nil }

func quote(symbol, source string, price, volume int64) models.Observation {
	return models.Observation{
		Symbol:    symbol,
		Source:    source,
		Price:     decimal.NewFromInt(price),
		Volume:    decimal.NewNullDecimal(decimal.NewFromInt(volume)),
		Timestamp: time.Now(),
	}
}

func dominanceHistory(days int) []models.GlobalMetrics {
	out := make([]models.GlobalMetrics, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, models.GlobalMetrics{
			Timestamp:    time.Now().AddDate(0, 0, -i),
			BTCDominance: decimal.NewNullDecimal(decimal.NewFromInt(50)),
			ETHDominance: decimal.NewNullDecimal(decimal.NewFromInt(17)),
		})
	}
	return out
}

func newCalculate(t *testing.T, store *fakeSignalStore, sources ...*fakeQuoteSource) *CalculateUsecase {
	t.Helper()
	lgr := testLogger(t)
	opts := make([]collectors.RegistryOption, 0, len(sources))
	for _, s := range sources {
		opts = append(opts, collectors.WithQuoteSource(s))
	}
	registry := collectors.NewRegistry(lgr, opts...)
	return NewCalculateUsecase(registry, dispersion.NewCalculator(lgr), store, nil, nopMetrics{}, lgr, 7)
}

func TestCalculateRunProducesSignalPerCoin(t *testing.T) {
	store := &fakeSignalStore{history: dominanceHistory(8)}
	uc := newCalculate(t, store,
		&fakeQuoteSource{name: "alpha", obs: []models.Observation{
			quote("BTC", "alpha", 100, 700),
			quote("ETH", "alpha", 3000, 400),
		}},
		&fakeQuoteSource{name: "beta", obs: []models.Observation{
			quote("BTC", "beta", 105, 300),
		}},
	)

	results, err := uc.Run(context.Background(), []string{"BTC", "ETH", "XYZ"}, true)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	btc := results[0]
	if btc.Symbol != "BTC" || btc.PriceSources != 2 {
		t.Fatalf("unexpected btc signal: %+v", btc)
	}
	if !btc.PriceDispersion.Valid {
		t.Fatalf("btc dispersion should be set")
	}
	// (105-100)/102.5*100 = 4.878
	want := decimal.RequireFromString("4.878")
	if !btc.PriceDispersion.Decimal.Round(3).Equal(want) {
		t.Fatalf("btc dispersion = %s, want %s", btc.PriceDispersion.Decimal, want)
	}
	if btc.SignalLevel == nil {
		t.Fatalf("btc level should be set")
	}

	// single-source coin has no dispersion and no level
	eth := results[1]
	if eth.PriceSources != 1 || eth.PriceDispersion.Valid || eth.SignalLevel != nil {
		t.Fatalf("unexpected eth signal: %+v", eth)
	}

	// unseen coin still yields a record
	xyz := results[2]
	if xyz.Symbol != "XYZ" || xyz.PriceSources != 0 || xyz.SignalLevel != nil {
		t.Fatalf("unexpected xyz signal: %+v", xyz)
	}
	if xyz.SignalType != models.SignalNeutral {
		t.Fatalf("xyz type = %s", xyz.SignalType)
	}
}

func TestCalculateDryRunSkipsWrites(t *testing.T) {
	store := &fakeSignalStore{history: dominanceHistory(8)}
	uc := newCalculate(t, store, &fakeQuoteSource{name: "alpha", obs: []models.Observation{
		quote("BTC", "alpha", 100, 700),
	}})

	if _, err := uc.Run(context.Background(), []string{"BTC"}, true); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.upserted) != 0 {
		t.Fatalf("dry run wrote %d signals", len(store.upserted))
	}
}

func TestCalculatePersistsSignals(t *testing.T) {
	store := &fakeSignalStore{history: dominanceHistory(8)}
	uc := newCalculate(t, store,
		&fakeQuoteSource{name: "alpha", obs: []models.Observation{quote("BTC", "alpha", 100, 700)}},
		&fakeQuoteSource{name: "beta", obs: []models.Observation{quote("BTC", "beta", 101, 300)}},
	)

	if _, err := uc.Run(context.Background(), []string{"BTC"}, false); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.upserted) != 1 {
		t.Fatalf("expected 1 upserted signal, got %d", len(store.upserted))
	}
	if got := store.upserted[0].DataSources; len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Fatalf("data sources = %v", got)
	}
}

func TestSummarizeBuildsDailyRollup(t *testing.T) {
	level4, level2 := 4, 2
	store := &fakeSignalStore{signals: []models.DispersionSignal{
		{
			Symbol:          "BTC",
			PriceDispersion: decimal.NewNullDecimal(decimal.RequireFromString("6.5")),
			SignalLevel:     &level4,
		},
		{
			Symbol:          "ETH",
			PriceDispersion: decimal.NewNullDecimal(decimal.RequireFromString("0.5")),
			SignalLevel:     &level2,
		},
	}}
	lgr := testLogger(t)
	uc := NewSummarizeUsecase(dispersion.NewCalculator(lgr), store, lgr, 5)

	summary, err := uc.Run(context.Background(), "2025-03-09", false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.CoinsAnalyzed != 2 || summary.HighSignalCount != 1 || summary.LowSignalCount != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if len(summary.TopDispersionCoins) == 0 || summary.TopDispersionCoins[0] != "BTC" {
		t.Fatalf("top coins = %v", summary.TopDispersionCoins)
	}
	if !summary.BTCDominanceAvg.Valid || !summary.BTCDominanceAvg.Decimal.Equal(decimal.RequireFromString("52.5")) {
		t.Fatalf("btc dominance avg = %+v", summary.BTCDominanceAvg)
	}
	if len(store.summaries) != 1 {
		t.Fatalf("summary not persisted")
	}
}
