package collectors

import (
	"context"
	"errors"
	"testing"
	"time"

	"DispersionSignal/internal/domain/models"
	"DispersionSignal/pkg/logger"

	"github.com/shopspring/decimal"
)

type fakeQuoteSource struct {
	name string
	obs  []models.Observation
	err  error
}

func (f *fakeQuoteSource) Name() string { return f.name }

func (f *fakeQuoteSource) FetchQuotes(ctx context.Context, symbols []string) ([]models.Observation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.obs, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return lgr
}

func obs(symbol, source, price string) models.Observation {
	return models.Observation{
		Symbol:    symbol,
		Source:    source,
		Price:     decimal.RequireFromString(price),
		Timestamp: time.Now().UTC(),
	}
}

func TestCollectQuotesGroupsBySymbol(t *testing.T) {
	r := NewRegistry(testLogger(t),
		WithQuoteSource(&fakeQuoteSource{name: "a", obs: []models.Observation{
			obs("BTC", "a", "100"),
			obs("ETH", "a", "10"),
		}}),
		WithQuoteSource(&fakeQuoteSource{name: "b", obs: []models.Observation{
			obs("BTC", "b", "101"),
		}}),
	)

	got, err := r.CollectQuotes(context.Background(), []string{"BTC", "ETH"})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(got["BTC"]) != 2 {
		t.Fatalf("BTC observations = %d, want 2", len(got["BTC"]))
	}
	if len(got["ETH"]) != 1 {
		t.Fatalf("ETH observations = %d, want 1", len(got["ETH"]))
	}
}

func TestCollectQuotesToleratesSourceFailure(t *testing.T) {
	r := NewRegistry(testLogger(t),
		WithQuoteSource(&fakeQuoteSource{name: "bad", err: errors.New("down")}),
		WithQuoteSource(&fakeQuoteSource{name: "good", obs: []models.Observation{
			obs("BTC", "good", "100"),
		}}),
	)

	got, err := r.CollectQuotes(context.Background(), []string{"BTC"})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(got["BTC"]) != 1 {
		t.Fatalf("BTC observations = %d, want 1 from surviving source", len(got["BTC"]))
	}
}

func TestQuoteSourceNamesSorted(t *testing.T) {
	r := NewRegistry(testLogger(t),
		WithQuoteSource(&fakeQuoteSource{name: "zeta"}),
		WithQuoteSource(&fakeQuoteSource{name: "alpha"}),
	)

	names := r.QuoteSourceNames()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Fatalf("names = %v, want [alpha zeta]", names)
	}
}
