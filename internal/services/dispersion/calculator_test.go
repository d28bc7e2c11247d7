package dispersion

import (
	"testing"

	"DispersionSignal/internal/domain/models"
	"DispersionSignal/pkg/logger"

	"github.com/shopspring/decimal"
)

func testCalculator(t *testing.T) *Calculator {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewCalculator(lgr)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func null() decimal.NullDecimal {
	return decimal.NullDecimal{}
}

func intPtr(v int) *int { return &v }

func TestPriceDispersionKnownValue(t *testing.T) {
	c := testCalculator(t)

	// (110-100)/105*100 = 9.5238...
	got := c.PriceDispersion([]decimal.NullDecimal{nd("100"), nd("110")})
	want := decimal.RequireFromString("9.5238")
	if !got.Equal(want) {
		t.Fatalf("dispersion = %s, want %s", got, want)
	}

	// Same input, same output.
	again := c.PriceDispersion([]decimal.NullDecimal{nd("100"), nd("110")})
	if !again.Equal(got) {
		t.Fatalf("dispersion not deterministic: %s vs %s", again, got)
	}
}

func TestPriceDispersionDegenerateInputs(t *testing.T) {
	c := testCalculator(t)

	cases := []struct {
		name   string
		prices []decimal.NullDecimal
	}{
		{"empty", nil},
		{"single", []decimal.NullDecimal{nd("100")}},
		{"single valid among nulls", []decimal.NullDecimal{nd("100"), null(), null()}},
		{"all null", []decimal.NullDecimal{null(), null()}},
		{"zero average", []decimal.NullDecimal{nd("-5"), nd("5")}},
	}
	for _, tc := range cases {
		if got := c.PriceDispersion(tc.prices); !got.IsZero() {
			t.Fatalf("%s: dispersion = %s, want 0", tc.name, got)
		}
	}
}

func TestPriceDispersionIgnoresNulls(t *testing.T) {
	c := testCalculator(t)

	withNull := c.PriceDispersion([]decimal.NullDecimal{nd("100"), null(), nd("110")})
	without := c.PriceDispersion([]decimal.NullDecimal{nd("100"), nd("110")})
	if !withNull.Equal(without) {
		t.Fatalf("null price changed result: %s vs %s", withNull, without)
	}
}

func TestVolumeConcentrationMonopoly(t *testing.T) {
	c := testCalculator(t)

	got := c.VolumeConcentration(map[string]decimal.NullDecimal{"binance": nd("1000")})
	if !got.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("single-venue HHI = %s, want 10000", got)
	}
}

func TestVolumeConcentrationTwoEqualVenues(t *testing.T) {
	c := testCalculator(t)

	got := c.VolumeConcentration(map[string]decimal.NullDecimal{
		"binance":  nd("500"),
		"coinbase": nd("500"),
	})
	if !got.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("two-equal-venue HHI = %s, want 5000", got)
	}
}

func TestVolumeConcentrationBoundsAndFiltering(t *testing.T) {
	c := testCalculator(t)

	got := c.VolumeConcentration(map[string]decimal.NullDecimal{
		"a": nd("300"),
		"b": nd("200"),
		"c": nd("100"),
		"d": null(),
		"e": nd("-50"),
		"f": nd("0"),
	})
	if got.LessThan(decimal.Zero) || got.GreaterThan(decimal.NewFromInt(10000)) {
		t.Fatalf("HHI out of range: %s", got)
	}
	// shares 1/2, 1/3, 1/6 -> HHI = (0.25 + 0.1111.. + 0.0277..) * 10000
	want := decimal.RequireFromString("3888.8889")
	if !got.Equal(want) {
		t.Fatalf("HHI = %s, want %s", got, want)
	}
}

func TestVolumeConcentrationEmpty(t *testing.T) {
	c := testCalculator(t)

	if got := c.VolumeConcentration(nil); !got.IsZero() {
		t.Fatalf("empty HHI = %s, want 0", got)
	}
	if got := c.VolumeConcentration(map[string]decimal.NullDecimal{"x": null()}); !got.IsZero() {
		t.Fatalf("all-null HHI = %s, want 0", got)
	}
}

func TestSignalLevelMonotonicOnDispersion(t *testing.T) {
	c := testCalculator(t)
	vc := decimal.Zero
	dom := decimal.Zero

	l1, _ := c.SignalLevel(decimal.NewFromInt(1), vc, dom)
	l2, _ := c.SignalLevel(decimal.NewFromInt(3), vc, dom)
	l3, _ := c.SignalLevel(decimal.NewFromInt(6), vc, dom)

	if l1 != 1 || l2 != 2 || l3 != 3 {
		t.Fatalf("levels = %d,%d,%d, want 1,2,3", l1, l2, l3)
	}
}

func TestSignalLevelClamp(t *testing.T) {
	c := testCalculator(t)

	level, _ := c.SignalLevel(
		decimal.NewFromInt(50),
		decimal.NewFromInt(9000),
		decimal.NewFromInt(10),
	)
	if level != 5 {
		t.Fatalf("level = %d, want clamp at 5", level)
	}
}

func TestSignalTypeThresholdBoundary(t *testing.T) {
	c := testCalculator(t)
	vc := decimal.NewFromInt(2400)

	// Exactly 3.0000 is not divergence; strictly above is.
	_, at := c.SignalLevel(decimal.RequireFromString("3.0000"), vc, decimal.Zero)
	if at != models.SignalNeutral {
		t.Fatalf("type at 3.0000 = %s, want neutral", at)
	}
	_, above := c.SignalLevel(decimal.RequireFromString("3.0001"), vc, decimal.Zero)
	if above != models.SignalDivergence {
		t.Fatalf("type at 3.0001 = %s, want divergence", above)
	}
}

func TestSignalTypeExclusive(t *testing.T) {
	c := testCalculator(t)

	cases := []struct {
		pd, vc string
		want   models.SignalType
	}{
		{"4", "2500", models.SignalDivergence},
		{"0.5", "1000", models.SignalConvergence},
		{"0.5", "3000", models.SignalNeutral}, // low dispersion but concentrated
		{"4", "1000", models.SignalNeutral},   // dispersed but not concentrated
		{"2", "1800", models.SignalNeutral},
	}
	for _, tc := range cases {
		_, got := c.SignalLevel(
			decimal.RequireFromString(tc.pd),
			decimal.RequireFromString(tc.vc),
			decimal.Zero,
		)
		if got != tc.want {
			t.Fatalf("pd=%s vc=%s: type = %s, want %s", tc.pd, tc.vc, got, tc.want)
		}
	}
}

func TestDominanceTrendInsufficientData(t *testing.T) {
	c := testCalculator(t)

	history := []models.GlobalMetrics{
		{BTCDominance: nd("50"), ETHDominance: nd("17")},
	}
	got := c.DominanceTrend(history, 7)
	if got.Direction != models.TrendInsufficientData {
		t.Fatalf("direction = %s, want insufficient_data", got.Direction)
	}
	if !got.BTCDominanceChange7d.IsZero() || !got.ETHDominanceChange7d.IsZero() {
		t.Fatalf("changes not zero: %s / %s", got.BTCDominanceChange7d, got.ETHDominanceChange7d)
	}
}

func TestDominanceTrendBTCTakesPrecedence(t *testing.T) {
	c := testCalculator(t)

	history := make([]models.GlobalMetrics, 8)
	for i := range history {
		history[i] = models.GlobalMetrics{BTCDominance: nd("48"), ETHDominance: nd("16")}
	}
	// Both BTC and ETH moved more than +1 over the window.
	history[0] = models.GlobalMetrics{BTCDominance: nd("50"), ETHDominance: nd("18")}

	got := c.DominanceTrend(history, 7)
	if got.Direction != models.TrendBTCIncreasing {
		t.Fatalf("direction = %s, want btc_increasing", got.Direction)
	}
	if !got.BTCDominanceChange7d.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("btc change = %s, want 2", got.BTCDominanceChange7d)
	}
}

func TestDominanceTrendMissingValues(t *testing.T) {
	c := testCalculator(t)

	history := make([]models.GlobalMetrics, 8)
	for i := range history {
		history[i] = models.GlobalMetrics{BTCDominance: null(), ETHDominance: nd("15")}
	}
	history[0] = models.GlobalMetrics{BTCDominance: nd("60"), ETHDominance: nd("17")}

	got := c.DominanceTrend(history, 7)
	if !got.BTCDominanceChange7d.IsZero() {
		t.Fatalf("btc change with missing past = %s, want 0", got.BTCDominanceChange7d)
	}
	if got.Direction != models.TrendETHIncreasing {
		t.Fatalf("direction = %s, want eth_increasing", got.Direction)
	}
}

func TestMarketSummaryCountIntegrity(t *testing.T) {
	c := testCalculator(t)

	results := []models.DispersionSignal{
		{Symbol: "BTC", PriceDispersion: nd("4"), SignalLevel: intPtr(4)},
		{Symbol: "ETH", PriceDispersion: nd("2"), SignalLevel: intPtr(2)},
		{Symbol: "SOL", PriceDispersion: null(), SignalLevel: intPtr(5)},
		{Symbol: "ADA", PriceDispersion: nd("1"), SignalLevel: nil},
	}

	got := c.MarketSummary(results)
	if got.CoinsAnalyzed != 4 {
		t.Fatalf("coins analyzed = %d, want 4", got.CoinsAnalyzed)
	}
	if got.HighSignalCount != 2 || got.LowSignalCount != 1 {
		t.Fatalf("high/low = %d/%d, want 2/1", got.HighSignalCount, got.LowSignalCount)
	}
	if !got.MarketDispersionMax.Decimal.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("max = %s, want 4", got.MarketDispersionMax.Decimal)
	}
	if !got.MarketDispersionMin.Decimal.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("min = %s, want 1", got.MarketDispersionMin.Decimal)
	}
}

func TestMarketSummaryAllNullDispersions(t *testing.T) {
	c := testCalculator(t)

	results := []models.DispersionSignal{
		{Symbol: "BTC", PriceDispersion: null(), SignalLevel: intPtr(5)},
		{Symbol: "ETH", PriceDispersion: null(), SignalLevel: intPtr(1)},
	}

	got := c.MarketSummary(results)
	if got.CoinsAnalyzed != 2 {
		t.Fatalf("coins analyzed = %d, want 2", got.CoinsAnalyzed)
	}
	if got.HighSignalCount != 0 || got.LowSignalCount != 0 {
		t.Fatalf("high/low = %d/%d, want 0/0 when no dispersion data", got.HighSignalCount, got.LowSignalCount)
	}
}

func TestRankingDisjoint(t *testing.T) {
	c := testCalculator(t)

	results := []models.DispersionSignal{
		{Symbol: "A", PriceDispersion: nd("5")},
		{Symbol: "B", PriceDispersion: nd("4")},
		{Symbol: "C", PriceDispersion: nd("3")},
		{Symbol: "D", PriceDispersion: nd("2")},
		{Symbol: "E", PriceDispersion: nd("1")},
		{Symbol: "F", PriceDispersion: nd("0.5")},
	}

	top := c.TopDispersionCoins(results, 2)
	low := c.LowDispersionCoins(results, 2)

	if len(top) != 2 || top[0] != "A" || top[1] != "B" {
		t.Fatalf("top = %v, want [A B]", top)
	}
	if len(low) != 2 || low[0] != "F" || low[1] != "E" {
		t.Fatalf("low = %v, want [F E]", low)
	}
	for _, s := range top {
		for _, l := range low {
			if s == l {
				t.Fatalf("top and low overlap on %s", s)
			}
		}
	}
}

func TestRankingNullAsZero(t *testing.T) {
	c := testCalculator(t)

	results := []models.DispersionSignal{
		{Symbol: "A", PriceDispersion: nd("2")},
		{Symbol: "B", PriceDispersion: null()},
		{Symbol: "C", PriceDispersion: nd("1")},
	}

	low := c.LowDispersionCoins(results, 1)
	if len(low) != 1 || low[0] != "B" {
		t.Fatalf("low = %v, want null-dispersion coin B ranked as zero", low)
	}
}

func TestRankingDropsEmptySymbols(t *testing.T) {
	c := testCalculator(t)

	results := []models.DispersionSignal{
		{Symbol: "", PriceDispersion: nd("9")},
		{Symbol: "A", PriceDispersion: nd("5")},
	}

	top := c.TopDispersionCoins(results, 2)
	if len(top) != 1 || top[0] != "A" {
		t.Fatalf("top = %v, want [A]", top)
	}
}

func TestEndToEndDivergenceScenario(t *testing.T) {
	c := testCalculator(t)

	// One coin quoted on three venues with a visible spread and a
	// concentrated volume profile.
	prices := []decimal.NullDecimal{nd("100"), nd("102"), nd("104.2")}
	volumes := map[string]decimal.NullDecimal{
		"binance":  nd("700"),
		"coinbase": nd("200"),
		"kraken":   nd("100"),
	}

	pd := c.PriceDispersion(prices)
	vc := c.VolumeConcentration(volumes)

	if !pd.GreaterThan(decimal.NewFromInt(3)) || !pd.LessThan(decimal.NewFromInt(5)) {
		t.Fatalf("scenario dispersion = %s, want between 3 and 5", pd)
	}
	// shares 0.7/0.2/0.1 -> HHI 5400
	if !vc.Equal(decimal.NewFromInt(5400)) {
		t.Fatalf("scenario HHI = %s, want 5400", vc)
	}

	level, typ := c.SignalLevel(pd, vc, decimal.Zero)
	if typ != models.SignalDivergence {
		t.Fatalf("type = %s, want divergence", typ)
	}
	if level != 3 {
		t.Fatalf("level = %d, want 3 (elevated dispersion + concentration)", level)
	}
}
