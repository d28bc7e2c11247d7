package dispersion

import (
	"sort"

	"DispersionSignal/internal/domain/models"
	"DispersionSignal/pkg/logger"

	"github.com/shopspring/decimal"
)

// Threshold constants for level scoring and type classification.
// All comparisons are strict inequalities on the rounded values.
var (
	dispersionHigh     = decimal.NewFromInt(5)
	dispersionElevated = decimal.NewFromInt(2)
	concentrationHigh  = decimal.NewFromInt(2500)
	dominanceShift     = decimal.NewFromInt(2)

	divergenceDispersion    = decimal.NewFromInt(3)
	divergenceConcentration = decimal.NewFromInt(2000)
	convergenceDispersion   = decimal.NewFromInt(1)
	convergenceConcentration = decimal.NewFromInt(1500)

	dominanceTrendStep = decimal.NewFromInt(1)

	hundred  = decimal.NewFromInt(100)
	hhiScale = decimal.NewFromInt(10000)
)

const (
	maxSignalLevel = 5
	roundPlaces    = 4
)

// Calculator computes dispersion metrics and signal classifications.
// All exported methods are total: on any internal failure they log a
// warning and return the documented safe default instead of an error.
type Calculator struct {
	logger *logger.Logger
}

// NewCalculator creates a calculator with the given logger.
func NewCalculator(lgr *logger.Logger) *Calculator {
	return &Calculator{logger: lgr}
}

// PriceDispersion returns the max-min spread relative to the average
// price, as a percentage rounded to 4 decimal places. Null prices are
// ignored; fewer than two valid prices or a zero average yield 0.
func (c *Calculator) PriceDispersion(prices []decimal.NullDecimal) decimal.Decimal {
	v, err := priceDispersion(prices)
	if err != nil {
		c.logger.Warn("price dispersion calculation failed", logger.Error(err))
		return decimal.Zero
	}
	return v
}

func priceDispersion(prices []decimal.NullDecimal) (decimal.Decimal, error) {
	if len(prices) < 2 {
		return decimal.Zero, nil
	}

	valid := make([]decimal.Decimal, 0, len(prices))
	for _, p := range prices {
		if p.Valid {
			valid = append(valid, p.Decimal)
		}
	}
	if len(valid) < 2 {
		return decimal.Zero, nil
	}

	maxP, minP, sum := valid[0], valid[0], decimal.Zero
	for _, p := range valid {
		if p.GreaterThan(maxP) {
			maxP = p
		}
		if p.LessThan(minP) {
			minP = p
		}
		sum = sum.Add(p)
	}

	avg := sum.Div(decimal.NewFromInt(int64(len(valid))))
	if avg.IsZero() {
		return decimal.Zero, nil
	}

	return maxP.Sub(minP).Div(avg).Mul(hundred).Round(roundPlaces), nil
}

// VolumeConcentration returns the Herfindahl-Hirschman index of the
// per-venue volume shares, scaled to 0-10000 and rounded to 4 decimal
// places. Null and non-positive volumes are dropped; an empty or
// zero-total map yields 0.
func (c *Calculator) VolumeConcentration(volumes map[string]decimal.NullDecimal) decimal.Decimal {
	v, err := volumeConcentration(volumes)
	if err != nil {
		c.logger.Warn("volume concentration calculation failed", logger.Error(err))
		return decimal.Zero
	}
	return v
}

func volumeConcentration(volumes map[string]decimal.NullDecimal) (decimal.Decimal, error) {
	if len(volumes) == 0 {
		return decimal.Zero, nil
	}

	valid := make([]decimal.Decimal, 0, len(volumes))
	total := decimal.Zero
	for _, v := range volumes {
		if v.Valid && v.Decimal.IsPositive() {
			valid = append(valid, v.Decimal)
			total = total.Add(v.Decimal)
		}
	}
	if len(valid) == 0 || total.IsZero() {
		return decimal.Zero, nil
	}

	hhi := decimal.Zero
	for _, v := range valid {
		share := v.Div(total)
		hhi = hhi.Add(share.Mul(share))
	}

	return hhi.Mul(hhiScale).Round(roundPlaces), nil
}

// DominanceTrend compares the most recent dominance snapshot against the
// one `window` steps back. History must be ordered most-recent-first.
// Fewer than `window` records yield zero changes with direction
// insufficient_data. Missing dominance values leave the corresponding
// change at 0. BTC movement takes precedence over ETH when labeling the
// direction.
func (c *Calculator) DominanceTrend(history []models.GlobalMetrics, window int) models.DominanceTrend {
	t, err := dominanceTrend(history, window)
	if err != nil {
		c.logger.Warn("dominance trend calculation failed", logger.Error(err))
		return models.DominanceTrend{Direction: models.TrendError}
	}
	return t
}

func dominanceTrend(history []models.GlobalMetrics, window int) (models.DominanceTrend, error) {
	if len(history) < window {
		return models.DominanceTrend{Direction: models.TrendInsufficientData}, nil
	}

	latest := history[0]
	pastIdx := window
	if pastIdx > len(history)-1 {
		pastIdx = len(history) - 1
	}
	past := history[pastIdx]

	btcChange, ethChange := decimal.Zero, decimal.Zero
	if latest.BTCDominance.Valid && past.BTCDominance.Valid {
		btcChange = latest.BTCDominance.Decimal.Sub(past.BTCDominance.Decimal)
	}
	if latest.ETHDominance.Valid && past.ETHDominance.Valid {
		ethChange = latest.ETHDominance.Decimal.Sub(past.ETHDominance.Decimal)
	}

	direction := models.TrendNeutral
	switch {
	case btcChange.GreaterThan(dominanceTrendStep):
		direction = models.TrendBTCIncreasing
	case btcChange.LessThan(dominanceTrendStep.Neg()):
		direction = models.TrendBTCDecreasing
	case ethChange.GreaterThan(dominanceTrendStep):
		direction = models.TrendETHIncreasing
	case ethChange.LessThan(dominanceTrendStep.Neg()):
		direction = models.TrendETHDecreasing
	}

	return models.DominanceTrend{
		BTCDominanceChange7d: btcChange.Round(roundPlaces),
		ETHDominanceChange7d: ethChange.Round(roundPlaces),
		Direction:            direction,
	}, nil
}

// SignalLevel scores a coin's dispersion state on a 1-5 scale and
// classifies its regime. Level starts at 1: +2 for dispersion above 5%
// (else +1 above 2%), +1 for concentration above 2500, +1 for an
// absolute dominance change above 2, capped at 5. Divergence requires
// dispersion above 3% with concentration above 2000; convergence
// requires dispersion below 1% with concentration below 1500.
func (c *Calculator) SignalLevel(pd, vc, domChange decimal.Decimal) (int, models.SignalType) {
	level, typ, err := signalLevel(pd, vc, domChange)
	if err != nil {
		c.logger.Warn("signal level calculation failed", logger.Error(err))
		return 1, models.SignalNeutral
	}
	return level, typ
}

func signalLevel(pd, vc, domChange decimal.Decimal) (int, models.SignalType, error) {
	level := 1

	if pd.GreaterThan(dispersionHigh) {
		level += 2
	} else if pd.GreaterThan(dispersionElevated) {
		level++
	}
	if vc.GreaterThan(concentrationHigh) {
		level++
	}
	if domChange.Abs().GreaterThan(dominanceShift) {
		level++
	}
	if level > maxSignalLevel {
		level = maxSignalLevel
	}

	typ := models.SignalNeutral
	if pd.GreaterThan(divergenceDispersion) && vc.GreaterThan(divergenceConcentration) {
		typ = models.SignalDivergence
	} else if pd.LessThan(convergenceDispersion) && vc.LessThan(convergenceConcentration) {
		typ = models.SignalConvergence
	}

	return level, typ, nil
}

// MarketSummary aggregates one round of signals into market-wide stats.
// Null dispersions are excluded from the avg/max/min; CoinsAnalyzed
// always reflects the full input size. When no dispersion survives the
// null filter, the signal counts are 0 as well.
func (c *Calculator) MarketSummary(results []models.DispersionSignal) models.MarketStats {
	if len(results) == 0 {
		return zeroMarketStats(0)
	}

	dispersions := make([]decimal.Decimal, 0, len(results))
	for _, r := range results {
		if r.PriceDispersion.Valid {
			dispersions = append(dispersions, r.PriceDispersion.Decimal)
		}
	}
	if len(dispersions) == 0 {
		return zeroMarketStats(len(results))
	}

	maxD, minD, sum := dispersions[0], dispersions[0], decimal.Zero
	for _, d := range dispersions {
		if d.GreaterThan(maxD) {
			maxD = d
		}
		if d.LessThan(minD) {
			minD = d
		}
		sum = sum.Add(d)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(dispersions))))

	high, low := 0, 0
	for _, r := range results {
		if r.SignalLevel == nil {
			continue
		}
		if *r.SignalLevel >= 4 {
			high++
		}
		if *r.SignalLevel <= 2 {
			low++
		}
	}

	return models.MarketStats{
		MarketDispersionAvg: decimal.NewNullDecimal(avg.Round(roundPlaces)),
		MarketDispersionMax: decimal.NewNullDecimal(maxD.Round(roundPlaces)),
		MarketDispersionMin: decimal.NewNullDecimal(minD.Round(roundPlaces)),
		HighSignalCount:     high,
		LowSignalCount:      low,
		CoinsAnalyzed:       len(results),
	}
}

func zeroMarketStats(analyzed int) models.MarketStats {
	return models.MarketStats{
		MarketDispersionAvg: decimal.NewNullDecimal(decimal.Zero),
		MarketDispersionMax: decimal.NewNullDecimal(decimal.Zero),
		MarketDispersionMin: decimal.NewNullDecimal(decimal.Zero),
		CoinsAnalyzed:       analyzed,
	}
}

// TopDispersionCoins returns up to n symbols ranked by descending
// dispersion. Null dispersions rank as zero; this keeps never-quoted
// coins visible at the bottom of the board instead of hiding them.
func (c *Calculator) TopDispersionCoins(results []models.DispersionSignal, n int) []string {
	return rankBySymbol(results, n, true)
}

// LowDispersionCoins returns up to n symbols ranked by ascending
// dispersion, with the same null-as-zero policy as TopDispersionCoins.
func (c *Calculator) LowDispersionCoins(results []models.DispersionSignal, n int) []string {
	return rankBySymbol(results, n, false)
}

func rankBySymbol(results []models.DispersionSignal, n int, desc bool) []string {
	if n <= 0 || len(results) == 0 {
		return []string{}
	}

	sorted := make([]models.DispersionSignal, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := rankValue(sorted[i]), rankValue(sorted[j])
		if desc {
			return a.GreaterThan(b)
		}
		return a.LessThan(b)
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	out := make([]string, 0, n)
	for _, s := range sorted[:n] {
		if s.Symbol != "" {
			out = append(out, s.Symbol)
		}
	}
	return out
}

func rankValue(s models.DispersionSignal) decimal.Decimal {
	if !s.PriceDispersion.Valid {
		return decimal.Zero
	}
	return s.PriceDispersion.Decimal
}
