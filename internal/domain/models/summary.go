package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySummary is the per-day market rollup. One row per UTC date,
// replaced on recomputation.
type DailySummary struct {
	Date time.Time // UTC midnight

	MarketDispersionAvg decimal.NullDecimal
	MarketDispersionMax decimal.NullDecimal
	MarketDispersionMin decimal.NullDecimal

	TopDispersionCoins []string
	LowDispersionCoins []string

	BTCDominanceAvg decimal.NullDecimal
	ETHDominanceAvg decimal.NullDecimal

	HighSignalCount int
	LowSignalCount  int
	CoinsAnalyzed   int
}
