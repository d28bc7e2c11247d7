package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignalType classifies the dispersion regime of a coin.
type SignalType string

const (
	SignalConvergence    SignalType = "convergence"
	SignalDivergence     SignalType = "divergence"
	SignalNeutral        SignalType = "neutral"
	SignalHighVolatility SignalType = "high_volatility"
	SignalLowVolatility  SignalType = "low_volatility"
)

// TrendDirection labels the 7-day dominance movement.
type TrendDirection string

const (
	TrendNeutral          TrendDirection = "neutral"
	TrendBTCIncreasing    TrendDirection = "btc_increasing"
	TrendBTCDecreasing    TrendDirection = "btc_decreasing"
	TrendETHIncreasing    TrendDirection = "eth_increasing"
	TrendETHDecreasing    TrendDirection = "eth_decreasing"
	TrendInsufficientData TrendDirection = "insufficient_data"
	TrendError            TrendDirection = "error"
)

// DominanceTrend is the result of comparing dominance snapshots across a window.
type DominanceTrend struct {
	BTCDominanceChange7d decimal.Decimal
	ETHDominanceChange7d decimal.Decimal
	Direction            TrendDirection
}

// DispersionSignal is one coin's multi-source dispersion record at one point
// in time. Records are immutable; recomputation replaces on (Symbol, Timestamp).
type DispersionSignal struct {
	Symbol    string
	Timestamp time.Time

	PriceDispersion decimal.NullDecimal
	PriceSources    int
	PriceMax        decimal.NullDecimal
	PriceMin        decimal.NullDecimal
	PriceAvg        decimal.NullDecimal
	PriceStdDev     decimal.NullDecimal

	VolumeConcentration decimal.NullDecimal
	VolumeTotal         decimal.NullDecimal

	BTCDominance         decimal.NullDecimal
	BTCDominanceChange7d decimal.NullDecimal
	ETHDominance         decimal.NullDecimal
	ETHDominanceChange7d decimal.NullDecimal

	SignalLevel *int
	SignalType  SignalType

	DataSources       []string
	CalculationMethod string
}

// EnhancedSignal extends DispersionSignal with community sentiment and a
// confidence score derived from source coverage and mention volume.
type EnhancedSignal struct {
	DispersionSignal

	SentimentScore  decimal.NullDecimal
	MentionCount    *int
	ConfidenceScore decimal.Decimal
}

// MarketStats aggregates one calculation round across all analyzed coins.
type MarketStats struct {
	MarketDispersionAvg decimal.NullDecimal
	MarketDispersionMax decimal.NullDecimal
	MarketDispersionMin decimal.NullDecimal
	HighSignalCount     int
	LowSignalCount      int
	CoinsAnalyzed       int
}
