package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Observation is a single price/volume reading for one coin from one source.
type Observation struct {
	Symbol    string
	Source    string
	Price     decimal.Decimal
	Volume    decimal.NullDecimal
	Timestamp time.Time
}

// GlobalMetrics is a market-wide dominance/cap snapshot from one source.
type GlobalMetrics struct {
	Timestamp      time.Time
	BTCDominance   decimal.NullDecimal
	ETHDominance   decimal.NullDecimal
	TotalMarketCap decimal.NullDecimal
	TotalVolume24h decimal.NullDecimal
	Source         string
}

// CoinSnapshot groups everything collected for one coin in one collection round.
type CoinSnapshot struct {
	Symbol       string
	Observations []Observation
	Sentiment    *Sentiment
}

// Sentiment is a community-activity reading for one coin.
type Sentiment struct {
	Symbol       string
	Score        decimal.NullDecimal // -100..100
	MentionCount int
	Source       string
	Timestamp    time.Time
}
