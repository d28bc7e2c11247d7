package api

import (
	"time"

	"DispersionSignal/internal/domain/models"

	"github.com/shopspring/decimal"
)

// Wire DTOs for the query endpoints. Null metrics serialize as JSON null.

type signalResponse struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`

	PriceDispersion decimal.NullDecimal `json:"price_dispersion"`
	PriceSources    int                 `json:"price_sources"`
	PriceMax        decimal.NullDecimal `json:"price_max"`
	PriceMin        decimal.NullDecimal `json:"price_min"`
	PriceAvg        decimal.NullDecimal `json:"price_avg"`
	PriceStdDev     decimal.NullDecimal `json:"price_stddev"`

	VolumeConcentration decimal.NullDecimal `json:"volume_concentration"`
	VolumeTotal         decimal.NullDecimal `json:"volume_total"`

	BTCDominance         decimal.NullDecimal `json:"btc_dominance"`
	BTCDominanceChange7d decimal.NullDecimal `json:"btc_dominance_change_7d"`
	ETHDominance         decimal.NullDecimal `json:"eth_dominance"`
	ETHDominanceChange7d decimal.NullDecimal `json:"eth_dominance_change_7d"`

	SignalLevel *int   `json:"signal_level"`
	SignalType  string `json:"signal_type"`

	DataSources       []string `json:"data_sources"`
	CalculationMethod string   `json:"calculation_method"`
}

func toSignalResponse(s models.DispersionSignal) signalResponse {
	return signalResponse{
		Symbol:               s.Symbol,
		Timestamp:            s.Timestamp,
		PriceDispersion:      s.PriceDispersion,
		PriceSources:         s.PriceSources,
		PriceMax:             s.PriceMax,
		PriceMin:             s.PriceMin,
		PriceAvg:             s.PriceAvg,
		PriceStdDev:          s.PriceStdDev,
		VolumeConcentration:  s.VolumeConcentration,
		VolumeTotal:          s.VolumeTotal,
		BTCDominance:         s.BTCDominance,
		BTCDominanceChange7d: s.BTCDominanceChange7d,
		ETHDominance:         s.ETHDominance,
		ETHDominanceChange7d: s.ETHDominanceChange7d,
		SignalLevel:          s.SignalLevel,
		SignalType:           string(s.SignalType),
		DataSources:          s.DataSources,
		CalculationMethod:    s.CalculationMethod,
	}
}

func toSignalResponses(signals []models.DispersionSignal) []signalResponse {
	out := make([]signalResponse, 0, len(signals))
	for _, s := range signals {
		out = append(out, toSignalResponse(s))
	}
	return out
}

type summaryResponse struct {
	Date string `json:"date"`

	MarketDispersionAvg decimal.NullDecimal `json:"market_dispersion_avg"`
	MarketDispersionMax decimal.NullDecimal `json:"market_dispersion_max"`
	MarketDispersionMin decimal.NullDecimal `json:"market_dispersion_min"`

	TopDispersionCoins []string `json:"top_dispersion_coins"`
	LowDispersionCoins []string `json:"low_dispersion_coins"`

	BTCDominanceAvg decimal.NullDecimal `json:"btc_dominance_avg"`
	ETHDominanceAvg decimal.NullDecimal `json:"eth_dominance_avg"`

	HighSignalCount int `json:"high_signal_count"`
	LowSignalCount  int `json:"low_signal_count"`
	CoinsAnalyzed   int `json:"coins_analyzed"`
}

func toSummaryResponse(s *models.DailySummary) summaryResponse {
	return summaryResponse{
		Date:                s.Date.Format("2006-01-02"),
		MarketDispersionAvg: s.MarketDispersionAvg,
		MarketDispersionMax: s.MarketDispersionMax,
		MarketDispersionMin: s.MarketDispersionMin,
		TopDispersionCoins:  s.TopDispersionCoins,
		LowDispersionCoins:  s.LowDispersionCoins,
		BTCDominanceAvg:     s.BTCDominanceAvg,
		ETHDominanceAvg:     s.ETHDominanceAvg,
		HighSignalCount:     s.HighSignalCount,
		LowSignalCount:      s.LowSignalCount,
		CoinsAnalyzed:       s.CoinsAnalyzed,
	}
}

type rankingsResponse struct {
	Date               string   `json:"date"`
	TopDispersionCoins []string `json:"top_dispersion_coins"`
	LowDispersionCoins []string `json:"low_dispersion_coins"`
}
