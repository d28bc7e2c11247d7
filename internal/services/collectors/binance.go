package collectors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"DispersionSignal/internal/domain/models"
	"DispersionSignal/internal/service/ratelimit"
	"DispersionSignal/pkg/config"
	"DispersionSignal/pkg/logger"

	"github.com/shopspring/decimal"
)

const binanceName = "binance"

// Binance quotes coins off the spot 24hr ticker, using the USDT pair.
type Binance struct {
	restSource
}

func NewBinance(cfg *config.Config, limiter *ratelimit.Limiter, lgr *logger.Logger) *Binance {
	src := cfg.Sources.Binance
	return &Binance{
		restSource: newRESTSource(binanceName, src.BaseURL, cfg.Sources.Timeout, src.RateRPS, limiter, lgr),
	}
}

func (b *Binance) Name() string { return binanceName }

func (b *Binance) FetchQuotes(ctx context.Context, symbols []string) ([]models.Observation, error) {
	pairs := make([]string, 0, len(symbols))
	bySymbol := make(map[string]string, len(symbols))
	for _, s := range symbols {
		p := binancePair(s)
		pairs = append(pairs, fmt.Sprintf("%q", p))
		bySymbol[p] = strings.ToUpper(s)
	}

	var resp []struct {
		Symbol      string              `json:"symbol"`
		LastPrice   decimal.NullDecimal `json:"lastPrice"`
		QuoteVolume decimal.NullDecimal `json:"quoteVolume"`
	}
	err := b.getJSON(ctx, "/ticker/24hr", map[string][]string{
		"symbols": {"[" + strings.Join(pairs, ",") + "]"},
	}, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("binance quotes: %w", err)
	}

	now := time.Now().UTC()
	obs := make([]models.Observation, 0, len(resp))
	for _, t := range resp {
		symbol, ok := bySymbol[t.Symbol]
		if !ok || !t.LastPrice.Valid {
			continue
		}
		obs = append(obs, models.Observation{
			Symbol:    symbol,
			Source:    binanceName,
			Price:     t.LastPrice.Decimal,
			Volume:    t.QuoteVolume,
			Timestamp: now,
		})
	}
	return obs, nil
}
