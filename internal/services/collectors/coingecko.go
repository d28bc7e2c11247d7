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

const coingeckoName = "coingecko"

// CoinGecko serves both coin quotes (simple/price) and market-wide
// dominance metrics (global).
type CoinGecko struct {
	restSource
	apiKey string
}

func NewCoinGecko(cfg *config.Config, limiter *ratelimit.Limiter, lgr *logger.Logger) *CoinGecko {
	src := cfg.Sources.CoinGecko
	return &CoinGecko{
		restSource: newRESTSource(coingeckoName, src.BaseURL, cfg.Sources.Timeout, src.RateRPS, limiter, lgr),
		apiKey:     src.APIKey,
	}
}

func (c *CoinGecko) Name() string { return coingeckoName }

func (c *CoinGecko) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"x-cg-demo-api-key": c.apiKey}
}

// FetchQuotes pulls USD price and 24h volume for all symbols in one call.
func (c *CoinGecko) FetchQuotes(ctx context.Context, symbols []string) ([]models.Observation, error) {
	ids := make([]string, 0, len(symbols))
	bySlug := make(map[string]string, len(symbols))
	for _, s := range symbols {
		id := coingeckoID(s)
		ids = append(ids, id)
		bySlug[id] = strings.ToUpper(s)
	}

	var resp map[string]struct {
		USD    decimal.NullDecimal `json:"usd"`
		USDVol decimal.NullDecimal `json:"usd_24h_vol"`
	}
	err := c.getJSON(ctx, "/simple/price", map[string][]string{
		"ids":             {strings.Join(ids, ",")},
		"vs_currencies":   {"usd"},
		"include_24hr_vol": {"true"},
	}, c.headers(), &resp)
	if err != nil {
		return nil, fmt.Errorf("coingecko quotes: %w", err)
	}

	now := time.Now().UTC()
	obs := make([]models.Observation, 0, len(resp))
	for slug, q := range resp {
		symbol, ok := bySlug[slug]
		if !ok || !q.USD.Valid {
			continue
		}
		obs = append(obs, models.Observation{
			Symbol:    symbol,
			Source:    coingeckoName,
			Price:     q.USD.Decimal,
			Volume:    q.USDVol,
			Timestamp: now,
		})
	}
	return obs, nil
}

// FetchGlobal pulls dominance percentages and aggregate caps.
func (c *CoinGecko) FetchGlobal(ctx context.Context) (models.GlobalMetrics, error) {
	var resp struct {
		Data struct {
			MarketCapPct map[string]decimal.NullDecimal `json:"market_cap_percentage"`
			TotalCap     map[string]decimal.NullDecimal `json:"total_market_cap"`
			TotalVolume  map[string]decimal.NullDecimal `json:"total_volume"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "/global", nil, c.headers(), &resp); err != nil {
		return models.GlobalMetrics{}, fmt.Errorf("coingecko global: %w", err)
	}

	return models.GlobalMetrics{
		Timestamp:      time.Now().UTC(),
		BTCDominance:   resp.Data.MarketCapPct["btc"],
		ETHDominance:   resp.Data.MarketCapPct["eth"],
		TotalMarketCap: resp.Data.TotalCap["usd"],
		TotalVolume24h: resp.Data.TotalVolume["usd"],
		Source:         coingeckoName,
	}, nil
}
