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

const coincapName = "coincap"

// CoinCap quotes coins off the assets endpoint, batched by id.
type CoinCap struct {
	restSource
}

func NewCoinCap(cfg *config.Config, limiter *ratelimit.Limiter, lgr *logger.Logger) *CoinCap {
	src := cfg.Sources.CoinCap
	return &CoinCap{
		restSource: newRESTSource(coincapName, src.BaseURL, cfg.Sources.Timeout, src.RateRPS, limiter, lgr),
	}
}

func (c *CoinCap) Name() string { return coincapName }

func (c *CoinCap) FetchQuotes(ctx context.Context, symbols []string) ([]models.Observation, error) {
	ids := make([]string, 0, len(symbols))
	for _, s := range symbols {
		ids = append(ids, coincapID(s))
	}

	var resp struct {
		Data []struct {
			Symbol       string              `json:"symbol"`
			PriceUsd     decimal.NullDecimal `json:"priceUsd"`
			VolumeUsd24h decimal.NullDecimal `json:"volumeUsd24Hr"`
		} `json:"data"`
	}
	err := c.getJSON(ctx, "/assets", map[string][]string{
		"ids": {strings.Join(ids, ",")},
	}, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("coincap quotes: %w", err)
	}

	now := time.Now().UTC()
	obs := make([]models.Observation, 0, len(resp.Data))
	for _, a := range resp.Data {
		if a.Symbol == "" || !a.PriceUsd.Valid {
			continue
		}
		obs = append(obs, models.Observation{
			Symbol:    strings.ToUpper(a.Symbol),
			Source:    coincapName,
			Price:     a.PriceUsd.Decimal,
			Volume:    a.VolumeUsd24h,
			Timestamp: now,
		})
	}
	return obs, nil
}
