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

const coinpaprikaName = "coinpaprika"

// CoinPaprika quotes coins one ticker at a time; its ticker endpoint
// has no batch form.
type CoinPaprika struct {
	restSource
}

func NewCoinPaprika(cfg *config.Config, limiter *ratelimit.Limiter, lgr *logger.Logger) *CoinPaprika {
	src := cfg.Sources.CoinPaprika
	return &CoinPaprika{
		restSource: newRESTSource(coinpaprikaName, src.BaseURL, cfg.Sources.Timeout, src.RateRPS, limiter, lgr),
	}
}

func (c *CoinPaprika) Name() string { return coinpaprikaName }

func (c *CoinPaprika) FetchQuotes(ctx context.Context, symbols []string) ([]models.Observation, error) {
	now := time.Now().UTC()
	obs := make([]models.Observation, 0, len(symbols))

	for _, s := range symbols {
		var resp struct {
			Quotes map[string]struct {
				Price     decimal.NullDecimal `json:"price"`
				Volume24h decimal.NullDecimal `json:"volume_24h"`
			} `json:"quotes"`
		}
		path := fmt.Sprintf("/tickers/%s", coinpaprikaID(s))
		err := c.getJSON(ctx, path, map[string][]string{"quotes": {"USD"}}, nil, &resp)
		if err != nil {
			// one missing ticker must not sink the rest
			c.logger.Warn("coinpaprika ticker failed",
				logger.String("symbol", s),
				logger.Error(err))
			continue
		}

		usd, ok := resp.Quotes["USD"]
		if !ok || !usd.Price.Valid {
			continue
		}
		obs = append(obs, models.Observation{
			Symbol:    strings.ToUpper(s),
			Source:    coinpaprikaName,
			Price:     usd.Price.Decimal,
			Volume:    usd.Volume24h,
			Timestamp: now,
		})
	}
	return obs, nil
}
