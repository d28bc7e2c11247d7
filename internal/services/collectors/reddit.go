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

const redditName = "reddit"

// Reddit measures community activity per coin by searching the
// configured subreddits. Posts are bucketed by karma: above +10 counts
// positive, below -5 negative, the rest neutral. The sentiment score is
// (positive-negative ratio) * 100, rounded to 2 places.
type Reddit struct {
	restSource
	userAgent  string
	subreddits []string
}

func NewReddit(cfg *config.Config, limiter *ratelimit.Limiter, lgr *logger.Logger) *Reddit {
	src := cfg.Sources.Reddit
	return &Reddit{
		restSource: newRESTSource(redditName, src.BaseURL, cfg.Sources.Timeout, src.RateRPS, limiter, lgr),
		userAgent:  src.UserAgent,
		subreddits: src.Subreddits,
	}
}

func (r *Reddit) Name() string { return redditName }

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title string `json:"title"`
				Score int    `json:"score"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (r *Reddit) FetchSentiment(ctx context.Context, symbols []string) ([]models.Sentiment, error) {
	now := time.Now().UTC()
	out := make([]models.Sentiment, 0, len(symbols))

	for _, symbol := range symbols {
		total, positive, negative := 0, 0, 0

		for _, sub := range r.subreddits {
			var listing redditListing
			path := fmt.Sprintf("/r/%s/search.json", sub)
			err := r.getJSON(ctx, path, map[string][]string{
				"q":           {symbol},
				"restrict_sr": {"true"},
				"t":           {"day"},
				"limit":       {"100"},
			}, map[string]string{"User-Agent": r.userAgent}, &listing)
			if err != nil {
				r.logger.Warn("reddit search failed",
					logger.String("subreddit", sub),
					logger.String("symbol", symbol),
					logger.Error(err))
				continue
			}

			for _, child := range listing.Data.Children {
				total++
				switch {
				case child.Data.Score > 10:
					positive++
				case child.Data.Score < -5:
					negative++
				}
			}
		}

		out = append(out, models.Sentiment{
			Symbol:       strings.ToUpper(symbol),
			Score:        sentimentScore(total, positive, negative),
			MentionCount: total,
			Source:       redditName,
			Timestamp:    now,
		})
	}
	return out, nil
}

func sentimentScore(total, positive, negative int) decimal.NullDecimal {
	if total == 0 {
		return decimal.NullDecimal{}
	}
	n := decimal.NewFromInt(int64(total))
	posRatio := decimal.NewFromInt(int64(positive)).Div(n)
	negRatio := decimal.NewFromInt(int64(negative)).Div(n)
	score := posRatio.Sub(negRatio).Mul(decimal.NewFromInt(100)).Round(2)
	return decimal.NewNullDecimal(score)
}
