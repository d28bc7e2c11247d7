package service

import (
	"context"

	"DispersionSignal/internal/domain/models"
)

// QuoteSource fetches price/volume observations for a set of coins from one venue.
type QuoteSource interface {
	Name() string
	FetchQuotes(ctx context.Context, symbols []string) ([]models.Observation, error)
}

// GlobalSource fetches market-wide dominance and cap metrics.
type GlobalSource interface {
	Name() string
	FetchGlobal(ctx context.Context) (models.GlobalMetrics, error)
}

// SentimentSource fetches community-activity readings for a set of coins.
type SentimentSource interface {
	Name() string
	FetchSentiment(ctx context.Context, symbols []string) ([]models.Sentiment, error)
}
