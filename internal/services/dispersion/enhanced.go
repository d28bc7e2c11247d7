package dispersion

import (
	"DispersionSignal/internal/domain/models"

	"github.com/shopspring/decimal"
)

// ConfidenceScore rates how trustworthy a signal is on a 0-100 scale.
// Source coverage contributes up to 60 points, community mention volume
// up to 40. Coins without sentiment data only earn the coverage part.
func (c *Calculator) ConfidenceScore(priceSources int, mentionCount *int) decimal.Decimal {
	score := decimal.Zero

	switch {
	case priceSources >= 5:
		score = score.Add(decimal.NewFromInt(60))
	case priceSources >= 4:
		score = score.Add(decimal.NewFromInt(50))
	case priceSources >= 3:
		score = score.Add(decimal.NewFromInt(40))
	case priceSources >= 2:
		score = score.Add(decimal.NewFromInt(30))
	default:
		score = score.Add(decimal.NewFromInt(20))
	}

	if mentionCount != nil {
		switch {
		case *mentionCount > 50:
			score = score.Add(decimal.NewFromInt(40))
		case *mentionCount > 20:
			score = score.Add(decimal.NewFromInt(30))
		case *mentionCount > 10:
			score = score.Add(decimal.NewFromInt(20))
		default:
			score = score.Add(decimal.NewFromInt(10))
		}
	}

	return score
}

// Enhance wraps a signal with sentiment data and its confidence score.
// Dispersion is carried through unbounded; outlier readings are kept so
// downstream consumers can weigh them against the confidence score.
func (c *Calculator) Enhance(s models.DispersionSignal, sentiment *models.Sentiment) models.EnhancedSignal {
	e := models.EnhancedSignal{DispersionSignal: s}

	if sentiment != nil {
		e.SentimentScore = sentiment.Score
		mc := sentiment.MentionCount
		e.MentionCount = &mc
	}
	e.ConfidenceScore = c.ConfidenceScore(s.PriceSources, e.MentionCount)

	return e
}
