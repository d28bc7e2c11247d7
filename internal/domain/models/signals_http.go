package models

// Requests for the signal query HTTP endpoints. Defined in domain for consistency and reuse.

type SignalsRequest struct {
	Symbol string `query:"symbol" json:"symbol"`
	Level  string `query:"level" json:"level" validate:"omitempty,oneof=low medium high"`
	Type   string `query:"type" json:"type" validate:"omitempty,oneof=convergence divergence neutral high_volatility low_volatility"`
	Date   string `query:"date" json:"date"`
	Limit  int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
}

type SummaryRequest struct {
	Date string `query:"date" json:"date" default:"today"`
}

type RankingRequest struct {
	Date string `query:"date" json:"date" default:"today"`
	N    int    `query:"n" json:"n" default:"5" validate:"gte=1,lte=50"`
}
