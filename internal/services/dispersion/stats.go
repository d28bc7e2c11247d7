package dispersion

import (
	"errors"

	"github.com/shopspring/decimal"
)

// PriceStats summarizes one coin's multi-source price set.
type PriceStats struct {
	Count  int
	Max    decimal.NullDecimal
	Min    decimal.NullDecimal
	Avg    decimal.NullDecimal
	StdDev decimal.NullDecimal
}

// ComputePriceStats returns per-source price statistics over the valid
// prices. StdDev is the sample standard deviation and requires at least
// two valid prices; Max/Min/Avg require one.
func ComputePriceStats(prices []decimal.NullDecimal) PriceStats {
	valid := make([]decimal.Decimal, 0, len(prices))
	for _, p := range prices {
		if p.Valid {
			valid = append(valid, p.Decimal)
		}
	}

	stats := PriceStats{Count: len(valid)}
	if len(valid) == 0 {
		return stats
	}

	maxP, minP, sum := valid[0], valid[0], decimal.Zero
	for _, p := range valid {
		if p.GreaterThan(maxP) {
			maxP = p
		}
		if p.LessThan(minP) {
			minP = p
		}
		sum = sum.Add(p)
	}
	n := decimal.NewFromInt(int64(len(valid)))
	avg := sum.Div(n)

	stats.Max = decimal.NewNullDecimal(maxP.Round(roundPlaces))
	stats.Min = decimal.NewNullDecimal(minP.Round(roundPlaces))
	stats.Avg = decimal.NewNullDecimal(avg.Round(roundPlaces))

	if len(valid) >= 2 {
		ss := decimal.Zero
		for _, p := range valid {
			d := p.Sub(avg)
			ss = ss.Add(d.Mul(d))
		}
		variance := ss.Div(n.Sub(decimal.NewFromInt(1)))
		sd, err := sqrt(variance)
		if err == nil {
			stats.StdDev = decimal.NewNullDecimal(sd.Round(roundPlaces))
		}
	}

	return stats
}

// sqrt computes the square root via Newton iteration on decimals,
// good far beyond the 4 places the stats are rounded to.
func sqrt(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsNegative() {
		return decimal.Zero, errNegativeSqrt
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}

	guess := d.Div(decimal.NewFromInt(2))
	if guess.IsZero() {
		guess = d
	}
	two := decimal.NewFromInt(2)
	for i := 0; i < 64; i++ {
		next := guess.Add(d.Div(guess)).Div(two)
		if next.Sub(guess).Abs().LessThan(decimal.New(1, -12)) {
			return next, nil
		}
		guess = next
	}
	return guess, nil
}

var errNegativeSqrt = errors.New("sqrt of negative value")
