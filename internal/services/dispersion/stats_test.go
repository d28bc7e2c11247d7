package dispersion

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputePriceStats(t *testing.T) {
	stats := ComputePriceStats([]decimal.NullDecimal{nd("2"), nd("4"), null()})

	if stats.Count != 2 {
		t.Fatalf("count = %d, want 2", stats.Count)
	}
	if !stats.Max.Decimal.Equal(decimal.NewFromInt(4)) || !stats.Min.Decimal.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("max/min = %s/%s, want 4/2", stats.Max.Decimal, stats.Min.Decimal)
	}
	if !stats.Avg.Decimal.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("avg = %s, want 3", stats.Avg.Decimal)
	}
	// sample stddev of {2,4} = sqrt(2)
	if !stats.StdDev.Valid || !stats.StdDev.Decimal.Equal(decimal.RequireFromString("1.4142")) {
		t.Fatalf("stddev = %v, want 1.4142", stats.StdDev)
	}
}

func TestComputePriceStatsSingleValue(t *testing.T) {
	stats := ComputePriceStats([]decimal.NullDecimal{nd("7")})

	if stats.Count != 1 {
		t.Fatalf("count = %d, want 1", stats.Count)
	}
	if stats.StdDev.Valid {
		t.Fatalf("stddev = %s, want null for a single price", stats.StdDev.Decimal)
	}
	if !stats.Avg.Valid || !stats.Avg.Decimal.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("avg = %v, want 7", stats.Avg)
	}
}

func TestComputePriceStatsEmpty(t *testing.T) {
	stats := ComputePriceStats(nil)
	if stats.Count != 0 || stats.Max.Valid || stats.Min.Valid || stats.Avg.Valid || stats.StdDev.Valid {
		t.Fatalf("expected all-null stats for empty input, got %+v", stats)
	}
}

func TestConfidenceScoreBrackets(t *testing.T) {
	c := testCalculator(t)

	cases := []struct {
		sources  int
		mentions *int
		want     int64
	}{
		{5, nil, 60},
		{4, nil, 50},
		{3, nil, 40},
		{2, nil, 30},
		{1, nil, 20},
		{0, nil, 20},
		{5, intPtr(51), 100},
		{3, intPtr(21), 70},
		{2, intPtr(11), 50},
		{2, intPtr(5), 40},
		{2, intPtr(0), 40},
	}
	for _, tc := range cases {
		got := c.ConfidenceScore(tc.sources, tc.mentions)
		if !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Fatalf("sources=%d mentions=%v: score = %s, want %d", tc.sources, tc.mentions, got, tc.want)
		}
	}
}
