package cache

import (
	"context"
	"testing"
	"time"
)

type cachedRow struct {
	Symbol string
	Level  int
}

func TestMemoryCacheGetTyped(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	rows := []cachedRow{{Symbol: "BTC", Level: 4}, {Symbol: "ETH", Level: 2}}
	if err := mc.Set(ctx, "rows", rows, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got []cachedRow
	if err := mc.Get(ctx, "rows", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 || got[0].Symbol != "BTC" || got[1].Level != 2 {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestMemoryCacheGetDereferencesPointerValues(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	row := &cachedRow{Symbol: "SOL", Level: 3}
	if err := mc.Set(ctx, "row", row, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got cachedRow
	if err := mc.Get(ctx, "row", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Symbol != "SOL" || got.Level != 3 {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var got string
	if err := mc.Get(context.Background(), "absent", &got); err != ErrCacheMiss {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	var got string
	if err := mc.Get(ctx, "k", &got); err != ErrCacheMiss {
		t.Fatalf("expected expiry miss, got %v", err)
	}
}
