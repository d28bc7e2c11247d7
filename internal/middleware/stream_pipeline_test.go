package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"DispersionSignal/internal/domain/models"

	"github.com/shopspring/decimal"
)

type fakeProc struct {
	mu    sync.Mutex
	got   []*models.Observation
	fail  bool
	calls int
}

func (p *fakeProc) Process(ctx context.Context, o *models.Observation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fail {
		return errors.New("downstream unavailable")
	}
	p.got = append(p.got, o)
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(string, string) {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordLastPrice(string, float64)  {}
func (nopMetrics) RecordLatency(string, float64)    {}

func obs(symbol string) *models.Observation {
	return &models.Observation{
		Symbol:    symbol,
		Source:    "binance_ws",
		Price:     decimal.NewFromInt(100),
		Timestamp: time.Now(),
	}
}

func TestPipelineForwardsValidObservation(t *testing.T) {
	proc := &fakeProc{}
	p := NewStreamPipeline(proc, nopMetrics{})

	if err := p.Process(context.Background(), obs("BTC")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proc.got) != 1 || proc.got[0].Symbol != "BTC" {
		t.Fatalf("observation not forwarded: %+v", proc.got)
	}
}

func TestPipelineRejectsInvalid(t *testing.T) {
	proc := &fakeProc{}
	p := NewStreamPipeline(proc, nopMetrics{})

	cases := []*models.Observation{
		nil,
		{Source: "binance_ws", Price: decimal.NewFromInt(1), Timestamp: time.Now()},
		{Symbol: "BTC", Price: decimal.NewFromInt(1), Timestamp: time.Now()},
		{Symbol: "BTC", Source: "binance_ws", Price: decimal.NewFromInt(1)},
		{Symbol: "BTC", Source: "binance_ws", Price: decimal.NewFromInt(-1), Timestamp: time.Now()},
	}
	for i, o := range cases {
		if err := p.Process(context.Background(), o); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if len(proc.got) != 0 {
		t.Fatalf("invalid observations forwarded: %d", len(proc.got))
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &fakeProc{}
	p := NewStreamPipeline(proc, nopMetrics{}, WithMaxRPS(1))

	if err := p.Process(context.Background(), obs("BTC")); err != nil {
		t.Fatalf("first observation: %v", err)
	}
	// immediate second observation for the same symbol is dropped silently
	if err := p.Process(context.Background(), obs("BTC")); err != nil {
		t.Fatalf("throttled observation should not error: %v", err)
	}
	if len(proc.got) != 1 {
		t.Fatalf("expected 1 forwarded, got %d", len(proc.got))
	}
	// a different symbol is unaffected
	if err := p.Process(context.Background(), obs("ETH")); err != nil {
		t.Fatalf("other symbol: %v", err)
	}
	if len(proc.got) != 2 {
		t.Fatalf("expected 2 forwarded, got %d", len(proc.got))
	}
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &fakeProc{fail: true}
	p := NewStreamPipeline(proc, nopMetrics{}, WithBufferSize(4))

	if err := p.Process(context.Background(), obs("BTC")); err == nil {
		t.Fatalf("expected downstream error")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("observation not buffered, depth=%d", len(p.bufCh))
	}
}
