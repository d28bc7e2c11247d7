package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"DispersionSignal/internal/domain/models"
	domrepo "DispersionSignal/internal/domain/repository"
	icache "DispersionSignal/internal/service/cache"
	"DispersionSignal/internal/usecase"
	"DispersionSignal/pkg/http/middleware"
	"DispersionSignal/pkg/logger"

	"github.com/shopspring/decimal"
)

type stubStore struct {
	signals    []models.DispersionSignal
	queryCalls int
}

func (s *stubStore) UpsertSignals(context.Context, []models.DispersionSignal) error { return nil }

func (s *stubStore) UpsertEnhancedSignals(context.Context, []models.EnhancedSignal) error {
	return nil
}

func (s *stubStore) QuerySignals(context.Context, domrepo.SignalFilter) ([]models.DispersionSignal, error) {
	s.queryCalls++
	return s.signals, nil
}

func (s *stubStore) SignalsForDate(context.Context, time.Time) ([]models.DispersionSignal, error) {
	return s.signals, nil
}

func (s *stubStore) UpsertDailySummary(context.Context, models.DailySummary) error { return nil }

func (s *stubStore) GetDailySummary(context.Context, time.Time) (*models.DailySummary, error) {
	return nil, nil
}

func (s *stubStore) InsertGlobalMetrics(context.Context, models.GlobalMetrics) error { return nil }

func (s *stubStore) DominanceHistory(context.Context, int) ([]models.GlobalMetrics, error) {
	return nil, nil
}

func (s *stubStore) DominanceAveragesForDate(context.Context, time.Time) (*float64, *float64, error) {
	return nil, nil, nil
}

func (s *stubStore) Health(context.Context) error { return nil }

func newHandler(t *testing.T, store *stubStore) *SignalsHandler {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	query := usecase.NewQueryUsecase(store, nil, lgr, time.Second)
	h := NewSignalsHandler(query)
	h.SetLogger(lgr)
	h.SetCache(icache.NewTTLCache())
	return h
}

func TestSignalsHandlerServesAndCaches(t *testing.T) {
	level := 3
	store := &stubStore{signals: []models.DispersionSignal{{
		Symbol:          "BTC",
		Timestamp:       time.Now().UTC(),
		PriceDispersion: decimal.NewNullDecimal(decimal.RequireFromString("2.5")),
		PriceSources:    3,
		SignalLevel:     &level,
		SignalType:      models.SignalNeutral,
	}}}
	h := newHandler(t, store)
	handler := middleware.Metrics(nil, 0)(h.Signals())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/signals?symbol=BTC", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "BTC") {
			t.Fatalf("request %d: body missing symbol: %s", i, rec.Body.String())
		}
	}
	if store.queryCalls != 1 {
		t.Fatalf("second request should hit the cache, store hit %d times", store.queryCalls)
	}
}

func TestSignalsHandlerRateLimits(t *testing.T) {
	h := newHandler(t, &stubStore{})
	handler := h.Signals()

	limited := false
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/signals?symbol=BTC&limit="+strconv.Itoa(i+1), nil)
		req.RemoteAddr = "10.0.0.2:4000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatalf("burst of 10 requests was never rate limited")
	}
}

func TestSignalsHandlerSummaryNotFound(t *testing.T) {
	h := newHandler(t, &stubStore{})
	req := httptest.NewRequest(http.MethodGet, "/api/summary?date=2025-03-09", nil)
	req.RemoteAddr = "10.0.0.3:4000"
	rec := httptest.NewRecorder()
	h.Summary().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
