package api

import (
	"encoding/json"
	"net/http"
	"time"

	icache "DispersionSignal/internal/service/cache"
	"DispersionSignal/internal/service/metrics"
	"DispersionSignal/internal/service/ratelimit"
	"DispersionSignal/internal/usecase"
	applogger "DispersionSignal/pkg/logger"
	"DispersionSignal/pkg/util"
)

// SignalsHandler serves the query endpoints over plain net/http. Used by
// deployments that mount the API on an existing mux instead of Echo.
type SignalsHandler struct {
	query *usecase.QueryUsecase
	cache icache.BytesCache
	rl    *ratelimit.Limiter
	l     *applogger.Logger
}

func NewSignalsHandler(query *usecase.QueryUsecase) *SignalsHandler {
	metrics.Register()
	return &SignalsHandler{query: query, rl: ratelimit.New()}
}

func (h *SignalsHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *SignalsHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *SignalsHandler) Signals() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "signals"
		defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		q := r.URL.Query()
		params := usecase.GetSignalsParams{
			Symbol: q.Get("symbol"),
			Level:  q.Get("level"),
			Type:   q.Get("type"),
			Date:   q.Get("date"),
			Limit:  util.ParseIntDefault(q.Get("limit"), 20),
		}
		if !h.rl.Allow(r.RemoteAddr+":signals", 5, 2) {
			if h.l != nil {
				h.l.Warn("signals rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "signals:" + params.Symbol + ":" + params.Level + ":" + params.Type + ":" + params.Date + ":" + q.Get("limit")
		if h.serveCached(w, endpoint, cacheKey) {
			return
		}
		res, err := h.query.GetSignals(r.Context(), params)
		if err != nil {
			metrics.APIErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("signals error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, endpoint, cacheKey, toSignalResponses(res), 30*time.Second)
	}
}

func (h *SignalsHandler) Summary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "summary"
		defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		date := r.URL.Query().Get("date")
		if !h.rl.Allow(r.RemoteAddr+":summary", 5, 2) {
			if h.l != nil {
				h.l.Warn("summary rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "summary:" + date
		if h.serveCached(w, endpoint, cacheKey) {
			return
		}
		res, err := h.query.GetSummary(r.Context(), date)
		if err != nil {
			metrics.APIErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("summary error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if res == nil {
			http.Error(w, "no summary for date", http.StatusNotFound)
			return
		}
		h.writeJSON(w, endpoint, cacheKey, toSummaryResponse(res), 60*time.Second)
	}
}

func (h *SignalsHandler) serveCached(w http.ResponseWriter, endpoint, key string) bool {
	if h.cache == nil {
		return false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		if h.l != nil {
			h.l.Warn(endpoint+" cache_get_error", applogger.Error(err))
		}
		return false
	}
	if !ok {
		if h.l != nil {
			h.l.Debug(endpoint+" cache_miss", applogger.String("key", key))
		}
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(b); err != nil && h.l != nil {
		h.l.Warn(endpoint+" write_error", applogger.Error(err))
	}
	return true
}

func (h *SignalsHandler) writeJSON(w http.ResponseWriter, endpoint, key string, v interface{}, ttl time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.Marshal(v)
	if err != nil {
		if h.l != nil {
			h.l.Error(endpoint+" marshal_error", applogger.Error(err))
		}
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	if h.cache != nil {
		if err := h.cache.SetBytes(key, b, ttl); err != nil && h.l != nil {
			h.l.Warn(endpoint+" cache_set_error", applogger.Error(err))
		}
	}
	if _, err := w.Write(b); err != nil && h.l != nil {
		h.l.Warn(endpoint+" write_error", applogger.Error(err))
	}
}
