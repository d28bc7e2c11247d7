package api

import (
	"net/http"

	models "DispersionSignal/internal/domain/models"
	"DispersionSignal/internal/usecase"
	xhttp "DispersionSignal/pkg/http"
	xlogger "DispersionSignal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalsEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type SignalsEchoHandler struct {
	logger *xlogger.Logger
	query  *usecase.QueryUsecase
}

func NewSignalsEchoHandler(logger *xlogger.Logger, query *usecase.QueryUsecase) *SignalsEchoHandler {
	return &SignalsEchoHandler{logger: logger, query: query}
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signals", h.Signals)
	g.GET("/summary", h.Summary)
	g.GET("/rankings", h.Rankings)
	g.GET("/health", h.Health)
}

func (h *SignalsEchoHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	signals, err := h.query.GetSignals(c.Request().Context(), usecase.GetSignalsParams{
		Symbol: req.Symbol,
		Level:  req.Level,
		Type:   req.Type,
		Date:   req.Date,
		Limit:  req.Limit,
	})
	if err != nil {
		h.logger.Error("signals usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, toSignalResponses(signals))
}

func (h *SignalsEchoHandler) Summary(c echo.Context) error {
	req := &models.SummaryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	summary, err := h.query.GetSummary(c.Request().Context(), req.Date)
	if err != nil {
		h.logger.Error("summary usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if summary == nil {
		return xhttp.NotFoundResponse(c, "no summary for date")
	}
	return xhttp.SuccessResponse(c, toSummaryResponse(summary))
}

func (h *SignalsEchoHandler) Rankings(c echo.Context) error {
	req := &models.RankingRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.query.GetRankings(c.Request().Context(), req.Date, req.N)
	if err != nil {
		h.logger.Error("rankings usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if res == nil {
		return xhttp.NotFoundResponse(c, "no summary for date")
	}
	return xhttp.SuccessResponse(c, rankingsResponse{
		Date:               res.Date.Format("2006-01-02"),
		TopDispersionCoins: res.TopDispersionCoins,
		LowDispersionCoins: res.LowDispersionCoins,
	})
}

func (h *SignalsEchoHandler) Health(c echo.Context) error {
	if err := h.query.Health(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, "storage unreachable")
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
