package api

import (
	"time"

	models "RateCast/internal/domain/models"
	"RateCast/internal/usecase"
	xhttp "RateCast/pkg/http"
	xlogger "RateCast/pkg/logger"
	xutil "RateCast/pkg/util"

	"github.com/labstack/echo/v4"
)

// errorResponse maps domain error kinds onto HTTP statuses.
func errorResponse(c echo.Context, err error) error {
	return xhttp.ErrorResponse(c, statusForError(err), err.Error())
}

// ForecastEchoHandler implements the Echo-based HTTP surface.
type ForecastEchoHandler struct {
	logger *xlogger.Logger
	orch   *usecase.ForecastOrchestrator
	diag   *usecase.DiagnosticsUseCase
	hist   *usecase.HistoryUseCase
}

func NewForecastEchoHandler(logger *xlogger.Logger, orch *usecase.ForecastOrchestrator, diag *usecase.DiagnosticsUseCase, hist *usecase.HistoryUseCase) *ForecastEchoHandler {
	return &ForecastEchoHandler{logger: logger, orch: orch, diag: diag, hist: hist}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/predict", h.Predict)
	g.GET("/evaluate", h.Evaluate)
	g.GET("/history", h.History)
	g.GET("/diagnostics", h.Diagnostics)
	g.POST("/refit", h.Refit)
	g.POST("/snapshot", h.Snapshot)
	g.POST("/restore", h.Restore)
}

func (h *ForecastEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.orch.Predict(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("predict usecase error", xlogger.Error(err))
		return errorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Evaluate(c echo.Context) error {
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.orch.Evaluate(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("evaluate usecase error", xlogger.Error(err))
		return errorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	now := time.Now().UTC()
	p := usecase.GetHistoryParams{
		Series: req.Series,
		From:   xutil.ParseTimeDefault(req.From, now.AddDate(-15, 0, 0)),
		To:     xutil.ParseTimeDefault(req.To, now),
		Limit:  req.Limit,
	}

	res, err := h.hist.GetHistory(c.Request().Context(), p)
	if err != nil {
		h.logger.Error("history usecase error", xlogger.Error(err))
		return errorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Diagnostics(c echo.Context) error {
	req := &models.DiagnosticsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.diag.Get(c.Request().Context(), usecase.DiagnosticsParams{WindowMonths: req.WindowMonths})
	if err != nil {
		h.logger.Error("diagnostics usecase error", xlogger.Error(err))
		return errorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Refit(c echo.Context) error {
	if err := h.orch.Refit(c.Request().Context()); err != nil {
		h.logger.Error("refit usecase error", xlogger.Error(err))
		return errorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]bool{"fitted": h.orch.Fitted()})
}

func (h *ForecastEchoHandler) Snapshot(c echo.Context) error {
	req := &models.SnapshotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.orch.Snapshot(c.Request().Context(), req.Name); err != nil {
		h.logger.Error("snapshot usecase error", xlogger.Error(err))
		return errorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"name": req.Name})
}

func (h *ForecastEchoHandler) Restore(c echo.Context) error {
	req := &models.SnapshotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.orch.Restore(c.Request().Context(), req.Name); err != nil {
		h.logger.Error("restore usecase error", xlogger.Error(err))
		return errorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"name": req.Name})
}
