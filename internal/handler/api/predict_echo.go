package api

import (
	"context"
	"time"

	"StockCast/internal/domain/errs"
	"StockCast/internal/domain/models"
	xhttp "StockCast/pkg/http"
	xlogger "StockCast/pkg/logger"
	"StockCast/pkg/util"

	"github.com/labstack/echo/v4"
)

// Predictor is the use case surface the handlers need.
type Predictor interface {
	Run(ctx context.Context, req models.ForecastRequest) (*models.ForecastResult, error)
	History(ctx context.Context, ticker string, start, end time.Time) (models.Series, error)
}

// PredictEchoHandler serves the prediction endpoints.
type PredictEchoHandler struct {
	logger    *xlogger.Logger
	predictor Predictor
	ws        *streamConfig
}

func NewPredictEchoHandler(logger *xlogger.Logger, p Predictor, opts ...StreamOption) *PredictEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &PredictEchoHandler{logger: logger, predictor: p, ws: newStreamConfig(opts...)}
}

func (h *PredictEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/predict", h.Predict)
	g.GET("/predict/ws", h.PredictStream)
	g.GET("/history", h.History)
}

func (h *PredictEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	freq, err := toForecastRequest(req)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.FromDomain(err))
	}

	res, err := h.predictor.Run(c.Request().Context(), freq)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.FromDomain(err))
	}
	return xhttp.SuccessResponse(c, models.NewPredictResponse(res))
}

func (h *PredictEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.FromDomain(err))
	}

	series, err := h.predictor.History(c.Request().Context(), req.Ticker, start, end)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.FromDomain(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, models.NewHistoryResponse(series))
}

func toForecastRequest(req *models.PredictRequest) (models.ForecastRequest, error) {
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return models.ForecastRequest{}, err
	}
	return models.ForecastRequest{
		Ticker:      req.Ticker,
		StartDate:   start,
		EndDate:     end,
		HorizonDays: req.FutureDays,
	}, nil
}

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	const op = "api.parse"
	start, err := util.ParseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errs.Validation(op, "startDate", "startDate must be formatted as YYYY-MM-DD")
	}
	end, err := util.ParseDate(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, errs.Validation(op, "endDate", "endDate must be formatted as YYYY-MM-DD")
	}
	return start, end, nil
}
