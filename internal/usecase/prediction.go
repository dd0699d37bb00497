package usecase

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"StockCast/internal/domain/errs"
	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	domsvc "StockCast/internal/domain/service"
	"StockCast/internal/services/calendar"
	applogger "StockCast/pkg/logger"
	pkgmetrics "StockCast/pkg/metrics"
	"StockCast/pkg/util"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultEpochs        = 20
	DefaultSourceTimeout = 15 * time.Second
)

// PredictionUseCase runs the fetch, train, predict, date and evaluate pipeline
// for one request. It holds no per-request state.
type PredictionUseCase struct {
	source        domrepo.SeriesSource
	newForecaster domsvc.ForecasterFactory
	metrics       domrepo.Metrics
	l             *applogger.Logger
	validate      *validator.Validate

	epochs        int
	sourceTimeout time.Duration
	maxHorizon    int
}

// PredictionOption configures PredictionUseCase.
type PredictionOption func(*PredictionUseCase)

func WithEpochs(n int) PredictionOption {
	return func(uc *PredictionUseCase) {
		if n > 0 {
			uc.epochs = n
		}
	}
}

func WithSourceTimeout(d time.Duration) PredictionOption {
	return func(uc *PredictionUseCase) {
		if d > 0 {
			uc.sourceTimeout = d
		}
	}
}

// WithMaxHorizon lowers the horizon cap below models.MaxHorizonDays.
func WithMaxHorizon(n int) PredictionOption {
	return func(uc *PredictionUseCase) {
		if n > 0 && n <= models.MaxHorizonDays {
			uc.maxHorizon = n
		}
	}
}

func NewPredictionUseCase(src domrepo.SeriesSource, factory domsvc.ForecasterFactory, m domrepo.Metrics, l *applogger.Logger, opts ...PredictionOption) *PredictionUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	if m == nil {
		m = pkgmetrics.Nop{}
	}
	uc := &PredictionUseCase{
		source:        src,
		newForecaster: factory,
		metrics:       m,
		l:             l,
		validate:      newValidator(),
		epochs:        DefaultEpochs,
		sourceTimeout: DefaultSourceTimeout,
		maxHorizon:    models.MaxHorizonDays,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Run executes the pipeline. It returns either a complete result or an
// *errs.Error; no partial results.
func (uc *PredictionUseCase) Run(ctx context.Context, req models.ForecastRequest) (*models.ForecastResult, error) {
	began := time.Now()
	res, err := uc.run(ctx, req)
	uc.metrics.RecordLatency("run", time.Since(began).Seconds())
	if err != nil {
		uc.fail("prediction failed", req.Ticker, err)
		return nil, err
	}

	uc.metrics.RecordPrediction(res.Model, res.Ticker)
	if n := len(res.Predicted); n > 0 {
		uc.metrics.RecordLastPrediction(res.Ticker, res.Predicted[n-1].Price)
	}
	uc.l.Info("prediction completed",
		applogger.String("ticker", res.Ticker),
		applogger.String("model", res.Model),
		applogger.Int("historical", len(res.Historical)),
		applogger.Int("horizon", len(res.Predicted)),
		applogger.Float64("rmse", res.Metrics.RMSE),
		applogger.Duration("duration_ms", time.Since(began)),
	)
	return res, nil
}

func (uc *PredictionUseCase) run(ctx context.Context, req models.ForecastRequest) (*models.ForecastResult, error) {
	const op = "prediction.run"

	req.Ticker = util.NormalizeTicker(req.Ticker)
	if err := uc.validateRequest(op, req); err != nil {
		return nil, err
	}

	series, err := uc.fetch(ctx, op, req.Ticker, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	forecaster := uc.newForecaster()
	stage := time.Now()
	training, err := forecaster.Train(ctx, series, uc.epochs)
	if err != nil {
		return nil, errs.Forecast(op, fmt.Errorf("train: %w", err))
	}
	prices, err := forecaster.Predict(ctx, series, req.HorizonDays)
	if err != nil {
		return nil, errs.Forecast(op, fmt.Errorf("predict: %w", err))
	}
	if len(prices) != req.HorizonDays {
		return nil, errs.Forecast(op, fmt.Errorf("predict: got %d prices for horizon %d", len(prices), req.HorizonDays))
	}
	uc.metrics.RecordLatency("forecast", time.Since(stage).Seconds())

	dates := calendar.NextTradingDays(series.Last().Date, req.HorizonDays)
	predicted := make([]models.PredictedPoint, len(prices))
	for i := range prices {
		predicted[i] = models.PredictedPoint{Date: dates[i], Price: prices[i]}
	}

	stage = time.Now()
	metrics, err := forecaster.Evaluate(ctx, series)
	if err != nil {
		return nil, errs.Forecast(op, fmt.Errorf("evaluate: %w", err))
	}
	uc.metrics.RecordLatency("evaluate", time.Since(stage).Seconds())

	return &models.ForecastResult{
		Ticker:     req.Ticker,
		Model:      forecaster.Name(),
		Historical: series,
		Predicted:  predicted,
		Metrics:    metrics,
		Training:   training,
	}, nil
}

// History returns the historical series alone, with the same validation and
// no-data rules as Run.
func (uc *PredictionUseCase) History(ctx context.Context, ticker string, start, end time.Time) (models.Series, error) {
	const op = "prediction.history"

	ticker = util.NormalizeTicker(ticker)
	req := models.ForecastRequest{Ticker: ticker, StartDate: start, EndDate: end, HorizonDays: 1}
	if err := uc.validateRequest(op, req); err != nil {
		uc.fail("history failed", ticker, err)
		return nil, err
	}
	series, err := uc.fetch(ctx, op, ticker, start, end)
	if err != nil {
		uc.fail("history failed", ticker, err)
		return nil, err
	}
	return series, nil
}

func (uc *PredictionUseCase) validateRequest(op string, req models.ForecastRequest) error {
	if err := uc.validate.Struct(req); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return errs.Validation(op, fe.Field(), fieldMessage(fe))
		}
		return errs.Validation(op, "", err.Error())
	}
	if req.StartDate.IsZero() {
		return errs.Validation(op, "startDate", "startDate is required")
	}
	if req.EndDate.IsZero() {
		return errs.Validation(op, "endDate", "endDate is required")
	}
	if req.EndDate.Before(req.StartDate) {
		return errs.Validation(op, "endDate", "endDate must not be before startDate")
	}
	if req.HorizonDays > uc.maxHorizon {
		return errs.Validation(op, "futureDays", fmt.Sprintf("futureDays must be at most %d", uc.maxHorizon))
	}
	return nil
}

func (uc *PredictionUseCase) fetch(ctx context.Context, op, ticker string, start, end time.Time) (models.Series, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.sourceTimeout)
	defer cancel()

	began := time.Now()
	series, err := uc.source.Fetch(ctx, ticker, start, end)
	uc.metrics.RecordLatency("fetch", time.Since(began).Seconds())
	if err != nil {
		return nil, errs.Upstream(op, err)
	}
	if len(series) == 0 {
		return nil, errs.NoData(op, ticker)
	}
	return series, nil
}

func (uc *PredictionUseCase) fail(msg, ticker string, err error) {
	kind := errs.KindOf(err)
	uc.metrics.RecordError(string(kind))
	fields := []applogger.Field{
		applogger.String("ticker", ticker),
		applogger.String("kind", string(kind)),
		applogger.String("source", uc.source.Name()),
		applogger.Error(err),
	}
	switch kind {
	case errs.KindValidation, errs.KindNotFound:
		uc.l.Info(msg, fields...)
	default:
		uc.l.Error(msg, fields...)
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("field"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
