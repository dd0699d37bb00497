package forecast

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/errs"
	"StockCast/internal/domain/models"
	domsvc "StockCast/internal/domain/service"
)

// RemoteModel delegates training and prediction to an external model service.
//
//	POST /model/train   {closes, dates, epochs}  -> {epochs, loss, duration_ms}
//	POST /model/predict {closes, dates, horizon} -> {prices: [...]}
type RemoteModel struct {
	base *HTTPServiceBase
}

func NewRemoteModel(base *HTTPServiceBase) *RemoteModel {
	return &RemoteModel{base: base}
}

func (f *RemoteModel) Name() string { return ModelRemote }

type trainReq struct {
	Closes []float64 `json:"closes"`
	Dates  []string  `json:"dates"`
	Epochs int       `json:"epochs"`
}

type trainResp struct {
	Epochs     int     `json:"epochs"`
	Loss       float64 `json:"loss"`
	DurationMs int64   `json:"duration_ms"`
}

type predictReq struct {
	Closes  []float64 `json:"closes"`
	Dates   []string  `json:"dates"`
	Horizon int       `json:"horizon"`
}

type predictResp struct {
	Prices []float64 `json:"prices"`
}

func (f *RemoteModel) Train(ctx context.Context, series models.Series, epochs int) (models.TrainingSummary, error) {
	if epochs <= 0 {
		return models.TrainingSummary{}, errs.Validation("remote.train", "epochs", "epochs must be positive")
	}
	if len(series) == 0 {
		return models.TrainingSummary{}, errs.EmptyInput("remote.train")
	}
	var tr trainResp
	if err := f.base.PostJSON(ctx, "/model/train", trainReq{Closes: series.Closes(), Dates: series.Dates(), Epochs: epochs}, &tr); err != nil {
		return models.TrainingSummary{}, fmt.Errorf("remote train: %w", err)
	}
	if tr.Loss < 0 {
		return models.TrainingSummary{}, fmt.Errorf("remote train: negative loss %v", tr.Loss)
	}
	if tr.Epochs == 0 {
		tr.Epochs = epochs
	}
	return models.TrainingSummary{
		Epochs:       tr.Epochs,
		DurationHint: time.Duration(tr.DurationMs) * time.Millisecond,
		FinalLoss:    tr.Loss,
	}, nil
}

func (f *RemoteModel) Predict(ctx context.Context, series models.Series, horizonDays int) ([]float64, error) {
	if horizonDays <= 0 {
		return nil, errs.Validation("remote.predict", "horizonDays", "horizon must be positive")
	}
	if len(series) == 0 {
		return nil, errs.EmptyInput("remote.predict")
	}
	var pr predictResp
	if err := f.base.PostJSON(ctx, "/model/predict", predictReq{Closes: series.Closes(), Dates: series.Dates(), Horizon: horizonDays}, &pr); err != nil {
		return nil, fmt.Errorf("remote predict: %w", err)
	}
	if len(pr.Prices) != horizonDays {
		return nil, fmt.Errorf("remote predict: expected %d prices, got %d", horizonDays, len(pr.Prices))
	}
	return pr.Prices, nil
}

func (f *RemoteModel) Evaluate(ctx context.Context, test models.Series) (models.Metrics, error) {
	return backtest(ctx, test, f.Predict)
}

var _ domsvc.Forecaster = (*RemoteModel)(nil)
