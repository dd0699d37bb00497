package service

import (
	"context"

	"StockCast/internal/domain/models"
)

// Forecaster is the replaceable model boundary of the prediction pipeline.
// Instances are request-scoped; Train must precede Predict on the same series.
type Forecaster interface {
	Name() string
	Train(ctx context.Context, series models.Series, epochs int) (models.TrainingSummary, error)
	Predict(ctx context.Context, series models.Series, horizonDays int) ([]float64, error)
	Evaluate(ctx context.Context, test models.Series) (models.Metrics, error)
}

// ForecasterFactory builds a fresh Forecaster for one request.
type ForecasterFactory func() Forecaster
