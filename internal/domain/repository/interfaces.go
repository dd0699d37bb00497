package repository

import (
	"context"
	"time"

	"StockCast/internal/domain/models"
)

// SeriesSource supplies a daily series for a ticker over [start, end] inclusive,
// weekends excluded. Implementations return an empty series (not an error) when
// the range holds no trading data.
type SeriesSource interface {
	Fetch(ctx context.Context, ticker string, start, end time.Time) (models.Series, error)
	Name() string
}

// Metrics records pipeline observations.
type Metrics interface {
	RecordPrediction(model, ticker string)
	RecordError(kind string)
	RecordLastPrediction(ticker string, price float64)
	RecordLatency(op string, seconds float64)
	RecordSourceFetch(source, result string)
}
