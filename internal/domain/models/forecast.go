package models

import "time"

// MaxHorizonDays bounds ForecastRequest.HorizonDays.
const MaxHorizonDays = 30

// ForecastRequest is the validated input of one prediction run. The field tag
// names each member as the request body does.
type ForecastRequest struct {
	Ticker      string    `field:"ticker" validate:"required"`
	StartDate   time.Time `field:"startDate" validate:"required"`
	EndDate     time.Time `field:"endDate" validate:"required"`
	HorizonDays int       `field:"futureDays" validate:"gte=1,lte=30"`
}

// PredictedPoint is one forecast step.
type PredictedPoint struct {
	Date  time.Time
	Price float64
}

// Metrics are error statistics of a forecaster against held-out actuals.
type Metrics struct {
	MAE  float64
	MSE  float64
	RMSE float64
}

// TrainingSummary describes one training pass.
type TrainingSummary struct {
	Epochs       int
	DurationHint time.Duration
	FinalLoss    float64
}

// ForecastResult is the complete output of a run. It is never returned partially.
type ForecastResult struct {
	Ticker     string
	Model      string
	Historical Series
	Predicted  []PredictedPoint
	Metrics    Metrics
	Training   TrainingSummary
}

// PredictedDates returns the forecast dates formatted as YYYY-MM-DD.
func (r *ForecastResult) PredictedDates() []string {
	out := make([]string, len(r.Predicted))
	for i, p := range r.Predicted {
		out[i] = p.Date.Format(DateLayout)
	}
	return out
}

// PredictedPrices returns the forecast prices in order.
func (r *ForecastResult) PredictedPrices() []float64 {
	out := make([]float64, len(r.Predicted))
	for i, p := range r.Predicted {
		out[i] = p.Price
	}
	return out
}
