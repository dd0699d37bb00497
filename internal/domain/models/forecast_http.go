package models

// Wire shapes of the prediction endpoints. Shared by the HTTP handler and the client.

type PredictRequest struct {
	Ticker     string `json:"ticker" validate:"required"`
	StartDate  string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"endDate" validate:"required,datetime=2006-01-02"`
	FutureDays int    `json:"futureDays" validate:"required,gte=1,lte=30"`
}

type HistoryRequest struct {
	Ticker    string `query:"ticker" json:"ticker" validate:"required"`
	StartDate string `query:"startDate" json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `query:"endDate" json:"endDate" validate:"required,datetime=2006-01-02"`
}

type SeriesPayload struct {
	Dates  []string  `json:"dates"`
	Prices []float64 `json:"prices"`
}

type MetricsPayload struct {
	MAE  float64 `json:"mae"`
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
}

type PredictResponse struct {
	HistoricalData SeriesPayload   `json:"historicalData"`
	Predictions    *SeriesPayload  `json:"predictions,omitempty"`
	Metrics        *MetricsPayload `json:"metrics,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// StreamEvent is one message of the websocket prediction stream.
type StreamEvent struct {
	State  string           `json:"state"`
	Result *PredictResponse `json:"result,omitempty"`
	Error  *ErrorResponse   `json:"error,omitempty"`
}

// NewPredictResponse converts a ForecastResult to its wire shape.
func NewPredictResponse(r *ForecastResult) *PredictResponse {
	return &PredictResponse{
		HistoricalData: SeriesPayload{Dates: r.Historical.Dates(), Prices: r.Historical.Closes()},
		Predictions:    &SeriesPayload{Dates: r.PredictedDates(), Prices: r.PredictedPrices()},
		Metrics:        &MetricsPayload{MAE: r.Metrics.MAE, MSE: r.Metrics.MSE, RMSE: r.Metrics.RMSE},
	}
}

// NewHistoryResponse builds a historical-only response.
func NewHistoryResponse(s Series) *PredictResponse {
	return &PredictResponse{
		HistoricalData: SeriesPayload{Dates: s.Dates(), Prices: s.Closes()},
	}
}
