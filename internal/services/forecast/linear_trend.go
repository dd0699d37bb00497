package forecast

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"StockCast/internal/domain/errs"
	"StockCast/internal/domain/models"
	domsvc "StockCast/internal/domain/service"
	"StockCast/internal/services/normalize"
)

// LinearTrend extrapolates an OLS line fitted to the normalized closes of the
// trailing lookback window. Deterministic for a given input.
type LinearTrend struct {
	lookback int
}

func NewLinearTrend(lookback int) *LinearTrend {
	if lookback < 2 {
		lookback = 2
	}
	return &LinearTrend{lookback: lookback}
}

func (f *LinearTrend) Name() string { return ModelLinearTrend }

type lineFit struct {
	alpha, beta float64
	params      models.ScalerParams
	n           int
	mse         float64
}

func (f *LinearTrend) fit(series models.Series) (lineFit, error) {
	if len(series) == 0 {
		return lineFit{}, errs.EmptyInput("linear_trend.fit")
	}
	window := series
	if len(window) > f.lookback {
		window = window[len(window)-f.lookback:]
	}
	ys, params, err := normalize.ScaleSeries(window)
	if err != nil {
		return lineFit{}, err
	}
	lf := lineFit{params: params, n: len(ys)}
	if len(ys) < 2 || params.Degenerate() {
		lf.alpha = normalize.Transform(window[len(window)-1].Close, params)
		return lf, nil
	}

	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	lf.alpha, lf.beta = stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(lf.alpha) || math.IsNaN(lf.beta) {
		return lineFit{}, errs.Forecast("linear_trend.fit", errNonFinite)
	}
	var sq float64
	for i, y := range ys {
		r := y - (lf.alpha + lf.beta*xs[i])
		sq += r * r
	}
	lf.mse = sq / float64(len(ys))
	return lf, nil
}

// Train fits the line and reports the mean squared residual on the scaled window.
func (f *LinearTrend) Train(ctx context.Context, series models.Series, epochs int) (models.TrainingSummary, error) {
	if err := ctx.Err(); err != nil {
		return models.TrainingSummary{}, err
	}
	if epochs <= 0 {
		return models.TrainingSummary{}, errs.Validation("linear_trend.train", "epochs", "epochs must be positive")
	}
	lf, err := f.fit(series)
	if err != nil {
		return models.TrainingSummary{}, err
	}
	return models.TrainingSummary{Epochs: epochs, FinalLoss: lf.mse}, nil
}

func (f *LinearTrend) Predict(ctx context.Context, series models.Series, horizonDays int) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if horizonDays <= 0 {
		return nil, errs.Validation("linear_trend.predict", "horizonDays", "horizon must be positive")
	}
	lf, err := f.fit(series)
	if err != nil {
		return nil, err
	}
	out := make([]float64, horizonDays)
	last := float64(lf.n - 1)
	for i := range out {
		y := lf.alpha + lf.beta*(last+float64(i+1))
		out[i] = math.Max(0, normalize.Inverse(y, lf.params))
	}
	return out, nil
}

func (f *LinearTrend) Evaluate(ctx context.Context, test models.Series) (models.Metrics, error) {
	return backtest(ctx, test, f.Predict)
}

var _ domsvc.Forecaster = (*LinearTrend)(nil)
