package forecast

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"StockCast/internal/domain/models"
)

// maxHoldout caps the number of trailing points used for evaluation.
const maxHoldout = 30

// ComputeMetrics returns MAE, MSE and RMSE of predicted against actual,
// rounded to two decimals.
func ComputeMetrics(predicted, actual []float64) (models.Metrics, error) {
	if len(predicted) != len(actual) {
		return models.Metrics{}, fmt.Errorf("length mismatch: predicted=%d actual=%d", len(predicted), len(actual))
	}
	if len(actual) == 0 {
		return models.Metrics{}, nil
	}
	var sumAbs, sumSq float64
	for i := range actual {
		e := predicted[i] - actual[i]
		sumAbs += math.Abs(e)
		sumSq += e * e
	}
	n := float64(len(actual))
	mse := sumSq / n
	return models.Metrics{
		MAE:  round2(sumAbs / n),
		MSE:  round2(mse),
		RMSE: round2(math.Sqrt(mse)),
	}, nil
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// holdoutSize returns how many trailing points of an n-point series are held out.
func holdoutSize(n int) int {
	k := n / 5
	if k < 1 {
		k = 1
	}
	if k > maxHoldout {
		k = maxHoldout
	}
	return k
}

type predictFunc func(ctx context.Context, series models.Series, horizonDays int) ([]float64, error)

// backtest predicts the held-out tail of test from its prefix and scores the residuals.
func backtest(ctx context.Context, test models.Series, predict predictFunc) (models.Metrics, error) {
	n := len(test)
	if n < 2 {
		return models.Metrics{}, nil
	}
	k := holdoutSize(n)
	prefix, actual := test[:n-k], test[n-k:]
	pred, err := predict(ctx, prefix, k)
	if err != nil {
		return models.Metrics{}, fmt.Errorf("backtest predict: %w", err)
	}
	return ComputeMetrics(pred, actual.Closes())
}
