package forecast

import (
	"context"
	"time"

	"StockCast/internal/domain/errs"
	"StockCast/internal/domain/models"
	domsvc "StockCast/internal/domain/service"
	"StockCast/internal/services/normalize"
)

// Rand is the randomness a stochastic forecaster draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// RandomWalk compounds a bounded random daily return onto the last close.
// Each step draws u in [0,1) and applies change = (u*6 - 2.5)/100, a range of
// -2.5%..+3.5% with a slight upward bias.
type RandomWalk struct {
	rng    Rand
	scaler *normalize.Scaler
}

func NewRandomWalk(rng Rand) *RandomWalk {
	return &RandomWalk{rng: rng, scaler: normalize.NewScaler()}
}

func (f *RandomWalk) Name() string { return ModelRandomWalk }

// Train fits the scaler and reports a simulated cost: 100ms per epoch and a
// final loss in [0.01, 0.06).
func (f *RandomWalk) Train(ctx context.Context, series models.Series, epochs int) (models.TrainingSummary, error) {
	if err := ctx.Err(); err != nil {
		return models.TrainingSummary{}, err
	}
	if epochs <= 0 {
		return models.TrainingSummary{}, errs.Validation("random_walk.train", "epochs", "epochs must be positive")
	}
	if _, err := f.scaler.Fit(series); err != nil {
		return models.TrainingSummary{}, err
	}
	return models.TrainingSummary{
		Epochs:       epochs,
		DurationHint: time.Duration(epochs) * 100 * time.Millisecond,
		FinalLoss:    0.01 + f.rng.Float64()*0.05,
	}, nil
}

func (f *RandomWalk) Predict(ctx context.Context, series models.Series, horizonDays int) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, errs.EmptyInput("random_walk.predict")
	}
	if horizonDays <= 0 {
		return nil, errs.Validation("random_walk.predict", "horizonDays", "horizon must be positive")
	}
	if _, ok := f.scaler.Params(); !ok {
		if _, err := f.scaler.Fit(series); err != nil {
			return nil, err
		}
	}

	out := make([]float64, 0, horizonDays)
	price := series.Last().Close
	for i := 0; i < horizonDays; i++ {
		change := (f.rng.Float64()*6 - 2.5) / 100
		price *= 1 + change
		out = append(out, price)
	}
	return out, nil
}

func (f *RandomWalk) Evaluate(ctx context.Context, test models.Series) (models.Metrics, error) {
	return backtest(ctx, test, f.Predict)
}

var _ domsvc.Forecaster = (*RandomWalk)(nil)
