package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockCast/internal/domain/errs"
	"StockCast/internal/domain/models"
)

type constRand float64

func (c constRand) Float64() float64 { return float64(c) }

func seriesOf(closes ...float64) models.Series {
	d := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	s := make(models.Series, 0, len(closes))
	for _, c := range closes {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		s = append(s, models.PricePoint{Date: d, Open: c, High: c, Low: c, Close: c, Volume: 1000})
		d = d.AddDate(0, 0, 1)
	}
	return s
}

func TestRandomWalkConstantDraw(t *testing.T) {
	f := NewRandomWalk(constRand(0.5))
	got, err := f.Predict(context.Background(), seriesOf(90, 100), 3)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	want := []float64{100.5, 101.0025, 101.5075125}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("step %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestRandomWalkSeededReproducible(t *testing.T) {
	s := seriesOf(10, 11, 12, 13, 12, 14)
	a := NewRandomWalk(rand.New(rand.NewPCG(7, 7)))
	b := NewRandomWalk(rand.New(rand.NewPCG(7, 7)))
	pa, _ := a.Predict(context.Background(), s, 10)
	pb, _ := b.Predict(context.Background(), s, 10)
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("step %d differs: %v vs %v", i, pa[i], pb[i])
		}
	}
}

func TestRandomWalkStepBounds(t *testing.T) {
	f := NewRandomWalk(rand.New(rand.NewPCG(1, 2)))
	prev := 50.0
	got, err := f.Predict(context.Background(), seriesOf(50), 30)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	for i, p := range got {
		r := p / prev
		if r < 0.975-1e-12 || r >= 1.035 {
			t.Fatalf("step %d ratio %v out of bounds", i, r)
		}
		prev = p
	}
}

func TestRandomWalkTrain(t *testing.T) {
	f := NewRandomWalk(rand.New(rand.NewPCG(3, 4)))
	sum, err := f.Train(context.Background(), seriesOf(1, 2, 3), 20)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if sum.Epochs != 20 || sum.DurationHint != 2*time.Second {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if sum.FinalLoss < 0.01 || sum.FinalLoss >= 0.06 {
		t.Fatalf("loss out of range: %v", sum.FinalLoss)
	}
	if _, err := f.Train(context.Background(), seriesOf(1), 0); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error for zero epochs, got %v", err)
	}
	if _, err := f.Train(context.Background(), nil, 5); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error for empty series, got %v", err)
	}
}

func TestRandomWalkPredictInvalid(t *testing.T) {
	f := NewRandomWalk(constRand(0.1))
	if _, err := f.Predict(context.Background(), nil, 3); err == nil {
		t.Fatalf("expected error for empty series")
	}
	if _, err := f.Predict(context.Background(), seriesOf(1), 0); err == nil {
		t.Fatalf("expected error for zero horizon")
	}
}

func TestComputeMetrics(t *testing.T) {
	m, err := ComputeMetrics([]float64{1, 2, 3}, []float64{2, 2, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.MAE != 1 || m.MSE != 1.67 || m.RMSE != 1.29 {
		t.Fatalf("unexpected metrics %+v", m)
	}
	if _, err := ComputeMetrics([]float64{1}, []float64{1, 2}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
	m, _ = ComputeMetrics(nil, nil)
	if m != (models.Metrics{}) {
		t.Fatalf("expected zero metrics, got %+v", m)
	}
}

func TestEvaluateNonNegative(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.IntN(80)
		closes := make([]float64, n)
		for i := range closes {
			closes[i] = 1 + rng.Float64()*200
		}
		s := seriesOf(closes...)
		for _, f := range []interface {
			Evaluate(context.Context, models.Series) (models.Metrics, error)
		}{NewRandomWalk(rand.New(rand.NewPCG(uint64(trial), 1))), NewLinearTrend(60)} {
			m, err := f.Evaluate(context.Background(), s)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if m.MAE < 0 || m.MSE < 0 || m.RMSE < 0 {
				t.Fatalf("negative metrics %+v", m)
			}
		}
	}
}

func TestEvaluateShortSeries(t *testing.T) {
	m, err := NewRandomWalk(constRand(0.5)).Evaluate(context.Background(), seriesOf(10))
	if err != nil || m != (models.Metrics{}) {
		t.Fatalf("expected zero metrics, got %+v err=%v", m, err)
	}
}

func TestLinearTrendExactOnLine(t *testing.T) {
	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 10 + float64(i)
	}
	f := NewLinearTrend(60)
	sum, err := f.Train(context.Background(), seriesOf(closes...), 20)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if sum.FinalLoss > 1e-12 {
		t.Fatalf("expected zero loss, got %v", sum.FinalLoss)
	}
	got, err := f.Predict(context.Background(), seriesOf(closes...), 3)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	for i, want := range []float64{20, 21, 22} {
		if math.Abs(got[i]-want) > 1e-9 {
			t.Fatalf("step %d: got %v want %v", i, got[i], want)
		}
	}
	m, _ := f.Evaluate(context.Background(), seriesOf(closes...))
	if m != (models.Metrics{}) {
		t.Fatalf("expected zero metrics on a line, got %+v", m)
	}
}

func TestLinearTrendFlat(t *testing.T) {
	got, err := NewLinearTrend(60).Predict(context.Background(), seriesOf(7, 7, 7), 2)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got[0] != 7 || got[1] != 7 {
		t.Fatalf("expected flat forecast, got %v", got)
	}
	got, _ = NewLinearTrend(60).Predict(context.Background(), seriesOf(42), 1)
	if got[0] != 42 {
		t.Fatalf("expected last close for one point, got %v", got)
	}
}

func TestRemoteModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/model/train":
			_ = json.NewEncoder(w).Encode(trainResp{Epochs: 20, Loss: 0.02, DurationMs: 1500})
		case "/model/predict":
			var req predictReq
			_ = json.NewDecoder(r.Body).Decode(&req)
			prices := make([]float64, req.Horizon)
			for i := range prices {
				prices[i] = req.Closes[len(req.Closes)-1]
			}
			_ = json.NewEncoder(w).Encode(predictResp{Prices: prices})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	factory, err := NewFactory(Config{Model: ModelRemote, ServiceURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	f := factory()
	sum, err := f.Train(context.Background(), seriesOf(5, 6), 20)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if sum.FinalLoss != 0.02 || sum.DurationHint != 1500*time.Millisecond {
		t.Fatalf("unexpected summary %+v", sum)
	}
	got, err := f.Predict(context.Background(), seriesOf(5, 6), 4)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(got) != 4 || got[3] != 6 {
		t.Fatalf("unexpected prediction %v", got)
	}
}

func TestNewFactory(t *testing.T) {
	if _, err := NewFactory(Config{Model: "lstm"}); err == nil {
		t.Fatalf("expected error for unknown model")
	}
	if _, err := NewFactory(Config{Model: ModelRemote}); err == nil {
		t.Fatalf("expected error for remote without url")
	}
	factory, err := NewFactory(Config{Model: ModelRandomWalk, Seed: 42})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	s := seriesOf(10, 11, 12)
	a, _ := factory().Predict(context.Background(), s, 5)
	b, _ := factory().Predict(context.Background(), s, 5)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("seeded factory not reproducible at %d", i)
		}
	}
	if factory().Name() != ModelRandomWalk {
		t.Fatalf("unexpected model name")
	}
	lt, _ := NewFactory(Config{Model: ModelLinearTrend})
	if lt().Name() != ModelLinearTrend {
		t.Fatalf("unexpected model name")
	}
}
