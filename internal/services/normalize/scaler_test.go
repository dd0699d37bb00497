package normalize

import (
	"errors"
	"math"
	"testing"
	"time"

	"StockCast/internal/domain/errs"
	"StockCast/internal/domain/models"
)

func seriesOf(closes ...float64) models.Series {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	s := make(models.Series, 0, len(closes))
	d := start
	for _, c := range closes {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		s = append(s, models.PricePoint{Date: d, Open: c, High: c, Low: c, Close: c, Volume: 1})
		d = d.AddDate(0, 0, 1)
	}
	return s
}

func TestFitMinMax(t *testing.T) {
	cases := []struct {
		name     string
		closes   []float64
		min, max float64
	}{
		{"single", []float64{42}, 42, 42},
		{"ascending", []float64{1, 2, 3, 4}, 1, 4},
		{"mixed", []float64{10.5, 3.25, 99, 7, 50}, 3.25, 99},
		{"negative", []float64{-2, 5, -7}, -7, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Fit(seriesOf(tc.closes...))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Min != tc.min || p.Max != tc.max {
				t.Fatalf("got %+v want min=%v max=%v", p, tc.min, tc.max)
			}
			if p.Min > p.Max {
				t.Fatalf("min > max: %+v", p)
			}
		})
	}
}

func TestFitEmpty(t *testing.T) {
	_, err := Fit(nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation kind, got %v", errs.KindOf(err))
	}
}

func TestTransformBounds(t *testing.T) {
	s := seriesOf(12, 7, 30, 18)
	p, _ := Fit(s)
	if got := Transform(p.Min, p); got != 0 {
		t.Fatalf("transform(min) = %v", got)
	}
	if got := Transform(p.Max, p); got != 1 {
		t.Fatalf("transform(max) = %v", got)
	}
	if got := Inverse(Transform(18, p), p); math.Abs(got-18) > 1e-9 {
		t.Fatalf("inverse round trip = %v", got)
	}
}

func TestTransformDegenerate(t *testing.T) {
	p, _ := Fit(seriesOf(5, 5, 5))
	if !p.Degenerate() {
		t.Fatalf("expected degenerate params")
	}
	for _, v := range []float64{5, 0, -3, 1e9} {
		got := Transform(v, p)
		if got != 0 || math.IsNaN(got) {
			t.Fatalf("transform(%v) = %v, want 0", v, got)
		}
	}
	if !errors.Is(Check(p), errs.ErrDegenerateScale) {
		t.Fatalf("expected degenerate scale error")
	}
	if Inverse(0.7, p) != 5 {
		t.Fatalf("inverse on degenerate params should return min")
	}
}

func TestScaleSeries(t *testing.T) {
	scaled, p, err := ScaleSeries(seriesOf(2, 4, 6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0, 0.5, 1}
	for i := range want {
		if scaled[i] != want[i] {
			t.Fatalf("scaled[%d] = %v want %v", i, scaled[i], want[i])
		}
	}
	if p.Min != 2 || p.Max != 6 {
		t.Fatalf("unexpected params %+v", p)
	}
}

func TestScalerRemembersParams(t *testing.T) {
	sc := NewScaler()
	if _, ok := sc.Params(); ok {
		t.Fatalf("expected no params before fit")
	}
	if _, err := sc.Fit(seriesOf(3, 9)); err != nil {
		t.Fatalf("fit: %v", err)
	}
	p, ok := sc.Params()
	if !ok || p.Min != 3 || p.Max != 9 {
		t.Fatalf("unexpected params %+v ok=%v", p, ok)
	}
}
