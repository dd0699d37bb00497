package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// PricePoint is one daily OHLCV bar. Date carries no time component (UTC midnight).
type PricePoint struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Validate checks low <= open,close <= high and volume >= 0.
func (p PricePoint) Validate() error {
	if p.Volume < 0 {
		return fmt.Errorf("%s: negative volume %.2f", p.Date.Format(DateLayout), p.Volume)
	}
	if p.Low > p.Open || p.Low > p.Close || p.High < p.Open || p.High < p.Close {
		return fmt.Errorf("%s: ohlc out of range (o=%.4f h=%.4f l=%.4f c=%.4f)",
			p.Date.Format(DateLayout), p.Open, p.High, p.Low, p.Close)
	}
	return nil
}

// Series is an ordered daily price series: strictly increasing dates, no weekends.
type Series []PricePoint

// Last returns the most recent point. Callers must check Len first.
func (s Series) Last() PricePoint {
	return s[len(s)-1]
}

func (s Series) Len() int { return len(s) }

// Closes returns the close prices in order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Close
	}
	return out
}

// Dates returns the dates formatted as YYYY-MM-DD.
func (s Series) Dates() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Date.Format(DateLayout)
	}
	return out
}

// Validate checks ordering, weekend exclusion and per-point invariants.
func (s Series) Validate() error {
	for i, p := range s {
		if wd := p.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return fmt.Errorf("%s: weekend date in series", p.Date.Format(DateLayout))
		}
		if i > 0 && !p.Date.After(s[i-1].Date) {
			return fmt.Errorf("%s: dates not strictly increasing", p.Date.Format(DateLayout))
		}
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Slice returns the points whose dates fall in [from, to].
func (s Series) Slice(from, to time.Time) Series {
	out := make(Series, 0, len(s))
	for _, p := range s {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ScalerParams are min-max scaling bounds derived from one series' closes.
type ScalerParams struct {
	Min float64
	Max float64
}

// Degenerate reports whether all closes were identical.
func (p ScalerParams) Degenerate() bool { return p.Max == p.Min }
