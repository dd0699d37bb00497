package repository

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/services/calendar"
)

// SyntheticSource generates a plausible daily series without any upstream.
// With a non-zero seed the same ticker and range always yield the same series.
type SyntheticSource struct {
	seed uint64
}

func NewSyntheticSource(seed uint64) *SyntheticSource {
	return &SyntheticSource{seed: seed}
}

func (s *SyntheticSource) Name() string { return SourceSynthetic }

func (s *SyntheticSource) Fetch(ctx context.Context, ticker string, start, end time.Time) (models.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rng := s.rngFor(ticker, start)
	days := calendar.TradingDaysBetween(start, end)

	out := make(models.Series, 0, len(days))
	price := 100 + rng.Float64()*50
	for _, d := range days {
		change := (rng.Float64()*6 - 3) / 100
		price *= 1 + change

		open := price * (1 - rng.Float64()*0.01)
		high := price * (1 + rng.Float64()*0.02)
		low := price * (1 - rng.Float64()*0.02)
		out = append(out, models.PricePoint{
			Date:   d,
			Open:   open,
			High:   math.Max(high, open),
			Low:    math.Min(low, open),
			Close:  price,
			Volume: math.Floor(rng.Float64()*10_000_000) + 1_000_000,
		})
	}
	return out, nil
}

func (s *SyntheticSource) rngFor(ticker string, start time.Time) *rand.Rand {
	if s.seed == 0 {
		n := uint64(time.Now().UnixNano())
		return rand.New(rand.NewPCG(n, n>>1|1))
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(ticker))
	_, _ = h.Write([]byte(start.Format(models.DateLayout)))
	return rand.New(rand.NewPCG(s.seed, h.Sum64()))
}
