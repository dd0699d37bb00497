package repository

import (
	"context"
	"errors"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/pkg/cache"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/util"
)

// CachedSource memoizes a SeriesSource. Cached series are immutable values;
// empty results and errors are never cached.
type CachedSource struct {
	next    domrepo.SeriesSource
	cache   cache.Service
	ttl     time.Duration
	metrics domrepo.Metrics
	l       *applogger.Logger
}

type cachedPoint struct {
	Date   string  `json:"d"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

func NewCachedSource(next domrepo.SeriesSource, c cache.Service, ttl time.Duration, m domrepo.Metrics) *CachedSource {
	return &CachedSource{next: next, cache: c, ttl: ttl, metrics: m}
}

// SetLogger injects a structured logger.
func (s *CachedSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CachedSource) Name() string { return s.next.Name() }

// Key returns the cache key of one fetch.
func (s *CachedSource) Key(ticker string, start, end time.Time) string {
	return cache.GenerateKey("series", s.next.Name(), ticker, util.FormatDate(start), util.FormatDate(end))
}

func (s *CachedSource) Fetch(ctx context.Context, ticker string, start, end time.Time) (models.Series, error) {
	key := s.Key(ticker, start, end)

	var cached []cachedPoint
	err := s.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		if series, ok := fromCached(cached); ok {
			s.record("cached")
			return series, nil
		}
	case !errors.Is(err, cache.ErrCacheMiss) && s.l != nil:
		s.l.Warn("series cache read failed", applogger.String("key", key), applogger.Error(err))
	}

	series, err := s.next.Fetch(ctx, ticker, start, end)
	if err != nil {
		s.record("error")
		return nil, err
	}
	if len(series) == 0 {
		s.record("empty")
		return series, nil
	}
	s.record("ok")

	if err := s.cache.Set(ctx, key, toCached(series), s.ttl); err != nil && s.l != nil {
		s.l.Warn("series cache write failed", applogger.String("key", key), applogger.Error(err))
	}
	return series, nil
}

func (s *CachedSource) record(result string) {
	if s.metrics != nil {
		s.metrics.RecordSourceFetch(s.next.Name(), result)
	}
}

func toCached(series models.Series) []cachedPoint {
	out := make([]cachedPoint, len(series))
	for i, p := range series {
		out[i] = cachedPoint{util.FormatDate(p.Date), p.Open, p.High, p.Low, p.Close, p.Volume}
	}
	return out
}

func fromCached(points []cachedPoint) (models.Series, bool) {
	if len(points) == 0 {
		return nil, false
	}
	out := make(models.Series, len(points))
	for i, p := range points {
		d, err := util.ParseDate(p.Date)
		if err != nil {
			return nil, false
		}
		out[i] = models.PricePoint{Date: d, Open: p.Open, High: p.High, Low: p.Low, Close: p.Close, Volume: p.Volume}
	}
	return out, true
}
