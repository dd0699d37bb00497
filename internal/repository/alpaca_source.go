package repository

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// barsClient is the subset of the Alpaca market data client the source uses.
type barsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaSource reads daily bars from Alpaca market data.
type AlpacaSource struct {
	client barsClient
	feed   string
}

// NewAlpacaSource builds the Alpaca client from API credentials. feed is
// "iex" or "sip"; empty keeps the account default.
func NewAlpacaSource(apiKey, apiSecret, feed string) *AlpacaSource {
	return &AlpacaSource{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		feed: feed,
	}
}

func (s *AlpacaSource) Name() string { return SourceAlpaca }

func (s *AlpacaSource) Fetch(ctx context.Context, ticker string, start, end time.Time) (models.Series, error) {
	req := marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end.AddDate(0, 0, 1),
	}
	if s.feed != "" {
		req.Feed = marketdata.Feed(s.feed)
	}

	// the Alpaca client has no context support; abandon the call on cancel
	type result struct {
		bars []marketdata.Bar
		err  error
	}
	done := make(chan result, 1)
	go func() {
		bars, err := s.client.GetBars(ticker, req)
		done <- result{bars, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("alpaca bars %s: %w", ticker, res.err)
	}

	points := make([]models.PricePoint, 0, len(res.bars))
	for _, b := range res.bars {
		points = append(points, models.PricePoint{
			Date:   b.Timestamp.UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		})
	}
	series, _ := finalizeSeries(points, start, end)
	return series, nil
}
