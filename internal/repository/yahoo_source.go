package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	xhttp "StockCast/pkg/http"
	applogger "StockCast/pkg/logger"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooSource reads daily bars from the public Yahoo Finance chart API.
type YahooSource struct {
	client    *xhttp.Client
	baseURL   string
	symbolMap map[string]string
	l         *applogger.Logger
}

// YahooOption configures YahooSource.
type YahooOption func(*YahooSource)

// WithYahooBaseURL points the source at another host (tests, proxies).
func WithYahooBaseURL(u string) YahooOption {
	return func(s *YahooSource) {
		if u != "" {
			s.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithYahooSymbols maps internal tickers to Yahoo symbols, e.g. SPX to ^GSPC.
func WithYahooSymbols(m map[string]string) YahooOption {
	return func(s *YahooSource) {
		for k, v := range m {
			s.symbolMap[k] = v
		}
	}
}

func NewYahooSource(client *xhttp.Client, opts ...YahooOption) *YahooSource {
	s := &YahooSource{
		client:  client,
		baseURL: defaultYahooBaseURL,
		symbolMap: map[string]string{
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"NASDAQ": "^IXIC",
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetLogger injects a structured logger.
func (s *YahooSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *YahooSource) Name() string { return SourceYahoo }

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (s *YahooSource) Fetch(ctx context.Context, ticker string, start, end time.Time) (models.Series, error) {
	symbol := ticker
	if mapped, ok := s.symbolMap[ticker]; ok {
		symbol = mapped
	}

	var chart yahooChart
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol),
		QueryParams: map[string][]string{
			"interval": {"1d"},
			"period1":  {strconv.FormatInt(start.Unix(), 10)},
			// period2 is exclusive
			"period2": {strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10)},
			"events":  {"history"},
		},
		Headers: map[string]string{"Accept": "application/json"},
	}, &chart)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return models.Series{}, nil
		}
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return models.Series{}, nil
		}
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return models.Series{}, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	points := make([]models.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c := at(quote.Close, i)
		if c == nil {
			continue // null bar (halt or holiday)
		}
		p := models.PricePoint{
			// exchange-local calendar date
			Date:  time.Unix(ts+result.Meta.GMTOffset, 0).UTC(),
			Close: *c,
			Open:  valueOr(at(quote.Open, i), *c),
			High:  valueOr(at(quote.High, i), *c),
			Low:   valueOr(at(quote.Low, i), *c),
		}
		p.Volume = valueOr(at(quote.Volume, i), 0)
		points = append(points, p)
	}

	series, dropped := finalizeSeries(points, start, end)
	if dropped > 0 && s.l != nil {
		s.l.Warn("yahoo dropped invalid bars",
			applogger.String("ticker", ticker),
			applogger.Int("dropped", dropped),
		)
	}
	return series, nil
}

func at(v []*float64, i int) *float64 {
	if i < len(v) {
		return v[i]
	}
	return nil
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
