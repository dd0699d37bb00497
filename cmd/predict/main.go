package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"StockCast/internal/client"
	xhttp "StockCast/pkg/http"
	"StockCast/pkg/util"
)

func main() {
	now := time.Now().UTC()
	server := flag.String("server", "http://localhost:8080", "prediction API base URL")
	ticker := flag.String("ticker", "", "stock ticker, e.g. AAPL")
	start := flag.String("start", util.FormatDate(now.AddDate(0, -3, 0)), "history start date (YYYY-MM-DD)")
	end := flag.String("end", util.FormatDate(now), "history end date (YYYY-MM-DD)")
	days := flag.Int("days", 5, "number of trading days to predict")
	ws := flag.Bool("ws", false, "stream the request state over the websocket endpoint")
	history := flag.Bool("history", false, "show history only, no prediction")
	timeout := flag.Duration("timeout", 60*time.Second, "request timeout")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	began := time.Now()
	c := client.New(*server,
		client.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(*timeout))),
		client.WithStream(*ws),
		client.WithStateHook(func(s client.RequestState) {
			if !s.Terminal() {
				fmt.Fprintf(os.Stderr, "state: %s (%s)\n", s, *server)
				return
			}
			fmt.Fprintf(os.Stderr, "state: %s after %s\n", s, time.Since(began).Round(time.Millisecond))
		}),
	)
	if err := run(ctx, c, client.Form{
		Ticker:     *ticker,
		StartDate:  *start,
		EndDate:    *end,
		FutureDays: *days,
	}, *history); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.Client, f client.Form, historyOnly bool) error {
	ticker := util.NormalizeTicker(f.Ticker)
	if historyOnly {
		if ticker == "" {
			return errors.New("please enter a ticker")
		}
		resp, err := c.History(ctx, ticker, f.StartDate, f.EndDate)
		if err != nil {
			return err
		}
		return client.Render(os.Stdout, ticker, resp)
	}

	resp, err := c.Run(ctx, f)
	if err != nil {
		return err
	}
	return client.Render(os.Stdout, ticker, resp)
}
