package client

import (
	"fmt"
	"io"
	"text/tabwriter"

	"StockCast/internal/domain/models"
)

// Render writes a plain text report of resp. Predictions and metrics are
// optional; a response without them renders the historical table only.
func Render(w io.Writer, ticker string, resp *models.PredictResponse) error {
	if resp == nil {
		_, err := fmt.Fprintln(w, "no data")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s historical closes (%d days)\n", ticker, len(resp.HistoricalData.Dates))
	fmt.Fprintln(tw, "DATE\tCLOSE")
	writeRows(tw, resp.HistoricalData)

	if resp.Predictions != nil && len(resp.Predictions.Dates) > 0 {
		fmt.Fprintf(tw, "\nPredictions (%d days)\n", len(resp.Predictions.Dates))
		fmt.Fprintln(tw, "DATE\tPRICE")
		writeRows(tw, *resp.Predictions)
	}
	if resp.Metrics != nil {
		fmt.Fprintln(tw, "\nMetrics")
		fmt.Fprintf(tw, "MAE\t%.2f\n", resp.Metrics.MAE)
		fmt.Fprintf(tw, "MSE\t%.2f\n", resp.Metrics.MSE)
		fmt.Fprintf(tw, "RMSE\t%.2f\n", resp.Metrics.RMSE)
	}
	return tw.Flush()
}

func writeRows(w io.Writer, s models.SeriesPayload) {
	n := len(s.Dates)
	if len(s.Prices) < n {
		n = len(s.Prices)
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(w, "%s\t%.2f\n", s.Dates[i], s.Prices[i])
	}
}
