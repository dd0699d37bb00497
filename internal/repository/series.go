package repository

import (
	"sort"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/services/calendar"
	"StockCast/pkg/util"
)

// Source names reported by Name() and used in config.
const (
	SourceSynthetic  = "synthetic"
	SourceYahoo      = "yahoo"
	SourceAlpaca     = "alpaca"
	SourceClickHouse = "clickhouse"
	SourceSQLite     = "sqlite"
	SourcePostgres   = "postgres"
)

// finalizeSeries truncates dates, keeps trading days within [start, end],
// sorts ascending and keeps the last point per date. Points that break the
// OHLC invariant are dropped and counted.
func finalizeSeries(points []models.PricePoint, start, end time.Time) (models.Series, int) {
	start, end = util.TruncateDay(start), util.TruncateDay(end)
	byDate := make(map[time.Time]models.PricePoint, len(points))
	dropped := 0
	for _, p := range points {
		p.Date = util.TruncateDay(p.Date)
		if p.Date.Before(start) || p.Date.After(end) || !calendar.IsTradingDay(p.Date) {
			continue
		}
		if err := p.Validate(); err != nil {
			dropped++
			continue
		}
		byDate[p.Date] = p
	}

	out := make(models.Series, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, dropped
}
