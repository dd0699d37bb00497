package calendar

import (
	"time"

	"StockCast/pkg/util"
)

// IsTradingDay reports whether d is a weekday. Exchange holidays are not modeled.
func IsTradingDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextTradingDays returns the next count trading dates strictly after from.
// count <= 0 yields an empty slice.
func NextTradingDays(from time.Time, count int) []time.Time {
	if count <= 0 {
		return []time.Time{}
	}
	out := make([]time.Time, 0, count)
	d := util.TruncateDay(from)
	for len(out) < count {
		d = d.AddDate(0, 0, 1)
		if IsTradingDay(d) {
			out = append(out, d)
		}
	}
	return out
}

// TradingDaysBetween returns every trading date in [start, end] inclusive.
func TradingDaysBetween(start, end time.Time) []time.Time {
	start, end = util.TruncateDay(start), util.TruncateDay(end)
	if end.Before(start) {
		return []time.Time{}
	}
	out := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsTradingDay(d) {
			out = append(out, d)
		}
	}
	return out
}
