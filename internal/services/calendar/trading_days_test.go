package calendar

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNextTradingDaysSkipsWeekend(t *testing.T) {
	got := NextTradingDays(day("2023-01-13"), 3)
	want := []string{"2023-01-16", "2023-01-17", "2023-01-18"}
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Format("2006-01-02") != want[i] {
			t.Fatalf("date %d: got %s want %s", i, got[i].Format("2006-01-02"), want[i])
		}
	}
}

func TestNextTradingDaysZero(t *testing.T) {
	got := NextTradingDays(day("2023-01-13"), 0)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
	if got := NextTradingDays(day("2023-01-13"), -2); len(got) != 0 {
		t.Fatalf("expected empty slice for negative count")
	}
}

func TestNextTradingDaysProperties(t *testing.T) {
	start := day("2022-12-01")
	for offset := 0; offset < 14; offset++ {
		from := start.AddDate(0, 0, offset)
		for count := 1; count <= 30; count++ {
			got := NextTradingDays(from, count)
			if len(got) != count {
				t.Fatalf("from %s count %d: got %d dates", from.Format("2006-01-02"), count, len(got))
			}
			prev := from
			for _, d := range got {
				if !d.After(prev) {
					t.Fatalf("from %s: %s not after %s", from.Format("2006-01-02"), d.Format("2006-01-02"), prev.Format("2006-01-02"))
				}
				if !IsTradingDay(d) {
					t.Fatalf("from %s: weekend date %s", from.Format("2006-01-02"), d.Format("2006-01-02"))
				}
				prev = d
			}
		}
	}
}

func TestNextTradingDaysFromWeekend(t *testing.T) {
	got := NextTradingDays(day("2023-01-14"), 1)
	if got[0].Format("2006-01-02") != "2023-01-16" {
		t.Fatalf("expected monday, got %s", got[0].Format("2006-01-02"))
	}
}

func TestTradingDaysBetween(t *testing.T) {
	got := TradingDaysBetween(day("2023-01-02"), day("2023-01-15"))
	if len(got) != 10 {
		t.Fatalf("expected 10 trading days, got %d", len(got))
	}
	if got[len(got)-1].Format("2006-01-02") != "2023-01-13" {
		t.Fatalf("unexpected last day %s", got[len(got)-1].Format("2006-01-02"))
	}
	if got := TradingDaysBetween(day("2023-01-15"), day("2023-01-02")); len(got) != 0 {
		t.Fatalf("expected empty for inverted range")
	}
	if got := TradingDaysBetween(day("2023-01-14"), day("2023-01-15")); len(got) != 0 {
		t.Fatalf("expected empty for weekend-only range")
	}
}
