package sqlite

import (
	"context"
	"testing"
)

func TestOpenAndMigrate(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := Migrate(ctx, db, DailyPricesDDL("daily_prices")...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// idempotent
	if err := Migrate(ctx, db, DailyPricesDDL("daily_prices")...); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO daily_prices (ticker, day, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"AAPL", "2024-01-02", 1, 2, 0.5, 1.5, 100); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM daily_prices`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("count = %d err = %v", n, err)
	}
}
