package repository

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/pkg/util"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource reads daily bars from a Postgres table through pgxpool.
type PostgresSource struct {
	pool  *pgxpool.Pool
	table string
}

func NewPostgresSource(pool *pgxpool.Pool, table string) (*PostgresSource, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresSource{pool: pool, table: table}, nil
}

func (s *PostgresSource) Name() string { return SourcePostgres }

func (s *PostgresSource) Fetch(ctx context.Context, ticker string, start, end time.Time) (models.Series, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT day, open, high, low, close, volume FROM %s
		 WHERE ticker = $1 AND day BETWEEN $2 AND $3
		 ORDER BY day ASC`, s.table),
		ticker, util.TruncateDay(start), util.TruncateDay(end),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres query: %w", err)
	}
	points, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PricePoint, error) {
		var p models.PricePoint
		err := row.Scan(&p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres scan: %w", err)
	}
	series, _ := finalizeSeries(points, start, end)
	return series, nil
}
