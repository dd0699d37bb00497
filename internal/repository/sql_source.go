package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"StockCast/internal/domain/models"
	pkgch "StockCast/pkg/clickhouse"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/util"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLSource reads daily bars from a database/sql table with columns
// (ticker, day, open, high, low, close, volume). It serves ClickHouse and
// SQLite, both of which take '?' placeholders.
type SQLSource struct {
	db    *sql.DB
	table string
	name  string
	l     *applogger.Logger
}

// NewClickHouseSource reads from table on the ClickHouse pool.
func NewClickHouseSource(ch *pkgch.Client, table string) (*SQLSource, error) {
	return newSQLSource(ch.DB(), table, SourceClickHouse)
}

// NewSQLiteSource reads from table on an open SQLite database.
func NewSQLiteSource(db *sql.DB, table string) (*SQLSource, error) {
	return newSQLSource(db, table, SourceSQLite)
}

func newSQLSource(db *sql.DB, table, name string) (*SQLSource, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SQLSource{db: db, table: table, name: name}, nil
}

// SetLogger injects a structured logger.
func (s *SQLSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *SQLSource) Name() string { return s.name }

func (s *SQLSource) Fetch(ctx context.Context, ticker string, start, end time.Time) (models.Series, error) {
	began := time.Now()
	q := fmt.Sprintf(`
        SELECT day, open, high, low, close, volume
        FROM %s
        WHERE ticker = ? AND day >= ? AND day <= ?
        ORDER BY day ASC
    `, s.table)

	rows, err := s.db.QueryContext(ctx, q, ticker, s.dayArg(start), s.dayArg(end))
	if err != nil {
		s.logError("query", ticker, err)
		return nil, fmt.Errorf("%s query: %w", s.name, err)
	}
	defer rows.Close()

	points := make([]models.PricePoint, 0, 256)
	for rows.Next() {
		var (
			day any
			p   models.PricePoint
		)
		if err := rows.Scan(&day, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			s.logError("scan", ticker, err)
			return nil, fmt.Errorf("%s scan: %w", s.name, err)
		}
		if p.Date, err = toDate(day); err != nil {
			return nil, fmt.Errorf("%s scan: %w", s.name, err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		s.logError("rows", ticker, err)
		return nil, fmt.Errorf("%s rows: %w", s.name, err)
	}

	series, dropped := finalizeSeries(points, start, end)
	if s.l != nil {
		s.l.Debug("series query ok",
			applogger.String("source", s.name),
			applogger.String("ticker", ticker),
			applogger.Int("rows", len(series)),
			applogger.Int("dropped", dropped),
			applogger.Duration("duration_ms", time.Since(began)),
		)
	}
	return series, nil
}

// Upsert writes points for ticker. SQLite only; ClickHouse tables are fed
// by the ingestion side.
func (s *SQLSource) Upsert(ctx context.Context, ticker string, series models.Series) error {
	if s.name != SourceSQLite {
		return fmt.Errorf("%s: upsert not supported", s.name)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT OR REPLACE INTO %s (ticker, day, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?)`, s.table))
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range series {
		if _, err := stmt.ExecContext(ctx, ticker, util.FormatDate(p.Date), p.Open, p.High, p.Low, p.Close, p.Volume); err != nil {
			return fmt.Errorf("insert %s: %w", util.FormatDate(p.Date), err)
		}
	}
	return tx.Commit()
}

// dayArg renders a bound for the day column: text for SQLite, a date for ClickHouse.
func (s *SQLSource) dayArg(t time.Time) any {
	t = util.TruncateDay(t)
	if s.name == SourceSQLite {
		return util.FormatDate(t)
	}
	return t
}

func (s *SQLSource) logError(stage, ticker string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("series query failed",
		applogger.String("source", s.name),
		applogger.String("stage", stage),
		applogger.String("ticker", ticker),
		applogger.Error(err),
	)
}

func toDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return util.TruncateDay(d), nil
	case string:
		return util.ParseDate(d)
	case []byte:
		return util.ParseDate(string(d))
	default:
		return time.Time{}, fmt.Errorf("unsupported day value %T", v)
	}
}
