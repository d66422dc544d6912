package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

// PriceRepository defines contract for DB operations on financial_data.
type PriceRepository interface {
	ListPrices(ctx context.Context, filter models.PriceFilter, limit, offset int) ([]models.PriceRecord, error)
	CountPrices(ctx context.Context, filter models.PriceFilter) (int64, error)
	GetStatistics(ctx context.Context, filter models.PriceFilter) (*models.Statistics, error)
	UpsertPrices(ctx context.Context, symbol string, records []models.PriceRecord) error
}

// PersistenceError reports a write the store rejected. The surrounding
// transaction has already been rolled back when it is returned.
type PersistenceError struct {
	Op     string // begin, prepare, upsert, log, commit
	Symbol string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %s: %v", e.Symbol, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// priceFilterClause applies a models.PriceFilter without building SQL at
// runtime: a NULL parameter disables its predicate.
//
//	$1 symbol, $2 start date (inclusive), $3 end date (inclusive)
const priceFilterClause = `($1::text IS NULL OR symbol = $1)
	AND ($2::date IS NULL OR date >= $2::date)
	AND ($3::date IS NULL OR date <= $3::date)`

const (
	listPricesSQL = `
		SELECT id, symbol, date, open_price, close_price, volume
		FROM financial_data
		WHERE ` + priceFilterClause + `
		ORDER BY date ASC, id ASC
		LIMIT $4 OFFSET $5`

	countPricesSQL = `
		SELECT COUNT(*)
		FROM financial_data
		WHERE ` + priceFilterClause

	// AVG over NUMERIC and SUM over BIGINT both yield NULL for an empty set.
	statisticsSQL = `
		SELECT
			AVG(open_price)::float8  AS average_open_price,
			AVG(close_price)::float8 AS average_close_price,
			SUM(volume)::bigint      AS total_volume
		FROM financial_data
		WHERE ` + priceFilterClause

	upsertPriceSQL = `
		INSERT INTO financial_data (symbol, date, open_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol, date)
		DO UPDATE SET open_price = EXCLUDED.open_price,
					  close_price = EXCLUDED.close_price,
					  volume = EXCLUDED.volume`

	upsertIngestionLogSQL = `
		INSERT INTO ingestion_log (symbol, row_count)
		VALUES ($1, $2)
		ON CONFLICT (symbol)
		DO UPDATE SET row_count = EXCLUDED.row_count,
					  ingested_at = NOW()`
)

type priceRepository struct {
	db *sql.DB
}

func NewPriceRepository(db *sql.DB) PriceRepository {
	return &priceRepository{db: db}
}

// filterArgs maps the optional filter fields to the three clause parameters.
func filterArgs(f models.PriceFilter) []any {
	args := []any{nil, nil, nil}
	if f.Symbol != nil {
		args[0] = *f.Symbol
	}
	if f.StartDate != nil {
		args[1] = *f.StartDate
	}
	if f.EndDate != nil {
		args[2] = *f.EndDate
	}
	return args
}

// maxPrealloc bounds the up-front capacity of a page; limit comes from the client.
const maxPrealloc = 256

// ListPrices returns one page of records matching filter, ordered by date then id.
func (r *priceRepository) ListPrices(ctx context.Context, filter models.PriceFilter, limit, offset int) ([]models.PriceRecord, error) {
	args := append(filterArgs(filter), limit, offset)

	rows, err := r.db.QueryContext(ctx, listPricesSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]models.PriceRecord, 0, min(limit, maxPrealloc))
	for rows.Next() {
		var rec models.PriceRecord
		if err := rows.Scan(&rec.ID, &rec.Symbol, &rec.Date, &rec.OpenPrice, &rec.ClosePrice, &rec.Volume); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		rec.Date = rec.Date.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prices: %w", err)
	}
	return out, nil
}

// CountPrices returns how many records match filter.
func (r *priceRepository) CountPrices(ctx context.Context, filter models.PriceFilter) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, countPricesSQL, filterArgs(filter)...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count prices: %w", err)
	}
	return n, nil
}

// GetStatistics computes average open/close price and total volume over filter.
//
// The returned Statistics only carries the aggregates; callers fill in the
// symbol and range they asked for.
func (r *priceRepository) GetStatistics(ctx context.Context, filter models.PriceFilter) (*models.Statistics, error) {
	var s models.Statistics
	err := r.db.QueryRowContext(ctx, statisticsSQL, filterArgs(filter)...).
		Scan(&s.AverageOpenPrice, &s.AverageClosePrice, &s.TotalVolume)
	if err != nil {
		return nil, fmt.Errorf("compute statistics: %w", err)
	}
	return &s, nil
}

// UpsertPrices writes records for one symbol in a single transaction.
//
// Existing (symbol, date) rows get their prices and volume overwritten, so
// repeating a batch converges to the same state. The ingestion_log row for
// symbol is updated in the same transaction. Any failure rolls back the whole
// batch and is returned as *PersistenceError.
func (r *priceRepository) UpsertPrices(ctx context.Context, symbol string, records []models.PriceRecord) error {
	fail := func(tx *sql.Tx, op string, err error) error {
		if tx != nil {
			_ = tx.Rollback()
		}
		return &PersistenceError{Op: op, Symbol: symbol, Err: err}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fail(nil, "begin", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertPriceSQL)
	if err != nil {
		return fail(tx, "prepare", err)
	}

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.Symbol, dateOnly(rec.Date), rec.OpenPrice, rec.ClosePrice, rec.Volume); err != nil {
			_ = stmt.Close()
			return fail(tx, "upsert", fmt.Errorf("%s %s: %w", rec.Symbol, rec.Date.Format("2006-01-02"), err))
		}
	}
	if err := stmt.Close(); err != nil {
		return fail(tx, "upsert", err)
	}

	if _, err := tx.ExecContext(ctx, upsertIngestionLogSQL, symbol, len(records)); err != nil {
		return fail(tx, "log", err)
	}

	if err := tx.Commit(); err != nil {
		return fail(nil, "commit", err)
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
