package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// deleteChunkSize bounds how many date keys a single DELETE statement may
// carry, to stay within engine statement-size limits.
const deleteChunkSize = 500

// Rate is a single stored daily exchange rate. The storage invariant keeps
// Base alphabetically before Quote; the reverse pair is derived via 1/Rate
// and never stored.
type Rate struct {
	Date      time.Time
	Base      string
	Quote     string
	Rate      decimal.Decimal
	Source    string
	FetchedAt time.Time
}

// RateRepository defines DB operations for stored rates.
type RateRepository interface {
	// Upsert inserts or updates a rate, reporting whether the row actually
	// changed (new row, or value different from the stored one).
	Upsert(ctx context.Context, r Rate) (changed bool, err error)
	// Get returns the rate stored for the exact key, or nil when absent.
	Get(ctx context.Context, date time.Time, base, quote string) (*Rate, error)
	// GetLatestBefore returns the nearest rate strictly before date for the
	// pair, or nil when none exists.
	GetLatestBefore(ctx context.Context, date time.Time, base, quote string) (*Rate, error)
	// CounterCurrencies returns every currency that shares at least one
	// stored pair with the given currency.
	CounterCurrencies(ctx context.Context, currency string) ([]string, error)
	// DeleteRange removes all rates for the pair within [start, end],
	// deleting in bounded-size key batches. Returns the number of rows
	// removed.
	DeleteRange(ctx context.Context, base, quote string, start, end time.Time) (int64, error)
}

// PostgresRateRepository is a RateRepository backed by PostgreSQL.
type PostgresRateRepository struct {
	db *sql.DB
}

// NewPostgresRateRepository creates a new PostgresRateRepository.
func NewPostgresRateRepository(db *sql.DB) RateRepository {
	return &PostgresRateRepository{db: db}
}

// Upsert writes the rate, leaving identical rows untouched so that re-running
// a sync with unchanged upstream data changes zero rows.
func (r *PostgresRateRepository) Upsert(ctx context.Context, rate Rate) (bool, error) {
	query := `INSERT INTO rates (rate_date, base, quote, rate, source, fetched_at)
              VALUES ($1, $2, $3, $4::numeric, $5, $6)
              ON CONFLICT (rate_date, base, quote)
              DO UPDATE SET rate = EXCLUDED.rate, source = EXCLUDED.source, fetched_at = EXCLUDED.fetched_at
              WHERE rates.rate <> EXCLUDED.rate`

	result, err := r.db.ExecContext(ctx, query,
		rate.Date, rate.Base, rate.Quote, rate.Rate.String(), rate.Source, rate.FetchedAt)
	if err != nil {
		return false, fmt.Errorf("upsert rate %s/%s@%s: %w", rate.Base, rate.Quote, rate.Date.Format("2006-01-02"), err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Get retrieves the rate stored for the exact (date, base, quote) key.
func (r *PostgresRateRepository) Get(ctx context.Context, date time.Time, base, quote string) (*Rate, error) {
	query := `SELECT rate_date, base, quote, rate::text, source, fetched_at
              FROM rates
              WHERE rate_date = $1 AND base = $2 AND quote = $3`

	return scanRate(r.db.QueryRowContext(ctx, query, date, base, quote))
}

// GetLatestBefore finds the nearest stored rate strictly earlier than date.
func (r *PostgresRateRepository) GetLatestBefore(ctx context.Context, date time.Time, base, quote string) (*Rate, error) {
	query := `SELECT rate_date, base, quote, rate::text, source, fetched_at
              FROM rates
              WHERE base = $1 AND quote = $2 AND rate_date < $3
              ORDER BY rate_date DESC
              LIMIT 1`

	return scanRate(r.db.QueryRowContext(ctx, query, base, quote, date))
}

// CounterCurrencies lists candidate pivot currencies for cross-currency
// conversion.
func (r *PostgresRateRepository) CounterCurrencies(ctx context.Context, currency string) ([]string, error) {
	query := `SELECT DISTINCT quote FROM rates WHERE base = $1
              UNION
              SELECT DISTINCT base FROM rates WHERE quote = $1
              ORDER BY 1`

	rows, err := r.db.QueryContext(ctx, query, currency)
	if err != nil {
		return nil, fmt.Errorf("list counter currencies for %s: %w", currency, err)
	}
	defer rows.Close() //nolint:errcheck // best-effort close

	var currencies []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		currencies = append(currencies, strings.TrimSpace(c))
	}
	return currencies, rows.Err()
}

// DeleteRange collects the matching date keys, then deletes them in chunks
// of at most deleteChunkSize per statement.
func (r *PostgresRateRepository) DeleteRange(ctx context.Context, base, quote string, start, end time.Time) (int64, error) {
	selectQuery := `SELECT rate_date FROM rates
                    WHERE base = $1 AND quote = $2 AND rate_date BETWEEN $3 AND $4
                    ORDER BY rate_date`

	rows, err := r.db.QueryContext(ctx, selectQuery, base, quote, start, end)
	if err != nil {
		return 0, fmt.Errorf("select rates to delete for %s/%s: %w", base, quote, err)
	}
	defer rows.Close() //nolint:errcheck // best-effort close

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return 0, err
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var deleted int64
	for chunkStart := 0; chunkStart < len(dates); chunkStart += deleteChunkSize {
		chunkEnd := chunkStart + deleteChunkSize
		if chunkEnd > len(dates) {
			chunkEnd = len(dates)
		}
		n, err := r.deleteChunk(ctx, base, quote, dates[chunkStart:chunkEnd])
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	return deleted, nil
}

func (r *PostgresRateRepository) deleteChunk(ctx context.Context, base, quote string, dates []time.Time) (int64, error) {
	placeholders := make([]string, len(dates))
	args := make([]any, 0, len(dates)+2)
	args = append(args, base, quote)
	for i, d := range dates {
		placeholders[i] = fmt.Sprintf("$%d", i+3)
		args = append(args, d)
	}

	query := fmt.Sprintf(`DELETE FROM rates WHERE base = $1 AND quote = $2 AND rate_date IN (%s)`,
		strings.Join(placeholders, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete rate chunk for %s/%s: %w", base, quote, err)
	}
	return result.RowsAffected()
}

// scanRate maps a single row into a Rate, returning (nil, nil) for
// sql.ErrNoRows.
func scanRate(row *sql.Row) (*Rate, error) {
	var r Rate
	var rateStr string

	err := row.Scan(&r.Date, &r.Base, &r.Quote, &rateStr, &r.Source, &r.FetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	r.Base = strings.TrimSpace(r.Base)
	r.Quote = strings.TrimSpace(r.Quote)
	r.Rate, err = decimal.NewFromString(rateStr)
	if err != nil {
		return nil, fmt.Errorf("stored rate %q is not a valid decimal: %w", rateStr, err)
	}
	return &r, nil
}
