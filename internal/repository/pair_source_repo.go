package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PairSource maps a currency pair to the provider responsible for it at a
// given fallback rank. Direction matters here: EUR/USD and USD/EUR are
// distinct configurations.
type PairSource struct {
	Base         string
	Quote        string
	ProviderCode string
	Priority     int
}

// PairSourceRepository defines DB operations for pair-source configuration.
type PairSourceRepository interface {
	// UpsertBulk applies every entry inside one transaction: all rows are
	// written or none are.
	UpsertBulk(ctx context.Context, entries []PairSource) error
	// Delete removes a single priority row, or every row for the pair when
	// priority is nil. Returns the number of rows removed.
	Delete(ctx context.Context, base, quote string, priority *int) (int64, error)
	// ListForPair returns the rows for an exact directed pair, ordered by
	// ascending priority.
	ListForPair(ctx context.Context, base, quote string) ([]PairSource, error)
	// ListAll returns every configured row.
	ListAll(ctx context.Context) ([]PairSource, error)
}

// PostgresPairSourceRepository is a PairSourceRepository backed by
// PostgreSQL.
type PostgresPairSourceRepository struct {
	db *sql.DB
}

// NewPostgresPairSourceRepository creates a new PostgresPairSourceRepository.
func NewPostgresPairSourceRepository(db *sql.DB) PairSourceRepository {
	return &PostgresPairSourceRepository{db: db}
}

// UpsertBulk writes all entries in a single transaction. An existing
// (base, quote, priority) row has its provider code replaced.
func (r *PostgresPairSourceRepository) UpsertBulk(ctx context.Context, entries []PairSource) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin pair-source transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO pair_sources (base, quote, provider_code, priority)
              VALUES ($1, $2, $3, $4)
              ON CONFLICT (base, quote, priority)
              DO UPDATE SET provider_code = EXCLUDED.provider_code`

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, query, e.Base, e.Quote, e.ProviderCode, e.Priority); err != nil {
			return fmt.Errorf("upsert pair source %s/%s priority %d: %w", e.Base, e.Quote, e.Priority, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pair-source transaction: %w", err)
	}
	return nil
}

// Delete removes configuration rows for the pair. Deleting absent rows is
// a no-op reported through the returned count.
func (r *PostgresPairSourceRepository) Delete(ctx context.Context, base, quote string, priority *int) (int64, error) {
	var result sql.Result
	var err error

	if priority != nil {
		result, err = r.db.ExecContext(ctx,
			`DELETE FROM pair_sources WHERE base = $1 AND quote = $2 AND priority = $3`,
			base, quote, *priority)
	} else {
		result, err = r.db.ExecContext(ctx,
			`DELETE FROM pair_sources WHERE base = $1 AND quote = $2`,
			base, quote)
	}
	if err != nil {
		return 0, fmt.Errorf("delete pair source %s/%s: %w", base, quote, err)
	}
	return result.RowsAffected()
}

// ListForPair returns the fallback chain for one directed pair.
func (r *PostgresPairSourceRepository) ListForPair(ctx context.Context, base, quote string) ([]PairSource, error) {
	query := `SELECT base, quote, provider_code, priority
              FROM pair_sources
              WHERE base = $1 AND quote = $2
              ORDER BY priority`

	return r.query(ctx, query, base, quote)
}

// ListAll returns the full configuration, ordered for deterministic
// grouping.
func (r *PostgresPairSourceRepository) ListAll(ctx context.Context) ([]PairSource, error) {
	query := `SELECT base, quote, provider_code, priority
              FROM pair_sources
              ORDER BY base, quote, priority`

	return r.query(ctx, query)
}

func (r *PostgresPairSourceRepository) query(ctx context.Context, query string, args ...any) ([]PairSource, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pair sources: %w", err)
	}
	defer rows.Close() //nolint:errcheck // best-effort close

	var entries []PairSource
	for rows.Next() {
		var e PairSource
		if err := rows.Scan(&e.Base, &e.Quote, &e.ProviderCode, &e.Priority); err != nil {
			return nil, err
		}
		e.Base = strings.TrimSpace(e.Base)
		e.Quote = strings.TrimSpace(e.Quote)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
