package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"salesmerge/pkg/canonical"
)

// PostgresLedger stores entries in a Postgres table, for deployments where
// several operators share one merge baseline.
type PostgresLedger struct {
	db *sql.DB
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS processed_inputs (
	channel      TEXT        NOT NULL,
	fingerprint  TEXT        NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (channel, fingerprint)
)`

// OpenPostgresLedger connects and ensures the table exists.
func OpenPostgresLedger(ctx context.Context, dsn string) (*PostgresLedger, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres ledger: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("postgres ledger unreachable: %w", err)
	}
	if _, err := db.ExecContext(ctx, ledgerSchema); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger table: %w", err)
	}
	return &PostgresLedger{db: db}, nil
}

func (l *PostgresLedger) IsNew(ctx context.Context, channel canonical.Channel, fingerprint string) (bool, error) {
	var one int
	err := l.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_inputs WHERE channel = $1 AND fingerprint = $2`,
		string(channel), fingerprint,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger lookup failed: %w", err)
	}
	return false, nil
}

func (l *PostgresLedger) Record(ctx context.Context, channel canonical.Channel, fingerprint string, at time.Time) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO processed_inputs (channel, fingerprint, processed_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (channel, fingerprint) DO NOTHING`,
		string(channel), fingerprint, at,
	)
	if err != nil {
		return fmt.Errorf("ledger record failed: %w", err)
	}
	return nil
}

func (l *PostgresLedger) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT channel, fingerprint, processed_at FROM processed_inputs ORDER BY channel, fingerprint`)
	if err != nil {
		return nil, fmt.Errorf("ledger list failed: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var channel string
		if err := rows.Scan(&channel, &e.Fingerprint, &e.ProcessedAt); err != nil {
			return nil, fmt.Errorf("ledger scan failed: %w", err)
		}
		e.Channel = canonical.Channel(channel)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (l *PostgresLedger) Reset(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, `TRUNCATE processed_inputs`); err != nil {
		return fmt.Errorf("ledger reset failed: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (l *PostgresLedger) Close() error { return l.db.Close() }
