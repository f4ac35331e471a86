// Package clickhouse provides the ClickHouse dataset store, for deployments
// where BI consumers query the merged sales data directly. Snapshots are
// append-only: each run inserts a new snapshot and flips the active flag.
package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"salesmerge/pkg/canonical"
)

// Snapshot is one persisted dataset version.
type Snapshot struct {
	ID          uuid.UUID `ch:"id"`
	RecordCount uint64    `ch:"record_count"`
	RunAt       time.Time `ch:"run_at"`
	IsActive    bool      `ch:"is_active"`
	CreatedAt   time.Time `ch:"created_at"`
}

// Config holds ClickHouse connection configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "salesmerge",
		Username: "default",
		Password: "",
		Debug:    false,
	}
}

// Store persists canonical dataset snapshots in ClickHouse.
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewStore connects to ClickHouse.
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &Store{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Save inserts the dataset as a new snapshot and activates it. Records keep
// their insertion order via the seq column.
func (s *Store) Save(ctx context.Context, dataset *canonical.Dataset, runTS time.Time) error {
	snapshotID := uuid.New()
	records := dataset.Records()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO sales_records (
			snapshot_id, seq, account_id, account_name, province,
			product_id, product_name, product_line, quantity, total_bottles,
			revenue, order_date, channel, source_fingerprint, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	now := time.Now()
	for i, r := range records {
		if err := batch.Append(
			snapshotID, uint64(i), r.AccountID, r.AccountName, r.Province,
			r.ProductID, r.ProductName, string(r.ProductLine), r.Quantity, r.TotalBottles,
			r.Revenue, r.OrderDate, string(r.Channel), r.SourceFingerprint, now,
		); err != nil {
			return fmt.Errorf("failed to append record to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert records: %w", err)
	}

	insertSnapshot := `
		INSERT INTO dataset_snapshots (id, record_count, run_at, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if err := s.conn.Exec(ctx, insertSnapshot, snapshotID, uint64(len(records)), runTS, uint8(1), now); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	// Deactivate earlier snapshots; the records stay for audit.
	deactivate := `
		INSERT INTO dataset_snapshots
		SELECT id, record_count, run_at, 0 as is_active, created_at,
			   _version + 1 as _version, _deleted
		FROM dataset_snapshots FINAL
		WHERE is_active = 1 AND _deleted = 0 AND id != ?
	`
	if err := s.conn.Exec(ctx, deactivate, snapshotID); err != nil {
		return fmt.Errorf("failed to deactivate snapshots: %w", err)
	}
	return nil
}

// Load reads the active snapshot back as the merge baseline. No active
// snapshot means an empty dataset.
func (s *Store) Load(ctx context.Context) (*canonical.Dataset, error) {
	active, err := s.ActiveSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return canonical.NewDataset(), nil
	}

	query := `
		SELECT account_id, account_name, province, product_id, product_name,
			   product_line, quantity, total_bottles, revenue, order_date,
			   channel, source_fingerprint
		FROM sales_records
		WHERE snapshot_id = ?
		ORDER BY seq
	`
	rows, err := s.conn.Query(ctx, query, active.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot records: %w", err)
	}
	defer rows.Close()

	dataset := canonical.NewDataset()
	for rows.Next() {
		var r canonical.Record
		var productLine, channel string
		var revenue decimal.Decimal
		if err := rows.Scan(
			&r.AccountID, &r.AccountName, &r.Province, &r.ProductID, &r.ProductName,
			&productLine, &r.Quantity, &r.TotalBottles, &revenue, &r.OrderDate,
			&channel, &r.SourceFingerprint,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.ProductLine = canonical.ProductLine(productLine)
		r.Channel = canonical.Channel(channel)
		r.Revenue = revenue
		dataset.Put(r)
	}
	return dataset, nil
}

// ActiveSnapshot returns the currently active snapshot, or nil.
func (s *Store) ActiveSnapshot(ctx context.Context) (*Snapshot, error) {
	query := `
		SELECT id, record_count, run_at, is_active, created_at
		FROM dataset_snapshots FINAL
		WHERE is_active = 1 AND _deleted = 0
		ORDER BY created_at DESC
		LIMIT 1
	`
	row := s.conn.QueryRow(ctx, query)

	var snap Snapshot
	var isActive uint8
	err := row.Scan(&snap.ID, &snap.RecordCount, &snap.RunAt, &isActive, &snap.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active snapshot: %w", err)
	}
	snap.IsActive = isActive == 1
	return &snap, nil
}

// ListSnapshots lists snapshots newest first, for audit.
func (s *Store) ListSnapshots(ctx context.Context) ([]*Snapshot, error) {
	query := `
		SELECT id, record_count, run_at, is_active, created_at
		FROM dataset_snapshots FINAL
		WHERE _deleted = 0
		ORDER BY created_at DESC
	`
	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		var snap Snapshot
		var isActive uint8
		if err := rows.Scan(&snap.ID, &snap.RecordCount, &snap.RunAt, &isActive, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.IsActive = isActive == 1
		snapshots = append(snapshots, &snap)
	}
	return snapshots, nil
}
