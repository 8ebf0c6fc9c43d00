package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/probelab/cipherprobe/internal/model"
)

// HistoryDB provides SQLite-based storage for batch scan history.
// It manages connection pooling and provides methods for saving and
// querying past runs.
//
// Design decision: We use a single database file for the whole history
// rather than one file per batch. This simplifies cross-batch queries
// and backup/restore operations.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "cipherprobe.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer, and the scanner saves a batch in
	// one shot, so a single connection is enough.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Batches store one row per scan run plus the full report as JSON
	CREATE TABLE IF NOT EXISTS batches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		concurrency INTEGER NOT NULL,
		catalog_size INTEGER NOT NULL,
		hosts_done INTEGER NOT NULL,
		hosts_failed INTEGER NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_batches_started ON batches(started_at);

	-- Host outcomes store one row per target per batch for cheap
	-- per-host history queries
	CREATE TABLE IF NOT EXISTS host_outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id INTEGER NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		host TEXT NOT NULL,
		service TEXT NOT NULL,
		state TEXT NOT NULL,
		endpoint TEXT,
		probes_prepared INTEGER NOT NULL,
		error_kind TEXT,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_batch ON host_outcomes(batch_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_host ON host_outcomes(host);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveBatch stores a completed batch and its host outcomes.
// Returns the batch's database ID.
func (hdb *HistoryDB) SaveBatch(ctx context.Context, batch *model.BatchReport) (int64, error) {
	reportJSON, err := json.Marshal(batch)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize batch: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	done, failed := batch.Summary()
	result, err := tx.ExecContext(ctx, `
	INSERT INTO batches (started_at, elapsed_ms, concurrency, catalog_size, hosts_done, hosts_failed, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		batch.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		batch.Elapsed.Milliseconds(),
		batch.Concurrency,
		batch.CatalogSize,
		done,
		failed,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert batch: %w", err)
	}

	batchID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read batch id: %w", err)
	}

	for _, host := range batch.Hosts {
		if host == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO host_outcomes (batch_id, host, service, state, endpoint, probes_prepared, error_kind, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			batchID,
			host.Host,
			host.Service,
			host.StateName,
			host.Endpoint,
			host.ProbesPrepared,
			host.ErrorKind,
			host.ErrorMessage,
		); err != nil {
			return 0, fmt.Errorf("failed to insert host outcome: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}

	return batchID, nil
}

// BatchMetadata contains summary information about a stored batch.
// This is used for displaying history without loading the full report.
type BatchMetadata struct {
	// ID is the unique identifier of the batch in the database.
	ID int64

	// StartedAt is when the batch began.
	StartedAt time.Time

	// Elapsed is the batch's wall-clock duration.
	Elapsed time.Duration

	// Concurrency is the worker-pool size the batch ran with.
	Concurrency int

	// CatalogSize is the probe count per host.
	CatalogSize int

	// HostsDone is how many hosts completed probing.
	HostsDone int

	// HostsFailed is how many hosts failed before or during the scan.
	HostsFailed int
}

// ListBatches returns metadata for the most recent batches, newest
// first. A non-positive limit returns everything.
func (hdb *HistoryDB) ListBatches(ctx context.Context, limit int) ([]BatchMetadata, error) {
	query := `
	SELECT id, started_at, elapsed_ms, concurrency, catalog_size, hosts_done, hosts_failed
	FROM batches
	ORDER BY started_at DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	var results []BatchMetadata
	for rows.Next() {
		var meta BatchMetadata
		var started string
		var elapsedMS int64

		if err := rows.Scan(&meta.ID, &started, &elapsedMS, &meta.Concurrency,
			&meta.CatalogSize, &meta.HostsDone, &meta.HostsFailed); err != nil {
			return nil, fmt.Errorf("failed to scan batch metadata: %w", err)
		}

		meta.StartedAt = parseTimestamp(started)
		meta.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetBatchByID retrieves a full batch report by its database ID.
// Returns nil without error when the ID does not exist.
func (hdb *HistoryDB) GetBatchByID(ctx context.Context, id int64) (*model.BatchReport, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx,
		`SELECT report_json FROM batches WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	var batch model.BatchReport
	if err := json.Unmarshal([]byte(reportJSON), &batch); err != nil {
		return nil, fmt.Errorf("failed to parse batch: %w", err)
	}

	return &batch, nil
}

// HostOutcome is one host's stored result within a batch.
type HostOutcome struct {
	// BatchID identifies the batch this outcome belongs to.
	BatchID int64

	// StartedAt is when the owning batch began.
	StartedAt time.Time

	// Host is the target host name or address.
	Host string

	// Service is the service name or port used for resolution.
	Service string

	// State is the final state name of the host's scan.
	State string

	// Endpoint is the address connected to, empty on failure.
	Endpoint string

	// ProbesPrepared counts the probes constructed for the host.
	ProbesPrepared int

	// ErrorKind classifies the failure, empty on success.
	ErrorKind string

	// ErrorMessage is the failure detail, empty on success.
	ErrorMessage string
}

// GetHostHistory returns a host's outcomes across batches, newest first.
func (hdb *HistoryDB) GetHostHistory(ctx context.Context, host string) ([]HostOutcome, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT o.batch_id, b.started_at, o.host, o.service, o.state, o.endpoint,
	       o.probes_prepared, o.error_kind, o.error_message
	FROM host_outcomes o
	JOIN batches b ON b.id = o.batch_id
	WHERE o.host = ?
	ORDER BY b.started_at DESC, o.id DESC
	`, host)
	if err != nil {
		return nil, fmt.Errorf("failed to get host history: %w", err)
	}
	defer rows.Close()

	var results []HostOutcome
	for rows.Next() {
		var out HostOutcome
		var started string
		var endpoint, kind, message sql.NullString

		if err := rows.Scan(&out.BatchID, &started, &out.Host, &out.Service,
			&out.State, &endpoint, &out.ProbesPrepared, &kind, &message); err != nil {
			return nil, fmt.Errorf("failed to scan host outcome: %w", err)
		}

		out.StartedAt = parseTimestamp(started)
		out.Endpoint = endpoint.String
		out.ErrorKind = kind.String
		out.ErrorMessage = message.String
		results = append(results, out)
	}

	return results, rows.Err()
}

// ListScannedHosts returns every distinct host present in the history.
func (hdb *HistoryDB) ListScannedHosts(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT DISTINCT host FROM host_outcomes
	ORDER BY host
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close()

	var hosts []string
	for rows.Next() {
		var host string
		if err := rows.Scan(&host); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, host)
	}

	return hosts, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
