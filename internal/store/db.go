package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pageguard/pageguard/internal/model"
)

// DB provides SQLite-based storage for moderation counters and scan
// history.
//
// Design decision: counters live in the database rather than in memory
// so totals survive across CLI invocations; the engine emits increment
// events and never owns the totals.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures DB behavior.
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

// Open opens or creates a DB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, "pageguard.db")

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

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	db := &DB{
		db:     sqlDB,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := sqlDB.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := db.createTables(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (d *DB) createTables() error {
	schema := `
	-- Counters hold the aggregate moderation totals
	CREATE TABLE IF NOT EXISTS counters (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Scans store one row per completed page scan
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		source TEXT NOT NULL,
		content_hash TEXT,
		analyzed INTEGER NOT NULL DEFAULT 0,
		harmful INTEGER NOT NULL DEFAULT 0,
		rephrased INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_scans_source ON scans(source);
	CREATE INDEX IF NOT EXISTS idx_scans_created ON scans(created_at);

	-- Meta holds single-value bookkeeping entries
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := d.db.ExecContext(context.Background(), schema)
	return err
}

// IncrementCounter adds one to the named counter, creating it at zero
// first if needed. Unknown counter names are rejected.
func (d *DB) IncrementCounter(ctx context.Context, name string) error {
	if !validCounter(name) {
		return fmt.Errorf("%w: %s", ErrUnknownCounter, name)
	}

	query := `
	INSERT INTO counters (name, value) VALUES (?, 1)
	ON CONFLICT(name) DO UPDATE SET
		value = value + 1,
		updated_at = CURRENT_TIMESTAMP
	`

	if _, err := d.db.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("failed to increment counter: %w", err)
	}
	return nil
}

// Increment adapts IncrementCounter to the engine's recorder interface.
func (d *DB) Increment(name string) error {
	return d.IncrementCounter(context.Background(), name)
}

// Stats returns the aggregate counter totals.
func (d *DB) Stats(ctx context.Context) (model.Statistics, error) {
	var stats model.Statistics

	rows, err := d.db.QueryContext(ctx, `SELECT name, value FROM counters`)
	if err != nil {
		return stats, fmt.Errorf("failed to query counters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return stats, fmt.Errorf("failed to scan counter: %w", err)
		}
		switch name {
		case model.CounterAnalyzed:
			stats.Analyzed = value
		case model.CounterHarmful:
			stats.Harmful = value
		case model.CounterRephrased:
			stats.Rephrased = value
		}
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("failed to read counters: %w", err)
	}

	var resetAt string
	err = d.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'last_reset'`).Scan(&resetAt)
	if err == nil {
		if t, parseErr := time.Parse(time.RFC3339, resetAt); parseErr == nil {
			stats.LastReset = t
		}
	} else if err != sql.ErrNoRows {
		return stats, fmt.Errorf("failed to read reset time: %w", err)
	}

	return stats, nil
}

// ResetCounters zeroes every counter and records the reset time.
func (d *DB) ResetCounters(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `UPDATE counters SET value = 0, updated_at = CURRENT_TIMESTAMP`); err != nil {
		return fmt.Errorf("failed to reset counters: %w", err)
	}

	query := `
	INSERT INTO meta (key, value) VALUES ('last_reset', ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := d.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to record reset time: %w", err)
	}
	return nil
}

// SaveScan stores a completed page report, summary columns plus the full
// report as JSON.
func (d *DB) SaveScan(ctx context.Context, report *model.PageReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO scans (session_id, source, content_hash, analyzed, harmful, rephrased, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = d.db.ExecContext(ctx, query,
		report.SessionID,
		report.Source,
		report.ContentHash,
		report.Analyzed,
		report.Harmful,
		report.Rephrased,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save scan: %w", err)
	}
	return nil
}

// ScanSummary contains the summary columns of one stored scan. It is
// used for displaying scan history without loading the full report.
type ScanSummary struct {
	// ID is the unique identifier of the scan in the database.
	ID int64

	// SessionID is the scan's session identifier.
	SessionID string

	// Source is the scanned input.
	Source string

	// ContentHash fingerprints the scanned content.
	ContentHash string

	// Analyzed, Harmful, and Rephrased are the scan's counter values.
	Analyzed  int
	Harmful   int
	Rephrased int

	// CreatedAt is when the scan was stored.
	CreatedAt time.Time
}

// History retrieves stored scan summaries, newest first. An empty source
// matches every scan; limit caps the result when positive.
func (d *DB) History(ctx context.Context, source string, limit int) ([]ScanSummary, error) {
	query := `
	SELECT id, session_id, source, content_hash, analyzed, harmful, rephrased, created_at
	FROM scans
	WHERE 1=1
	`
	args := make([]interface{}, 0)

	if source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer rows.Close()

	var results []ScanSummary
	for rows.Next() {
		var s ScanSummary
		var hash sql.NullString
		var created string

		err := rows.Scan(&s.ID, &s.SessionID, &s.Source, &hash, &s.Analyzed, &s.Harmful, &s.Rephrased, &created)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}

		s.ContentHash = hash.String
		s.CreatedAt = parseTimestamp(created)
		results = append(results, s)
	}

	return results, rows.Err()
}

// LatestScan retrieves the most recent stored report for a source, or
// nil when the source was never scanned.
func (d *DB) LatestScan(ctx context.Context, source string) (*model.PageReport, error) {
	query := `
	SELECT report_json FROM scans
	WHERE source = ?
	ORDER BY created_at DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := d.db.QueryRowContext(ctx, query, source).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest scan: %w", err)
	}

	var report model.PageReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// ScanByID retrieves a stored report by its database ID, or nil when no
// such scan exists.
func (d *DB) ScanByID(ctx context.Context, id int64) (*model.PageReport, error) {
	var reportJSON string
	err := d.db.QueryRowContext(ctx, `SELECT report_json FROM scans WHERE id = ?`, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}

	var report model.PageReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
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

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending
// on configuration. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
