package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Wtfthisman1/ParserLinks/internal/model"
)

// LinkDB provides SQLite-based storage for per-URL processing results.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: One row per URL with upsert-on-conflict semantics
// rather than an append-only log. The batch runner asks "was this URL
// already processed" millions of times per session; a unique index on
// url makes that a point lookup, and re-probing a URL simply replaces
// the stale record.
type LinkDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures LinkDB behavior.
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

// Open opens or creates a LinkDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*LinkDB, error) {
	dbPath := filepath.Join(dbDir, "parserlinks.db")

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

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
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

	// SQLite only supports one writer; the batch runner funnels all
	// persistence through this single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ldb := &LinkDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := ldb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return ldb, nil
}

// Close closes the database connection.
func (ldb *LinkDB) Close() error {
	return ldb.db.Close()
}

// Path returns the path of the backing database file.
func (ldb *LinkDB) Path() string {
	return ldb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (ldb *LinkDB) createTables() error {
	schema := `
	-- Link results store the terminal outcome of each processed URL
	CREATE TABLE IF NOT EXISTS link_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		hosting TEXT NOT NULL,
		status TEXT NOT NULL,
		file_path TEXT,
		file_size INTEGER DEFAULT 0,
		image_age_days INTEGER DEFAULT 0,
		capture_time TEXT,
		error_message TEXT,
		processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_results_hosting ON link_results(hosting);
	CREATE INDEX IF NOT EXISTS idx_results_status ON link_results(status);
	CREATE INDEX IF NOT EXISTS idx_results_processed ON link_results(processed_at);
	`

	_, err := ldb.db.ExecContext(context.Background(), schema)
	return err
}

// IsProcessed reports whether a URL already has a stored result.
func (ldb *LinkDB) IsProcessed(ctx context.Context, url string) (bool, error) {
	var count int
	err := ldb.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM link_results WHERE url = ?", url).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check processed url: %w", err)
	}
	return count > 0, nil
}

// SaveResult inserts or replaces the result record for a URL.
// Uses UPSERT so a re-probe of a known URL replaces the stale record.
func (ldb *LinkDB) SaveResult(ctx context.Context, result *model.LinkResult) error {
	if !result.Status.Valid() {
		return fmt.Errorf("invalid link status %q for url %s", result.Status, result.URL)
	}

	query := `
	INSERT INTO link_results (url, hosting, status, file_path, file_size, image_age_days, capture_time, error_message)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		hosting = excluded.hosting,
		status = excluded.status,
		file_path = excluded.file_path,
		file_size = excluded.file_size,
		image_age_days = excluded.image_age_days,
		capture_time = excluded.capture_time,
		error_message = excluded.error_message,
		processed_at = CURRENT_TIMESTAMP
	`

	_, err := ldb.db.ExecContext(ctx, query,
		result.URL,
		result.Hosting,
		string(result.Status),
		result.FilePath,
		result.FileSize,
		result.ImageAgeDays,
		result.CaptureTime,
		result.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save link result: %w", err)
	}

	return nil
}

// GetResult retrieves the stored record for a URL, or nil if none exists.
func (ldb *LinkDB) GetResult(ctx context.Context, url string) (*model.LinkResult, error) {
	query := `
	SELECT url, hosting, status, file_path, file_size, image_age_days, capture_time, error_message, processed_at
	FROM link_results
	WHERE url = ?
	`

	result, err := scanResult(ldb.db.QueryRowContext(ctx, query, url))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link result: %w", err)
	}
	return result, nil
}

// RecentResults returns the most recent records, newest first.
// A non-positive limit returns an empty slice.
func (ldb *LinkDB) RecentResults(ctx context.Context, limit int) ([]model.LinkResult, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
	SELECT url, hosting, status, file_path, file_size, image_age_days, capture_time, error_message, processed_at
	FROM link_results
	ORDER BY processed_at DESC, id DESC
	LIMIT ?
	`

	rows, err := ldb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent results: %w", err)
	}
	defer rows.Close()

	var results []model.LinkResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link result: %w", err)
		}
		results = append(results, *result)
	}

	return results, rows.Err()
}

// Statistics returns per-hosting counts broken down by status.
func (ldb *LinkDB) Statistics(ctx context.Context) (map[string]model.HostingStats, error) {
	query := `
	SELECT hosting, status, COUNT(*)
	FROM link_results
	GROUP BY hosting, status
	`

	rows, err := ldb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]model.HostingStats)
	for rows.Next() {
		var hosting, status string
		var count int
		if err := rows.Scan(&hosting, &status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan statistics row: %w", err)
		}

		s := stats[hosting]
		s.Total += count
		switch model.LinkStatus(status) {
		case model.StatusDownloaded:
			s.Downloaded += count
		case model.StatusSkipped:
			s.Skipped += count
		case model.StatusEmpty:
			s.Empty += count
		case model.StatusError:
			s.Errors += count
		}
		stats[hosting] = s
	}

	return stats, rows.Err()
}

// Cleanup deletes records older than the given number of days and
// returns how many rows were removed.
func (ldb *LinkDB) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		return 0, fmt.Errorf("cleanup age must be positive, got %d", olderThanDays)
	}

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d days", olderThanDays)

	result, err := ldb.db.ExecContext(ctx,
		"DELETE FROM link_results WHERE processed_at < datetime('now', ?)", modifier)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old results: %w", err)
	}

	return result.RowsAffected()
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanResult.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanResult reads one link_results row into a model.LinkResult.
func scanResult(row rowScanner) (*model.LinkResult, error) {
	var result model.LinkResult
	var status string
	var filePath, captureTime, errorMessage sql.NullString
	var processedAt string

	err := row.Scan(
		&result.URL,
		&result.Hosting,
		&status,
		&filePath,
		&result.FileSize,
		&result.ImageAgeDays,
		&captureTime,
		&errorMessage,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}

	result.Status = model.LinkStatus(status)
	result.FilePath = filePath.String
	result.CaptureTime = captureTime.String
	result.ErrorMessage = errorMessage.String
	result.ProcessedAt = parseTimestamp(processedAt)

	return &result, nil
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
