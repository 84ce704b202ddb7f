package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/leakwatch/internal/model"
)

// LeakDB provides SQLite-based storage for snapshots and leak entries.
// Both live in a single database file so the operator can back up one
// path and the registry can read both tables in one connection.
type LeakDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures LeakDB behavior.
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

// Open opens or creates a LeakDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*LeakDB, error) {
	dbPath := filepath.Join(dbDir, "leakwatch.db")

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

	// SQLite only supports one writer; multiple connections don't help.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ldb := &LeakDB{
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
func (ldb *LeakDB) Close() error {
	return ldb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (ldb *LeakDB) createTables() error {
	schema := `
	-- Snapshots hold the latest result set per query. Only the most
	-- recent snapshot is retained; history lives in leak_entries.
	CREATE TABLE IF NOT EXISTS snapshots (
		query_key TEXT PRIMARY KEY,
		captured_at TEXT NOT NULL,
		results_json TEXT NOT NULL
	);

	-- Leak entries are the durable registry: one row per distinct result
	-- identity ever observed for a tracked entity. Rows are never deleted.
	CREATE TABLE IF NOT EXISTS leak_entries (
		id TEXT PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity TEXT NOT NULL,
		identity TEXT NOT NULL,
		status TEXT NOT NULL,
		found_at TEXT NOT NULL,
		last_seen_at TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		details_json TEXT,
		UNIQUE(entity_type, entity, identity)
	);

	CREATE INDEX IF NOT EXISTS idx_leak_entries_entity ON leak_entries(entity_type, entity);
	CREATE INDEX IF NOT EXISTS idx_leak_entries_status ON leak_entries(status);
	`

	_, err := ldb.db.ExecContext(context.Background(), schema)
	return err
}

// GetSnapshot retrieves the latest snapshot for a query key.
// Returns (nil, nil) when no snapshot has been stored yet, which callers
// treat as the first run for the query.
func (ldb *LeakDB) GetSnapshot(ctx context.Context, queryKey string) (*model.Snapshot, error) {
	query := `
	SELECT captured_at, results_json FROM snapshots
	WHERE query_key = ?
	`

	var capturedAt, resultsJSON string
	err := ldb.db.QueryRowContext(ctx, query, queryKey).Scan(&capturedAt, &resultsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var results []model.RawResult
	if err := json.Unmarshal([]byte(resultsJSON), &results); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot results: %w", err)
	}

	return model.NewSnapshot(queryKey, parseTimestamp(capturedAt), results), nil
}

// PutSnapshot stores a snapshot, replacing any previous one for the query.
// Callers must only invoke this after the diff against the previous
// snapshot has been computed and applied: a crash between diff and commit
// must not lose the ability to detect the same transition on retry.
func (ldb *LeakDB) PutSnapshot(ctx context.Context, snapshot *model.Snapshot) error {
	resultsJSON, err := json.Marshal(snapshot.ResultList())
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot results: %w", err)
	}

	query := `
	INSERT INTO snapshots (query_key, captured_at, results_json)
	VALUES (?, ?, ?)
	ON CONFLICT(query_key) DO UPDATE SET
		captured_at = excluded.captured_at,
		results_json = excluded.results_json
	`

	_, err = ldb.db.ExecContext(ctx, query,
		snapshot.QueryKey,
		snapshot.CapturedAt.UTC().Format(time.RFC3339Nano),
		string(resultsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to put snapshot: %w", err)
	}
	return nil
}

// GetLeakEntries retrieves all leak entries for one tracked entity,
// keyed by result identity. The map includes deleted entries so callers
// can detect resurrection.
func (ldb *LeakDB) GetLeakEntries(ctx context.Context, entityType model.QueryType, entity string) (map[string]*model.LeakEntry, error) {
	query := `
	SELECT id, entity_type, entity, identity, status, found_at, last_seen_at, summary, details_json
	FROM leak_entries
	WHERE entity_type = ? AND entity = ?
	`

	rows, err := ldb.db.QueryContext(ctx, query, string(entityType), entity)
	if err != nil {
		return nil, fmt.Errorf("failed to query leak entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]*model.LeakEntry)
	for rows.Next() {
		entry, err := scanLeakEntry(rows)
		if err != nil {
			return nil, err
		}
		entries[entry.Identity] = entry
	}
	return entries, rows.Err()
}

// UpsertLeakEntries writes the given entries in a single transaction.
// Rows are matched by (entity_type, entity, identity); the stored ID is
// preserved on update so an entry keeps its identifier across status
// transitions. An empty slice is a no-op.
func (ldb *LeakDB) UpsertLeakEntries(ctx context.Context, entries []*model.LeakEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := ldb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	query := `
	INSERT INTO leak_entries (id, entity_type, entity, identity, status, found_at, last_seen_at, summary, details_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(entity_type, entity, identity) DO UPDATE SET
		status = excluded.status,
		found_at = excluded.found_at,
		last_seen_at = excluded.last_seen_at,
		summary = excluded.summary,
		details_json = excluded.details_json
	`

	for _, entry := range entries {
		detailsJSON, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to serialize entry details: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query,
			entry.ID,
			string(entry.EntityType),
			entry.Entity,
			entry.Identity,
			string(entry.Status),
			entry.FoundAt.UTC().Format(time.RFC3339Nano),
			entry.LastSeenAt.UTC().Format(time.RFC3339Nano),
			entry.Summary,
			string(detailsJSON),
		); err != nil {
			return fmt.Errorf("failed to upsert leak entry %s: %w", entry.Identity, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit leak entries: %w", err)
	}
	return nil
}

// ListLeakEntries retrieves leak entries, optionally restricted to one
// status, ordered by found_at descending then identity. Free-text
// filtering happens in the registry so the match contract stays in one
// place (model.LeakEntry.MatchesFilter).
func (ldb *LeakDB) ListLeakEntries(ctx context.Context, status model.LeakStatus) ([]*model.LeakEntry, error) {
	query := `
	SELECT id, entity_type, entity, identity, status, found_at, last_seen_at, summary, details_json
	FROM leak_entries
	`
	args := make([]any, 0, 1)
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY found_at DESC, identity ASC"

	rows, err := ldb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leak entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.LeakEntry
	for rows.Next() {
		entry, err := scanLeakEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CountLeakEntriesByStatus returns the number of entries per status.
func (ldb *LeakDB) CountLeakEntriesByStatus(ctx context.Context) (map[model.LeakStatus]int, error) {
	query := `
	SELECT status, COUNT(*) FROM leak_entries GROUP BY status
	`

	rows, err := ldb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count leak entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.LeakStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[model.LeakStatus(status)] = count
	}
	return counts, rows.Err()
}

// scanLeakEntry reads one leak entry row from a result set.
func scanLeakEntry(rows *sql.Rows) (*model.LeakEntry, error) {
	var entry model.LeakEntry
	var entityType, status, foundAt, lastSeenAt string
	var detailsJSON sql.NullString

	if err := rows.Scan(
		&entry.ID,
		&entityType,
		&entry.Entity,
		&entry.Identity,
		&status,
		&foundAt,
		&lastSeenAt,
		&entry.Summary,
		&detailsJSON,
	); err != nil {
		return nil, fmt.Errorf("failed to scan leak entry: %w", err)
	}

	entry.EntityType = model.QueryType(entityType)
	entry.Status = model.LeakStatus(status)
	entry.FoundAt = parseTimestamp(foundAt)
	entry.LastSeenAt = parseTimestamp(lastSeenAt)

	if detailsJSON.Valid && detailsJSON.String != "" {
		if err := json.Unmarshal([]byte(detailsJSON.String), &entry.Details); err != nil {
			return nil, fmt.Errorf("failed to parse entry details: %w", err)
		}
	}
	return &entry, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
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
