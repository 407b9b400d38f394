package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// TimestampLayout is the textual form of every Timestamp value, both on
// insert and in retention cut-off comparisons. No fractional seconds, no
// zone suffix; rows compare correctly as strings only because both sides
// use this exact layout.
const TimestampLayout = "2006-01-02T15:04:05"

const (
	pageSize       = 4096
	cacheSizePages = 500
	bytesPerMB     = 1 << 20
)

// identPattern constrains table names to plain SQL identifiers. The name
// is interpolated into DDL and DML, so anything else is rejected at
// construction.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options configures a Store.
type Options struct {
	// Path is the database file location. Relative paths are resolved
	// against the working directory; parent directories are created.
	Path string

	// Table is the log table name.
	Table string

	// UTC converts timestamps to UTC before formatting. Applies to both
	// inserted rows and retention cut-offs.
	UTC bool

	// MaxSizeMB caps the database file size. The cap is enforced by the
	// engine through max_page_count, surfacing as SQLITE_FULL.
	MaxSizeMB int64
}

// Store is the single-connection handle to the sink's database file.
type Store struct {
	db    *sql.DB
	path  string
	table string
	utc   bool
}

// Open creates or opens the database at opts.Path, applies the
// connection pragmas and bootstraps the log table. Idempotent: opening
// an existing sink database is a no-op beyond configuration.
func Open(opts Options) (*Store, error) {
	if !identPattern.MatchString(opts.Table) {
		return nil, fmt.Errorf("invalid table name %q", opts.Table)
	}
	if opts.MaxSizeMB <= 0 {
		return nil, fmt.Errorf("max database size must be positive, got %d MB", opts.MaxSizeMB)
	}

	path, err := filepath.Abs(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One writer owns the file; a second connection would only produce
	// SQLITE_BUSY against the in-memory journal.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, opts.MaxSizeMB); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	s := &Store{db: db, path: path, table: opts.Table, utc: opts.UTC}
	if err := s.bootstrap(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	return s, nil
}

// applyPragmas sets the connection configuration: throughput-oriented
// journaling, balanced durability, and the size cap in pages.
func applyPragmas(db *sql.DB, maxSizeMB int64) error {
	maxPages := maxSizeMB * bytesPerMB / pageSize

	pragmas := []string{
		"PRAGMA journal_mode = MEMORY",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA page_size = %d", pageSize),
		fmt.Sprintf("PRAGMA cache_size = %d", cacheSizePages),
		fmt.Sprintf("PRAGMA max_page_count = %d", maxPages),
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// bootstrap creates the log table if it does not exist. A pre-existing
// table with a compatible column superset is accepted as-is.
func (s *Store) bootstrap() error {
	if _, err := s.db.Exec(fmt.Sprintf(schemaSQL, s.table)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the absolute database file path.
func (s *Store) Path() string {
	return s.path
}

// Table returns the log table name.
func (s *Store) Table() string {
	return s.table
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - intended for tests and diagnostics.
func (s *Store) DB() *sql.DB {
	return s.db
}

// FormatTimestamp renders an instant in the stored textual form,
// converting to UTC first when the store is configured for it.
func (s *Store) FormatTimestamp(t time.Time) string {
	if s.utc {
		t = t.UTC()
	}
	return t.Format(TimestampLayout)
}
