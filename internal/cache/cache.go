// Package cache keeps recently fetched registry version lists in a small
// SQLite database inside the working directory.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql
)

// FileName is the database file created inside the working directory.
const FileName = "state.db"

// DB wraps a *sql.DB with the path it was opened from.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the SQLite database at path and initialises the
// schema. The parent directory is created if needed.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cache.Open: %w", err)
	}
	sqldb, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=2000")
	if err != nil {
		return nil, fmt.Errorf("cache.Open: %w", err)
	}
	d := &DB{db: sqldb, path: path}
	if err := d.createSchema(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("cache.Open createSchema: %w", err)
	}
	return d, nil
}

// Path returns the file the database was opened from.
func (d *DB) Path() string { return d.path }

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

func (d *DB) createSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS registry_versions (
			package    TEXT PRIMARY KEY,
			versions   TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := d.db.Exec(s); err != nil {
			return fmt.Errorf("createSchema exec: %w\nSQL: %s", err, s)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Registry versions
// ---------------------------------------------------------------------------

// Entry is one cached version list.
type Entry struct {
	Package   string
	Versions  []string
	FetchedAt time.Time
}

// Get returns the cached entry for pkg. ok is false when nothing is cached.
func (d *DB) Get(pkg string) (entry Entry, ok bool, err error) {
	var versions, fetchedAt string
	err = d.db.QueryRow(
		`SELECT versions, fetched_at FROM registry_versions WHERE package = ?`, pkg,
	).Scan(&versions, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache.Get: %w", err)
	}

	entry.Package = pkg
	if err := json.Unmarshal([]byte(versions), &entry.Versions); err != nil {
		return Entry{}, false, fmt.Errorf("cache.Get decode versions: %w", err)
	}
	entry.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache.Get decode fetched_at: %w", err)
	}
	return entry, true, nil
}

// Put stores versions for pkg, replacing any earlier entry.
func (d *DB) Put(pkg string, versions []string, fetchedAt time.Time) error {
	if versions == nil {
		versions = []string{}
	}
	b, err := json.Marshal(versions)
	if err != nil {
		return fmt.Errorf("cache.Put: %w", err)
	}
	_, err = d.db.Exec(
		`INSERT INTO registry_versions (package, versions, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(package) DO UPDATE SET versions = excluded.versions, fetched_at = excluded.fetched_at`,
		pkg, string(b), fetchedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("cache.Put: %w", err)
	}
	return nil
}
