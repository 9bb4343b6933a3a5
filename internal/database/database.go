// Package database owns the embedded SQLite instance backing daybar.
// One durable instance exists per process: Open memoizes the in-flight
// initialization so concurrent callers during cold start converge on a
// single handle and a single schema pass.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/daybar-app/daybar/internal/models"
	_ "modernc.org/sqlite"
)

// Schema creation is guarded so repeated startups are no-ops. Column
// defaults carry the seeded day configuration (enabled, 06:00-22:00).
const schema = `
CREATE TABLE IF NOT EXISTS day_config (
	day_of_week      TEXT PRIMARY KEY,
	enabled          INTEGER NOT NULL DEFAULT 1,
	start_hour       INTEGER NOT NULL DEFAULT 6,
	start_minute     INTEGER NOT NULL DEFAULT 0,
	end_hour         INTEGER NOT NULL DEFAULT 22,
	end_minute       INTEGER NOT NULL DEFAULT 0,
	use_custom_range INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS busy_periods (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	day_of_week     TEXT NOT NULL REFERENCES day_config(day_of_week) ON DELETE CASCADE,
	title           TEXT,
	start_hour      INTEGER,
	start_minute    INTEGER,
	end_hour        INTEGER,
	end_minute      INTEGER,
	duration_hour   INTEGER,
	duration_minute INTEGER,
	floating        INTEGER DEFAULT 0,
	color           TEXT,
	sort_order      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS completions (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	date               TEXT NOT NULL,
	period_index       INTEGER NOT NULL,
	completed_at_hour  INTEGER NOT NULL,
	completed_at_minute INTEGER NOT NULL,
	UNIQUE(date, period_index)
);

CREATE TABLE IF NOT EXISTS migrations (
	id           TEXT PRIMARY KEY,
	completed_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);
`

// DB is a handle to the embedded database.
type DB struct {
	sql  *sql.DB
	path string
}

type initTask struct {
	done chan struct{}
	db   *DB
	err  error
}

var (
	mu      sync.Mutex
	current *initTask
)

// Open returns the process-wide database handle, initializing it on
// first call. Concurrent callers during cold start wait on the same
// initialization outcome; exactly one instance is created and the
// schema is applied exactly once. A failed initialization re-arms the
// memo so a later Open can retry.
func Open(path string) (*DB, error) {
	mu.Lock()
	task := current
	if task == nil {
		task = &initTask{done: make(chan struct{})}
		current = task
		go func() {
			task.db, task.err = open(path)
			if task.err != nil {
				mu.Lock()
				if current == task {
					current = nil
				}
				mu.Unlock()
			}
			close(task.done)
		}()
	}
	mu.Unlock()

	<-task.done
	return task.db, task.err
}

// OpenMemory creates an isolated in-memory instance for testing. It
// bypasses the process-wide memo.
func OpenMemory() (*DB, error) {
	return open(":memory:")
}

func open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	d := &DB{sql: db, path: path}
	if err := d.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return d, nil
}

func (d *DB) initSchema() error {
	if _, err := d.sql.Exec(schema); err != nil {
		return err
	}

	// Seed the 7 day rows. Insert-if-absent keyed by day name, so
	// reseeding on a later startup never overwrites user edits.
	for _, day := range models.Days {
		if _, err := d.sql.Exec(
			`INSERT OR IGNORE INTO day_config (day_of_week) VALUES (?)`, string(day),
		); err != nil {
			return fmt.Errorf("seed day %s: %w", day, err)
		}
	}
	return nil
}

// Exec runs a statement.
func (d *DB) Exec(query string, args ...any) (sql.Result, error) {
	return d.sql.Exec(query, args...)
}

// Query runs a parameterized read.
func (d *DB) Query(query string, args ...any) (*sql.Rows, error) {
	return d.sql.Query(query, args...)
}

// QueryRow runs a parameterized single-row read.
func (d *DB) QueryRow(query string, args ...any) *sql.Row {
	return d.sql.QueryRow(query, args...)
}

// Begin starts a transaction.
func (d *DB) Begin() (*sql.Tx, error) {
	return d.sql.Begin()
}

// Path returns the storage location of this instance.
func (d *DB) Path() string {
	return d.path
}

// Close tears the handle down. If it is the process-wide instance the
// memoized initialization is re-armed so a later Open starts fresh.
func (d *DB) Close() error {
	mu.Lock()
	if current != nil && current.db == d {
		current = nil
	}
	mu.Unlock()
	return d.sql.Close()
}

// DefaultPath returns ~/.config/daybar/daybar.db.
func DefaultPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "daybar", "daybar.db"), nil
}
