// Package store is the lightweight key-value preference store backing panel
// history and query history. Values are opaque strings; callers encode records.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/justyntemme/duonav/internal/debug"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrClosed is returned when the store is used before Open or after Close.
var ErrClosed = errors.New("store: database not open")

type DB struct {
	mu   sync.Mutex
	conn *sql.DB
}

func NewDB() *DB {
	return &DB{}
}

// Open initializes the database connection and schema
func (d *DB) Open(dbPath string) error {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	// A single connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)

	// WAL mode allows simultaneous readers and writers
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return err
	}
	// Synchronous NORMAL is safe against app crashes, faster than FULL
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return err
	}

	query := `
	CREATE TABLE IF NOT EXISTS prefs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return err
	}

	d.mu.Lock()
	d.conn = db
	d.mu.Unlock()
	debug.Log(debug.STORE, "opened %s", dbPath)
	return nil
}

// Value returns the stored value for key. ok is false when the key is absent.
func (d *DB) Value(key string) (value string, ok bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return "", false, ErrClosed
	}

	err = d.conn.QueryRow("SELECT value FROM prefs WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: read %q: %w", key, err)
	}
	return value, true, nil
}

// SetValue upserts key.
func (d *DB) SetValue(key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return ErrClosed
	}

	_, err := d.conn.Exec(
		"INSERT OR REPLACE INTO prefs (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
		key, value)
	if err != nil {
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	debug.Log(debug.STORE, "set %s (%d bytes)", key, len(value))
	return nil
}

// Delete removes key. Missing keys are not an error.
func (d *DB) Delete(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return ErrClosed
	}

	if _, err := d.conn.Exec("DELETE FROM prefs WHERE key = ?", key); err != nil {
		return fmt.Errorf("store: delete %q: %w", key, err)
	}
	return nil
}

// Keys lists stored keys with the given prefix, sorted.
func (d *DB) Keys(prefix string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil, ErrClosed
	}

	// instr matches whole characters, so multi-byte prefixes compare correctly
	query, args := "SELECT key FROM prefs ORDER BY key ASC", []any{}
	if prefix != "" {
		query, args = "SELECT key FROM prefs WHERE instr(key, ?) = 1 ORDER BY key ASC", []any{prefix}
	}
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err == nil {
			keys = append(keys, k)
		}
	}
	return keys, rows.Err()
}

func (d *DB) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}
