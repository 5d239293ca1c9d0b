// Package journal persists supervised run history in SQLite.
//
// Only the launcher writes here, between child spawns, so a single
// connection with WAL mode is plenty. The supervised child never touches
// the journal.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrNotInitialized reports a journal whose schema was never created.
var ErrNotInitialized = errors.New(`journal not initialized: launch once with "respawn run --journal"`)

// Store provides SQLite database operations for run history.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the journal database at dbPath, creating parent
// directories as needed. Use ":memory:" for in-memory databases (useful
// for testing).
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// Set connection pool defaults
	db.SetMaxOpenConns(1) // SQLite only allows one writer at a time
	db.SetMaxIdleConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateSchema creates all tables and indexes.
func (s *Store) CreateSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// DefaultPath returns the journal location under the user's home
// directory (~/.respawn/journal.db).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".respawn", "journal.db"), nil
}

// mapErr turns the raw missing-table failure into ErrNotInitialized so
// callers can point the user at the fix.
func mapErr(err error) error {
	if err != nil && strings.Contains(err.Error(), "no such table") {
		return ErrNotInitialized
	}
	return err
}
