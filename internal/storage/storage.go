// Package storage persists engine state as a string-keyed JSON document store
// backed by SQLite. Per-day entities use a date-suffixed key; singletons use a
// bare key. Missing and malformed rows are both reported as absent so callers
// always fall back to their defaults.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store is a synchronous key-value document store over SQLite.
type Store struct {
	db      *sql.DB
	profile string
}

// Open creates a Store on the SQLite database at dsn. The profile namespaces
// every key (an empty profile uses keys as-is), so dev and real data can share
// a file without colliding. It applies recommended pragmas and creates the
// schema if needed.
func Open(dsn, profile string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, profile: profile}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get unmarshals the value stored under key into out. It returns false when
// the key is absent. A row whose value no longer parses as JSON is treated the
// same as an absent row: the engine degrades to "nothing was ever saved"
// rather than failing every subsequent read.
func (s *Store) Get(key string, out any) (bool, error) {
	var raw []byte
	query, args, err := sq.Select("value").
		From("kv").
		Where(sq.Eq{"key": s.namespaced(key)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build get %s: %w", key, err)
	}

	err = s.db.QueryRow(query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return false, nil
	}
	return true, nil
}

// Put stores val under key, replacing any existing value.
func (s *Store) Put(key string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	query, args, err := sq.Insert("kv").
		Columns("key", "value", "updated_at").
		Values(s.namespaced(key), raw, time.Now().UTC()).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build put %s: %w", key, err)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Delete removes the value stored under key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	query, args, err := sq.Delete("kv").
		Where(sq.Eq{"key": s.namespaced(key)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s: %w", key, err)
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// DeleteAll removes every key in this Store's profile, leaving other profiles
// in the same file untouched. Used by the reset command.
func (s *Store) DeleteAll() error {
	builder := sq.Delete("kv")
	if s.profile != "" {
		builder = builder.Where(sq.Like{"key": s.profile + ":%"})
	} else {
		// Default-profile keys carry no namespace prefix.
		builder = builder.Where(sq.Expr("instr(key, ':') = 0"))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build delete all: %w", err)
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("delete all: %w", err)
	}
	return nil
}

func (s *Store) namespaced(key string) string {
	if s.profile == "" {
		return key
	}
	return s.profile + ":" + key
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`)
	return err
}

// DefaultDBPath resolves the database file path in priority order:
// 1. MATHTREK_DB environment variable
// 2. $XDG_DATA_HOME/mathtrek/mathtrek.db
// 3. ~/.local/share/mathtrek/mathtrek.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("MATHTREK_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "mathtrek", "mathtrek.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
