// Package sqlite implements the device-local state store: the authoritative
// day counter, sync throttle bookkeeping and the stored session.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"stepquest/internal/domain"
)

// Store implements domain.StateStore on a local SQLite file.
type Store struct {
	db *sql.DB
}

var _ domain.StateStore = (*Store)(nil)

// Open opens (creating if needed) the state database at path. WAL mode and
// a busy timeout avoid "database is locked" errors when the foreground
// process and a background pass touch the file concurrently.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		// Single-row table: day key and steps always written together, so a
		// crash can never leave one field from yesterday and one from today.
		"CREATE TABLE IF NOT EXISTS counter (id INTEGER PRIMARY KEY CHECK(id = 1), day_key TEXT NOT NULL, steps INTEGER NOT NULL CHECK(steps >= 0));",
		"CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL);",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// LoadCounter returns the persisted counter, or ok=false if none exists yet.
func (s *Store) LoadCounter(ctx context.Context) (domain.CounterState, bool, error) {
	var state domain.CounterState
	err := s.db.QueryRowContext(ctx,
		"SELECT day_key, steps FROM counter WHERE id = 1;").Scan(&state.DayKey, &state.Steps)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CounterState{}, false, nil
	}
	if err != nil {
		return domain.CounterState{}, false, err
	}
	return state, true, nil
}

// SaveCounter persists day key and steps in one atomic upsert.
func (s *Store) SaveCounter(ctx context.Context, state domain.CounterState) error {
	if state.Steps < 0 {
		return fmt.Errorf("negative step count %d", state.Steps)
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO counter(id, day_key, steps) VALUES(1, ?, ?) ON CONFLICT(id) DO UPDATE SET day_key = excluded.day_key, steps = excluded.steps;",
		state.DayKey, state.Steps)
	return err
}

// Get returns the value for key, or ok=false when absent.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?;", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value;",
		key, value)
	return err
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?;", key)
	return err
}
