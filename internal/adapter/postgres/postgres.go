// Package postgres implements the remote document store adapters.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps a *sql.DB and implements the remote repository interfaces.
type DB struct {
	sql *sql.DB
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS profiles (user_id TEXT PRIMARY KEY, username TEXT NOT NULL DEFAULT '', username_lower TEXT NOT NULL DEFAULT '', daily_goal INTEGER NOT NULL CHECK(daily_goal > 0), skin_tone TEXT NOT NULL DEFAULT 'default', unlocked_achievement_ids TEXT[] NOT NULL DEFAULT '{}', unlocked_item_ids TEXT[] NOT NULL DEFAULT '{}', equipped_item_ids TEXT[] NOT NULL DEFAULT '{}', created_at TIMESTAMPTZ NOT NULL, updated_at TIMESTAMPTZ NOT NULL);",
		"CREATE TABLE IF NOT EXISTS usernames (username_lower TEXT PRIMARY KEY, user_id TEXT NOT NULL, username TEXT NOT NULL, created_at TIMESTAMPTZ NOT NULL, updated_at TIMESTAMPTZ NOT NULL);",
		"CREATE TABLE IF NOT EXISTS scores (user_id TEXT PRIMARY KEY, best_daily_steps INTEGER NOT NULL CHECK(best_daily_steps >= 0), created_at TIMESTAMPTZ NOT NULL, updated_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_scores_best ON scores(best_daily_steps DESC);",
		"CREATE TABLE IF NOT EXISTS daily_steps (user_id TEXT NOT NULL, day TEXT NOT NULL, steps INTEGER NOT NULL CHECK(steps >= 0), goal INTEGER NOT NULL CHECK(goal > 0), goal_reached BOOLEAN NOT NULL DEFAULT FALSE, updated_at TIMESTAMPTZ NOT NULL, PRIMARY KEY(user_id, day));",
		"CREATE TABLE IF NOT EXISTS achievements (id TEXT PRIMARY KEY, title TEXT NOT NULL, steps_required INTEGER NOT NULL CHECK(steps_required > 0), unlock_item_ids TEXT[] NOT NULL DEFAULT '{}', ord INTEGER NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_achievements_steps ON achievements(steps_required);",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
