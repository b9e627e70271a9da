package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"stepquest/internal/domain"
)

// EnsureScore creates the score document with bestDailySteps=0 if missing.
func (d *DB) EnsureScore(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO scores(user_id, best_daily_steps, created_at, updated_at) VALUES($1, 0, $2, $2) ON CONFLICT(user_id) DO NOTHING;",
		userID, now)
	return err
}

// RaiseBestScore raises best_daily_steps to steps only if steps beats the
// stored value. The compare and the write happen in one statement, so two
// concurrent callers cannot race each other into a lower final value.
func (d *DB) RaiseBestScore(ctx context.Context, userID string, steps int) (bool, int, error) {
	now := time.Now().UTC()
	var best int
	err := d.sql.QueryRowContext(ctx,
		`INSERT INTO scores(user_id, best_daily_steps, created_at, updated_at)
		 VALUES($1, $2, $3, $3)
		 ON CONFLICT(user_id) DO UPDATE SET
		   best_daily_steps = excluded.best_daily_steps,
		   updated_at = excluded.updated_at
		 WHERE scores.best_daily_steps < excluded.best_daily_steps
		 RETURNING best_daily_steps;`,
		userID, steps, now,
	).Scan(&best)
	if errors.Is(err, sql.ErrNoRows) {
		// Conditional update did not fire: stored best is >= steps.
		stored, err := d.BestScore(ctx, userID)
		return false, stored, err
	}
	if err != nil {
		return false, 0, err
	}
	return true, best, nil
}

// BestScore returns the stored best, or 0 when no document exists.
func (d *DB) BestScore(ctx context.Context, userID string) (int, error) {
	var best int
	err := d.sql.QueryRowContext(ctx,
		"SELECT best_daily_steps FROM scores WHERE user_id=$1;", userID).Scan(&best)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return best, err
}

// TopScores returns the top n best scores, descending.
func (d *DB) TopScores(ctx context.Context, n int) ([]domain.ScoreEntry, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT user_id, best_daily_steps FROM scores ORDER BY best_daily_steps DESC LIMIT $1;", n)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.ScoreEntry, 0, n)
	for rows.Next() {
		var e domain.ScoreEntry
		if err := rows.Scan(&e.UserID, &e.BestDailySteps); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
