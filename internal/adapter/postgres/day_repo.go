package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stepquest/internal/domain"
)

// UpsertDaySteps merges the day record inside one transaction: it reads the
// previous goal_reached under lock, keeps steps from regressing, and latches
// goal_reached so a later lower-steps write can never flip it back.
func (d *DB) UpsertDaySteps(ctx context.Context, userID, day string, steps, goal int) (domain.DayUpsertResult, error) {
	var res domain.DayUpsertResult

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback() }()

	var prevSteps int
	var prevReached bool
	exists := true
	err = tx.QueryRowContext(ctx,
		"SELECT steps, goal_reached FROM daily_steps WHERE user_id=$1 AND day=$2 FOR UPDATE;",
		userID, day,
	).Scan(&prevSteps, &prevReached)
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return res, err
	}

	if exists && prevSteps > steps {
		steps = prevSteps
	}
	nextReached := prevReached || steps >= goal

	if exists {
		_, err = tx.ExecContext(ctx,
			"UPDATE daily_steps SET steps=$3, goal=$4, goal_reached=$5, updated_at=$6 WHERE user_id=$1 AND day=$2;",
			userID, day, steps, goal, nextReached, time.Now().UTC(),
		)
	} else {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO daily_steps(user_id, day, steps, goal, goal_reached, updated_at) VALUES($1, $2, $3, $4, $5, $6);",
			userID, day, steps, goal, nextReached, time.Now().UTC(),
		)
	}
	if err != nil {
		return res, err
	}

	if err := tx.Commit(); err != nil {
		return res, err
	}
	return domain.DayUpsertResult{
		GoalReached:     nextReached,
		GoalJustReached: !prevReached && nextReached,
	}, nil
}

// RefreshDayGoal rewrites the goal snapshot for an existing record and
// re-derives goal_reached from the stored steps. The reached flag stays
// latched; a record that already reached an earlier goal keeps it.
func (d *DB) RefreshDayGoal(ctx context.Context, userID, day string, goal int) error {
	_, err := d.sql.ExecContext(ctx,
		"UPDATE daily_steps SET goal=$3, goal_reached = goal_reached OR steps >= $3, updated_at=$4 WHERE user_id=$1 AND day=$2;",
		userID, day, goal, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("refresh day goal: %w", err)
	}
	return nil
}

// ListRecentDays returns up to limit day records ordered by day descending.
func (d *DB) ListRecentDays(ctx context.Context, userID string, limit int) ([]domain.DayRecord, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT day, steps, goal, goal_reached, updated_at FROM daily_steps WHERE user_id=$1 ORDER BY day DESC LIMIT $2;",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.DayRecord, 0, limit)
	for rows.Next() {
		var r domain.DayRecord
		if err := rows.Scan(&r.Day, &r.Steps, &r.Goal, &r.GoalReached, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
