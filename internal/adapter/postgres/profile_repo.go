package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"stepquest/internal/domain"
)

// EnsureProfile creates the profile with defaults if missing. Create-only:
// an existing profile is never rewritten.
func (d *DB) EnsureProfile(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO profiles(user_id, daily_goal, created_at, updated_at) VALUES($1, $2, $3, $3) ON CONFLICT(user_id) DO NOTHING;",
		userID, domain.DefaultDailyGoal, now)
	return err
}

// Profile returns the user's profile document.
func (d *DB) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	var p domain.Profile
	var achievementIDs, itemIDs, equipped pq.StringArray
	err := d.sql.QueryRowContext(ctx,
		"SELECT user_id, username, daily_goal, skin_tone, unlocked_achievement_ids, unlocked_item_ids, equipped_item_ids, created_at, updated_at FROM profiles WHERE user_id=$1;",
		userID,
	).Scan(&p.UserID, &p.Username, &p.DailyGoal, &p.SkinTone, &achievementIDs, &itemIDs, &equipped, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	p.UnlockedAchievementIDs = achievementIDs
	p.UnlockedItemIDs = itemIDs
	p.EquippedItemIDs = equipped
	return &p, nil
}

// DailyGoal returns the user's goal, defaulting when the profile is missing.
func (d *DB) DailyGoal(ctx context.Context, userID string) (int, error) {
	var goal int
	err := d.sql.QueryRowContext(ctx,
		"SELECT daily_goal FROM profiles WHERE user_id=$1;", userID).Scan(&goal)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultDailyGoal, nil
	}
	if err != nil {
		return 0, err
	}
	return goal, nil
}

// SetDailyGoal stores a new goal on the profile.
func (d *DB) SetDailyGoal(ctx context.Context, userID string, goal int) error {
	_, err := d.sql.ExecContext(ctx,
		"UPDATE profiles SET daily_goal=$2, updated_at=$3 WHERE user_id=$1;",
		userID, goal, time.Now().UTC())
	return err
}

// SetUsername reserves the lowercase form in the registry and stores the
// display form on the profile, in one transaction.
func (d *DB) SetUsername(ctx context.Context, userID, username string) error {
	lower := strings.ToLower(username)
	now := time.Now().UTC()

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var holder string
	err = tx.QueryRowContext(ctx,
		"SELECT user_id FROM usernames WHERE username_lower=$1 FOR UPDATE;", lower).Scan(&holder)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			"INSERT INTO usernames(username_lower, user_id, username, created_at, updated_at) VALUES($1, $2, $3, $4, $4);",
			lower, userID, username, now)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	case holder != userID:
		return domain.ErrUsernameTaken
	default:
		_, err = tx.ExecContext(ctx,
			"UPDATE usernames SET username=$2, updated_at=$3 WHERE username_lower=$1;",
			lower, username, now)
		if err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE profiles SET username=$2, username_lower=$3, updated_at=$4 WHERE user_id=$1;",
		userID, username, lower, now)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("set username: %w", domain.ErrProfileNotFound)
	}

	return tx.Commit()
}

// UnlockAchievements unions the given ids into the profile's unlocked sets.
func (d *DB) UnlockAchievements(ctx context.Context, userID string, achievementIDs, itemIDs []string) error {
	if len(achievementIDs) == 0 && len(itemIDs) == 0 {
		return nil
	}
	_, err := d.sql.ExecContext(ctx,
		`UPDATE profiles SET
		   unlocked_achievement_ids = (SELECT ARRAY(SELECT DISTINCT unnest(unlocked_achievement_ids || $2::TEXT[]))),
		   unlocked_item_ids = (SELECT ARRAY(SELECT DISTINCT unnest(unlocked_item_ids || $3::TEXT[]))),
		   updated_at = $4
		 WHERE user_id=$1;`,
		userID, pq.Array(achievementIDs), pq.Array(itemIDs), time.Now().UTC())
	return err
}
