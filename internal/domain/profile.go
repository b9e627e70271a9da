package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUsernameTaken indicates the requested username is reserved by another
	// user. This is the one error surfaced to users as an actionable message.
	ErrUsernameTaken = errors.New("username is already taken")
	// ErrProfileNotFound indicates the profile document does not exist.
	ErrProfileNotFound = errors.New("profile not found")
)

// Profile is the remote per-user document: goal, unlocks and cosmetics.
type Profile struct {
	UserID                 string    `json:"userId"`
	Username               string    `json:"username"`
	DailyGoal              int       `json:"dailyGoal"`
	UnlockedAchievementIDs []string  `json:"unlockedAchievementIds"`
	UnlockedItemIDs        []string  `json:"unlockedItemIds"`
	SkinTone               string    `json:"skinTone"`
	EquippedItemIDs        []string  `json:"equippedItemIds"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// Achievement is one unlockable definition from the catalog.
type Achievement struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	StepsRequired int      `json:"stepsRequired"`
	UnlockItemIDs []string `json:"unlockItemIds"`
	Order         int      `json:"order"`
}

// ProfileRepository is the port for the per-user profile document.
type ProfileRepository interface {
	// EnsureProfile creates the profile with defaults if missing; existing
	// profiles are never overwritten.
	EnsureProfile(ctx context.Context, userID string) error
	Profile(ctx context.Context, userID string) (*Profile, error)
	// DailyGoal returns the user's goal, or DefaultDailyGoal when the field
	// is missing.
	DailyGoal(ctx context.Context, userID string) (int, error)
	SetDailyGoal(ctx context.Context, userID string, goal int) error
	// SetUsername reserves the lowercase form of username and stores the
	// display form on the profile, in one transaction. Returns
	// ErrUsernameTaken if another user holds the reservation.
	SetUsername(ctx context.Context, userID, username string) error
	// UnlockAchievements unions the given ids into the profile's unlocked
	// sets. Repeating the same ids is a no-op.
	UnlockAchievements(ctx context.Context, userID string, achievementIDs, itemIDs []string) error
}

// AchievementRepository is the port for the achievement catalog.
type AchievementRepository interface {
	// Eligible returns achievements with stepsRequired <= steps, ordered by
	// order then stepsRequired.
	Eligible(ctx context.Context, steps int) ([]Achievement, error)
	// SeedCatalog upserts the given definitions.
	SeedCatalog(ctx context.Context, defs []Achievement) error
}
