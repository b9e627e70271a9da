// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// DefaultDailyGoal is the step goal assigned to newly created profiles.
const DefaultDailyGoal = 8000

// DayKey formats t as a local-calendar-day key (YYYY-MM-DD). Local time on
// purpose, so the day rolls over when the device's clock does.
func DayKey(t time.Time) string {
	return t.In(time.Local).Format("2006-01-02")
}

// StartOfDay returns local midnight for the day containing t.
func StartOfDay(t time.Time) time.Time {
	lt := t.In(time.Local)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.Local)
}

// DayRecord is the remote per-user per-day step document.
type DayRecord struct {
	Day         string    `json:"day"`
	Steps       int       `json:"steps"`
	Goal        int       `json:"goal"`
	GoalReached bool      `json:"goalReached"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CounterState is the device-local authoritative counter. DayKey must always
// match the current local date; callers reset Steps to 0 on mismatch before
// trusting the value.
type CounterState struct {
	DayKey string
	Steps  int
}

// ThrottleState is the device-local sync bookkeeping.
type ThrottleState struct {
	LastSyncedSteps int
	LastSyncAt      time.Time
}

// DayUpsertResult reports the goal state after a day-record write.
// GoalJustReached is true only on the false->true transition, detected inside
// the store's transaction so concurrent writers observe it at most once.
type DayUpsertResult struct {
	GoalReached     bool
	GoalJustReached bool
}

// StateStore is the port for device-local persistence: the day counter, the
// throttle bookkeeping and the stored session.
type StateStore interface {
	// LoadCounter returns the persisted counter, or ok=false if none exists yet.
	LoadCounter(ctx context.Context) (CounterState, bool, error)
	// SaveCounter persists day key and steps as one atomic write.
	SaveCounter(ctx context.Context, state CounterState) error

	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// DayRepository is the port for the remote per-day record sub-collection.
type DayRepository interface {
	// UpsertDaySteps merges steps, the goal snapshot and the recomputed
	// goalReached flag into the record for day. Once goalReached has been
	// recorded true for a day it stays true, even if steps is lower than an
	// earlier write.
	UpsertDaySteps(ctx context.Context, userID, day string, steps, goal int) (DayUpsertResult, error)
	// RefreshDayGoal rewrites the goal snapshot (and re-derives goalReached
	// from the stored steps) for an existing record; missing records are left
	// alone.
	RefreshDayGoal(ctx context.Context, userID, day string, goal int) error
	// ListRecentDays returns up to limit records ordered by day descending.
	ListRecentDays(ctx context.Context, userID string, limit int) ([]DayRecord, error)
}

// ScoreRepository is the port for the per-user best-score document.
type ScoreRepository interface {
	// EnsureScore creates the score document with bestDailySteps=0 if it does
	// not exist; existing documents are never touched.
	EnsureScore(ctx context.Context, userID string) error
	// RaiseBestScore raises bestDailySteps to steps if and only if steps is
	// greater than the stored value, atomically. Returns the resulting best
	// and whether a write happened.
	RaiseBestScore(ctx context.Context, userID string, steps int) (updated bool, best int, err error)
	BestScore(ctx context.Context, userID string) (int, error)
	// TopScores returns the top n best scores, descending.
	TopScores(ctx context.Context, n int) ([]ScoreEntry, error)
}

// ScoreEntry is one leaderboard row.
type ScoreEntry struct {
	UserID         string `json:"userId"`
	BestDailySteps int    `json:"bestDailySteps"`
}
