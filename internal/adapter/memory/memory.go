// Package memory implements in-memory adapters for development and testing.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"stepquest/internal/domain"
)

// DB implements the remote repository interfaces in memory.
type DB struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
	names    map[string]string // username_lower -> userID
	scores   map[string]int
	days     map[string]map[string]domain.DayRecord // userID -> day -> record
	catalog  []domain.Achievement
}

// New creates a new in-memory remote store.
func New() *DB {
	return &DB{
		profiles: make(map[string]*domain.Profile),
		names:    make(map[string]string),
		scores:   make(map[string]int),
		days:     make(map[string]map[string]domain.DayRecord),
	}
}

// Ensure interfaces are met.
var _ domain.DayRepository = (*DB)(nil)
var _ domain.ScoreRepository = (*DB)(nil)
var _ domain.ProfileRepository = (*DB)(nil)
var _ domain.AchievementRepository = (*DB)(nil)

// --- DayRepository ---

// UpsertDaySteps merges the day record, keeping steps and goalReached from
// regressing.
func (db *DB) UpsertDaySteps(ctx context.Context, userID, day string, steps, goal int) (domain.DayUpsertResult, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	byDay := db.days[userID]
	if byDay == nil {
		byDay = make(map[string]domain.DayRecord)
		db.days[userID] = byDay
	}

	prev, exists := byDay[day]
	if exists && prev.Steps > steps {
		steps = prev.Steps
	}
	nextReached := (exists && prev.GoalReached) || steps >= goal

	byDay[day] = domain.DayRecord{
		Day:         day,
		Steps:       steps,
		Goal:        goal,
		GoalReached: nextReached,
		UpdatedAt:   time.Now().UTC(),
	}
	return domain.DayUpsertResult{
		GoalReached:     nextReached,
		GoalJustReached: !(exists && prev.GoalReached) && nextReached,
	}, nil
}

// RefreshDayGoal rewrites the goal snapshot of an existing record.
func (db *DB) RefreshDayGoal(ctx context.Context, userID, day string, goal int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	r, ok := db.days[userID][day]
	if !ok {
		return nil
	}
	r.Goal = goal
	r.GoalReached = r.GoalReached || r.Steps >= goal
	r.UpdatedAt = time.Now().UTC()
	db.days[userID][day] = r
	return nil
}

// ListRecentDays returns up to limit records ordered by day descending.
func (db *DB) ListRecentDays(ctx context.Context, userID string, limit int) ([]domain.DayRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.DayRecord, 0, len(db.days[userID]))
	for _, r := range db.days[userID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day > out[j].Day })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- ScoreRepository ---

// EnsureScore creates the score entry if missing.
func (db *DB) EnsureScore(ctx context.Context, userID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.scores[userID]; !ok {
		db.scores[userID] = 0
	}
	return nil
}

// RaiseBestScore raises the best score only when steps beats it.
func (db *DB) RaiseBestScore(ctx context.Context, userID string, steps int) (bool, int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	best := db.scores[userID]
	if steps <= best {
		return false, best, nil
	}
	db.scores[userID] = steps
	return true, steps, nil
}

// BestScore returns the stored best, 0 when absent.
func (db *DB) BestScore(ctx context.Context, userID string) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.scores[userID], nil
}

// TopScores returns the top n scores, descending.
func (db *DB) TopScores(ctx context.Context, n int) ([]domain.ScoreEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.ScoreEntry, 0, len(db.scores))
	for id, best := range db.scores {
		out = append(out, domain.ScoreEntry{UserID: id, BestDailySteps: best})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BestDailySteps > out[j].BestDailySteps })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// --- ProfileRepository ---

// EnsureProfile creates the profile with defaults if missing.
func (db *DB) EnsureProfile(ctx context.Context, userID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.profiles[userID]; ok {
		return nil
	}
	now := time.Now().UTC()
	db.profiles[userID] = &domain.Profile{
		UserID:    userID,
		DailyGoal: domain.DefaultDailyGoal,
		SkinTone:  "default",
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// Profile returns a copy of the stored profile.
func (db *DB) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	cp := *p
	cp.UnlockedAchievementIDs = append([]string(nil), p.UnlockedAchievementIDs...)
	cp.UnlockedItemIDs = append([]string(nil), p.UnlockedItemIDs...)
	cp.EquippedItemIDs = append([]string(nil), p.EquippedItemIDs...)
	return &cp, nil
}

// DailyGoal returns the goal, defaulting when the profile is missing.
func (db *DB) DailyGoal(ctx context.Context, userID string) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if p, ok := db.profiles[userID]; ok {
		return p.DailyGoal, nil
	}
	return domain.DefaultDailyGoal, nil
}

// SetDailyGoal stores a new goal.
func (db *DB) SetDailyGoal(ctx context.Context, userID string, goal int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if p, ok := db.profiles[userID]; ok {
		p.DailyGoal = goal
		p.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// SetUsername reserves the lowercase form and stores the display form.
func (db *DB) SetUsername(ctx context.Context, userID, username string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	lower := strings.ToLower(username)
	if holder, ok := db.names[lower]; ok && holder != userID {
		return domain.ErrUsernameTaken
	}
	p, ok := db.profiles[userID]
	if !ok {
		return domain.ErrProfileNotFound
	}
	db.names[lower] = userID
	p.Username = username
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// UnlockAchievements unions ids into the profile's unlocked sets.
func (db *DB) UnlockAchievements(ctx context.Context, userID string, achievementIDs, itemIDs []string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.profiles[userID]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.UnlockedAchievementIDs = union(p.UnlockedAchievementIDs, achievementIDs)
	p.UnlockedItemIDs = union(p.UnlockedItemIDs, itemIDs)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func union(have, add []string) []string {
	seen := make(map[string]bool, len(have))
	for _, v := range have {
		seen[v] = true
	}
	for _, v := range add {
		if !seen[v] {
			seen[v] = true
			have = append(have, v)
		}
	}
	return have
}

// --- AchievementRepository ---

// Eligible returns catalog entries with StepsRequired <= steps.
func (db *DB) Eligible(ctx context.Context, steps int) ([]domain.Achievement, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Achievement
	for _, a := range db.catalog {
		if a.StepsRequired <= steps {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].StepsRequired < out[j].StepsRequired
	})
	return out, nil
}

// SeedCatalog replaces or adds the given definitions.
func (db *DB) SeedCatalog(ctx context.Context, defs []domain.Achievement) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	byID := make(map[string]int, len(db.catalog))
	for i, a := range db.catalog {
		byID[a.ID] = i
	}
	for _, a := range defs {
		if i, ok := byID[a.ID]; ok {
			db.catalog[i] = a
		} else {
			db.catalog = append(db.catalog, a)
		}
	}
	return nil
}
