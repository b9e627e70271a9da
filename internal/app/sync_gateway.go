package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"stepquest/internal/domain"
)

// ThrottleKeyForeground and ThrottleKeyBackground are the state-store keys
// for the two independent sync schedules. They must stay distinct so the
// foreground and background passes do not fight over the same bookkeeping.
const (
	ThrottleKeyForeground = "sync.throttle.foreground"
	ThrottleKeyBackground = "sync.throttle.background"
)

// Throttle gates how often a sync may execute: a sync proceeds when the
// minimum interval has elapsed since the last one OR the step delta since
// the last synced value meets the minimum.
type Throttle struct {
	MinInterval time.Duration
	MinSteps    int
}

// SyncGateway writes the derived remote state for one signed-in user: the
// per-day record, the best-ever score and achievement unlocks. All three
// writes are independent and idempotent, so repeating a sync with the same
// inputs changes nothing.
type SyncGateway struct {
	userID       string
	days         domain.DayRepository
	scores       domain.ScoreRepository
	profiles     domain.ProfileRepository
	achievements domain.AchievementRepository
	kv           domain.StateStore
	throttle     Throttle
	throttleKey  string

	mu     sync.Mutex
	state  domain.ThrottleState
	loaded bool

	now    func() time.Time
	logger *log.Logger

	// OnGoalReached, when set, is called once per day on the false->true
	// goal transition.
	OnGoalReached func(day string, steps int)
	// OnUnlock, when set, is called with newly unlocked achievement ids.
	OnUnlock func(achievementIDs, itemIDs []string)
}

// NewSyncGateway creates a gateway for userID using the given throttle and
// bookkeeping key. Foreground and background callers construct separate
// gateways with separate keys.
func NewSyncGateway(userID string, days domain.DayRepository, scores domain.ScoreRepository, profiles domain.ProfileRepository, achievements domain.AchievementRepository, kv domain.StateStore, throttle Throttle, throttleKey string) *SyncGateway {
	return &SyncGateway{
		userID:       userID,
		days:         days,
		scores:       scores,
		profiles:     profiles,
		achievements: achievements,
		kv:           kv,
		throttle:     throttle,
		throttleKey:  throttleKey,
		now:          time.Now,
		logger:       log.New(io.Discard, "", 0),
	}
}

// SetLogger sets a custom logger for non-fatal sync noise.
func (g *SyncGateway) SetLogger(logger *log.Logger) { g.logger = logger }

// SetClock overrides the time source, for tests.
func (g *SyncGateway) SetClock(now func() time.Time) { g.now = now }

// SyncSteps pushes steps to the remote store if the throttle permits.
// Throttled calls are a successful no-op. On success the bookkeeping is
// updated and persisted.
func (g *SyncGateway) SyncSteps(ctx context.Context, steps int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if err := g.loadStateLocked(ctx); err != nil {
		// Unreadable bookkeeping must not block the sync itself.
		g.logger.Printf("load throttle state: %v", err)
	}
	if g.loaded && !g.shouldSyncLocked(steps, now) {
		return nil
	}

	if err := g.pushLocked(ctx, steps); err != nil {
		return err
	}

	g.state = domain.ThrottleState{LastSyncedSteps: steps, LastSyncAt: now}
	g.loaded = true
	if err := g.saveStateLocked(ctx); err != nil {
		g.logger.Printf("save throttle state: %v", err)
	}
	return nil
}

func (g *SyncGateway) shouldSyncLocked(steps int, now time.Time) bool {
	if now.Sub(g.state.LastSyncAt) >= g.throttle.MinInterval {
		return true
	}
	return steps-g.state.LastSyncedSteps >= g.throttle.MinSteps
}

// pushLocked runs the three remote writes: day-record upsert, conditional
// best-score raise, achievement unlocks.
func (g *SyncGateway) pushLocked(ctx context.Context, steps int) error {
	goal, err := g.profiles.DailyGoal(ctx, g.userID)
	if err != nil {
		return fmt.Errorf("read goal: %w", err)
	}

	day := domain.DayKey(g.now())
	res, err := g.days.UpsertDaySteps(ctx, g.userID, day, steps, goal)
	if err != nil {
		return fmt.Errorf("upsert day %s: %w", day, err)
	}
	if res.GoalJustReached && g.OnGoalReached != nil {
		g.OnGoalReached(day, steps)
	}

	if _, _, err := g.scores.RaiseBestScore(ctx, g.userID, steps); err != nil {
		return fmt.Errorf("raise best score: %w", err)
	}

	if err := g.unlockAchievements(ctx, steps); err != nil {
		return fmt.Errorf("unlock achievements: %w", err)
	}
	return nil
}

// unlockAchievements unions achievements the step count now qualifies for
// but the profile has not unlocked yet.
func (g *SyncGateway) unlockAchievements(ctx context.Context, steps int) error {
	eligible, err := g.achievements.Eligible(ctx, steps)
	if err != nil {
		return err
	}
	if len(eligible) == 0 {
		return nil
	}

	profile, err := g.profiles.Profile(ctx, g.userID)
	if err != nil {
		return err
	}

	already := make(map[string]bool, len(profile.UnlockedAchievementIDs))
	for _, id := range profile.UnlockedAchievementIDs {
		already[id] = true
	}

	var achievementIDs, itemIDs []string
	for _, a := range eligible {
		if already[a.ID] {
			continue
		}
		achievementIDs = append(achievementIDs, a.ID)
		itemIDs = append(itemIDs, a.UnlockItemIDs...)
	}
	if len(achievementIDs) == 0 {
		return nil
	}

	if err := g.profiles.UnlockAchievements(ctx, g.userID, achievementIDs, itemIDs); err != nil {
		return err
	}
	if g.OnUnlock != nil {
		g.OnUnlock(achievementIDs, itemIDs)
	}
	return nil
}

func (g *SyncGateway) loadStateLocked(ctx context.Context) error {
	if g.loaded {
		return nil
	}
	raw, ok, err := g.kv.Get(ctx, g.throttleKey)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	var stored struct {
		LastSyncedSteps int   `json:"lastSyncedSteps"`
		LastSyncAtMs    int64 `json:"lastSyncAtMs"`
	}
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return err
	}
	g.state = domain.ThrottleState{
		LastSyncedSteps: stored.LastSyncedSteps,
		LastSyncAt:      time.UnixMilli(stored.LastSyncAtMs),
	}
	g.loaded = true
	return nil
}

func (g *SyncGateway) saveStateLocked(ctx context.Context) error {
	raw, err := json.Marshal(struct {
		LastSyncedSteps int   `json:"lastSyncedSteps"`
		LastSyncAtMs    int64 `json:"lastSyncAtMs"`
	}{g.state.LastSyncedSteps, g.state.LastSyncAt.UnixMilli()})
	if err != nil {
		return err
	}
	return g.kv.Set(ctx, g.throttleKey, string(raw))
}
