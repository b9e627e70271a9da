package app_test

import (
	"context"
	"testing"
	"time"

	"pgregory.net/rapid"

	"stepquest/internal/adapter/memory"
	"stepquest/internal/app"
	"stepquest/internal/domain"
)

const testUser = "user-1"

func newTestGateway(t *testing.T, remote *memory.DB, kv domain.StateStore, throttle app.Throttle, key string) *app.SyncGateway {
	t.Helper()
	if err := remote.EnsureProfile(context.Background(), testUser); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	if err := remote.EnsureScore(context.Background(), testUser); err != nil {
		t.Fatalf("ensure score: %v", err)
	}
	return app.NewSyncGateway(testUser, remote, remote, remote, remote, kv, throttle, key)
}

func TestSyncGateway_Throttling(t *testing.T) {
	remote := memory.New()
	kv := memory.NewStateStore()
	g := newTestGateway(t, remote, kv,
		app.Throttle{MinInterval: 30 * time.Second, MinSteps: 300}, app.ThrottleKeyForeground)

	base := time.Now()
	now := base
	g.SetClock(func() time.Time { return now })

	ctx := context.Background()

	// First sync always proceeds.
	if err := g.SyncSteps(ctx, 1000); err != nil {
		t.Fatalf("SyncSteps: %v", err)
	}
	records, _ := remote.ListRecentDays(ctx, testUser, 1)
	if len(records) != 1 || records[0].Steps != 1000 {
		t.Fatalf("expected day record with 1000 steps, got %+v", records)
	}

	// 10s later, +50 steps: inside the interval, below the step gate -> no-op.
	now = base.Add(10 * time.Second)
	if err := g.SyncSteps(ctx, 1050); err != nil {
		t.Fatalf("SyncSteps: %v", err)
	}
	records, _ = remote.ListRecentDays(ctx, testUser, 1)
	if records[0].Steps != 1000 {
		t.Fatalf("throttled sync wrote anyway: %+v", records[0])
	}

	// Same elapsed time but +300 steps: the step gate opens regardless.
	if err := g.SyncSteps(ctx, 1300); err != nil {
		t.Fatalf("SyncSteps: %v", err)
	}
	records, _ = remote.ListRecentDays(ctx, testUser, 1)
	if records[0].Steps != 1300 {
		t.Fatalf("step-delta gate did not open: %+v", records[0])
	}

	// Interval gate: +35s with a tiny delta proceeds.
	now = base.Add(45 * time.Second)
	if err := g.SyncSteps(ctx, 1310); err != nil {
		t.Fatalf("SyncSteps: %v", err)
	}
	records, _ = remote.ListRecentDays(ctx, testUser, 1)
	if records[0].Steps != 1310 {
		t.Fatalf("interval gate did not open: %+v", records[0])
	}
}

func TestSyncGateway_ThrottleStateSurvivesRestart(t *testing.T) {
	remote := memory.New()
	kv := memory.NewStateStore()
	throttle := app.Throttle{MinInterval: 30 * time.Second, MinSteps: 300}

	base := time.Now()
	g := newTestGateway(t, remote, kv, throttle, app.ThrottleKeyForeground)
	g.SetClock(func() time.Time { return base })
	if err := g.SyncSteps(context.Background(), 1000); err != nil {
		t.Fatalf("SyncSteps: %v", err)
	}

	// A fresh gateway (process restart) reads the persisted bookkeeping and
	// stays throttled.
	g2 := app.NewSyncGateway(testUser, remote, remote, remote, remote, kv, throttle, app.ThrottleKeyForeground)
	g2.SetClock(func() time.Time { return base.Add(5 * time.Second) })
	if err := g2.SyncSteps(context.Background(), 1010); err != nil {
		t.Fatalf("SyncSteps: %v", err)
	}
	records, _ := remote.ListRecentDays(context.Background(), testUser, 1)
	if records[0].Steps != 1000 {
		t.Fatalf("restarted gateway ignored persisted throttle: %+v", records[0])
	}
}

func TestSyncGateway_IndependentThrottleKeys(t *testing.T) {
	remote := memory.New()
	kv := memory.NewStateStore()

	base := time.Now()
	fg := newTestGateway(t, remote, kv,
		app.Throttle{MinInterval: 30 * time.Second, MinSteps: 300}, app.ThrottleKeyForeground)
	fg.SetClock(func() time.Time { return base })
	bg := app.NewSyncGateway(testUser, remote, remote, remote, remote, kv,
		app.Throttle{MinInterval: 60 * time.Minute, MinSteps: 250}, app.ThrottleKeyBackground)
	bg.SetClock(func() time.Time { return base })

	ctx := context.Background()
	if err := fg.SyncSteps(ctx, 1000); err != nil {
		t.Fatalf("foreground sync: %v", err)
	}
	// The background schedule has never synced; its first pass proceeds even
	// though the foreground just did.
	if err := bg.SyncSteps(ctx, 1005); err != nil {
		t.Fatalf("background sync: %v", err)
	}
	records, _ := remote.ListRecentDays(ctx, testUser, 1)
	if records[0].Steps != 1005 {
		t.Fatalf("background pass should not share foreground bookkeeping: %+v", records[0])
	}
}

func TestSyncGateway_BestScoreMonotonic(t *testing.T) {
	remote := memory.New()
	ctx := context.Background()
	if err := remote.EnsureScore(ctx, testUser); err != nil {
		t.Fatalf("ensure score: %v", err)
	}

	wantUpdated := []bool{true, false, true, false, false}
	for i, steps := range []int{500, 300, 900, 200, 900} {
		updated, _, err := remote.RaiseBestScore(ctx, testUser, steps)
		if err != nil {
			t.Fatalf("RaiseBestScore(%d): %v", steps, err)
		}
		if updated != wantUpdated[i] {
			t.Fatalf("RaiseBestScore(%d) updated=%v; want %v", steps, updated, wantUpdated[i])
		}
	}
	best, _ := remote.BestScore(ctx, testUser)
	if best != 900 {
		t.Fatalf("best = %d; want 900", best)
	}
}

func TestSyncGateway_GoalReachedLatch(t *testing.T) {
	remote := memory.New()
	kv := memory.NewStateStore()
	g := newTestGateway(t, remote, kv, app.Throttle{}, app.ThrottleKeyForeground)

	var justReached int
	g.OnGoalReached = func(day string, steps int) { justReached++ }

	ctx := context.Background()
	if err := remote.SetDailyGoal(ctx, testUser, 8000); err != nil {
		t.Fatalf("set goal: %v", err)
	}

	if err := g.SyncSteps(ctx, 8100); err != nil {
		t.Fatalf("SyncSteps: %v", err)
	}
	if justReached != 1 {
		t.Fatalf("goalJustReached fired %d times; want 1", justReached)
	}

	// A later write with lower steps must not revert goalReached, and must
	// not re-fire the transition.
	if err := g.SyncSteps(ctx, 4000); err != nil {
		t.Fatalf("SyncSteps: %v", err)
	}
	records, _ := remote.ListRecentDays(ctx, testUser, 1)
	if !records[0].GoalReached {
		t.Fatal("goalReached reverted by a lower-steps write")
	}
	if justReached != 1 {
		t.Fatalf("goalJustReached fired %d times; want 1", justReached)
	}
}

func TestSyncGateway_AchievementUnlocksIdempotent(t *testing.T) {
	remote := memory.New()
	kv := memory.NewStateStore()
	g := newTestGateway(t, remote, kv, app.Throttle{}, app.ThrottleKeyForeground)

	ctx := context.Background()
	if err := remote.SeedCatalog(ctx, []domain.Achievement{
		{ID: "first-1k", Title: "First 1000", StepsRequired: 1000, UnlockItemIDs: []string{"hat-1"}},
		{ID: "first-5k", Title: "First 5000", StepsRequired: 5000},
	}); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}

	var unlocks [][]string
	g.OnUnlock = func(achievementIDs, _ []string) { unlocks = append(unlocks, achievementIDs) }

	if err := g.SyncSteps(ctx, 1200); err != nil {
		t.Fatalf("SyncSteps: %v", err)
	}
	if len(unlocks) != 1 || len(unlocks[0]) != 1 || unlocks[0][0] != "first-1k" {
		t.Fatalf("unlocks = %v; want [[first-1k]]", unlocks)
	}

	// Repeating the same sync changes nothing.
	if err := g.SyncSteps(ctx, 1200); err != nil {
		t.Fatalf("SyncSteps: %v", err)
	}
	if len(unlocks) != 1 {
		t.Fatalf("duplicate unlock fired: %v", unlocks)
	}

	profile, err := remote.Profile(ctx, testUser)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if len(profile.UnlockedAchievementIDs) != 1 || len(profile.UnlockedItemIDs) != 1 {
		t.Fatalf("profile unlocks = %+v; want one achievement, one item", profile)
	}

	// Crossing the next threshold unlocks only the new achievement.
	if err := g.SyncSteps(ctx, 5200); err != nil {
		t.Fatalf("SyncSteps: %v", err)
	}
	if len(unlocks) != 2 || unlocks[1][0] != "first-5k" {
		t.Fatalf("unlocks = %v; want second entry [first-5k]", unlocks)
	}
}

// Whatever sequence of candidates is submitted, the stored best equals the
// running maximum and updates fire exactly on new maxima.
func TestRaiseBestScore_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		remote := memory.New()
		ctx := context.Background()
		candidates := rapid.SliceOf(rapid.IntRange(0, 100000)).Draw(t, "candidates")

		max := 0
		for _, c := range candidates {
			updated, best, err := remote.RaiseBestScore(ctx, testUser, c)
			if err != nil {
				t.Fatalf("RaiseBestScore: %v", err)
			}
			if c > max {
				if !updated {
					t.Fatalf("candidate %d above max %d reported not updated", c, max)
				}
				max = c
			} else if updated {
				t.Fatalf("candidate %d at or below max %d reported updated", c, max)
			}
			if best != max {
				t.Fatalf("best = %d; want running max %d", best, max)
			}
		}
	})
}
