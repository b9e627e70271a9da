package app_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"stepquest/internal/adapter/memory"
	"stepquest/internal/app"
	"stepquest/internal/domain"
)

func seedDay(t *testing.T, db *memory.DB, daysAgo, steps, goal int) {
	t.Helper()
	day := domain.DayKey(time.Now().AddDate(0, 0, -daysAgo))
	if _, err := db.UpsertDaySteps(context.Background(), testUser, day, steps, goal); err != nil {
		t.Fatalf("seed day %s: %v", day, err)
	}
}

func TestStatsService_WeeklySteps(t *testing.T) {
	db := memory.New()
	stats := app.NewStatsService(db, db)
	ctx := context.Background()

	seedDay(t, db, 0, 5000, 8000)
	seedDay(t, db, 1, 8200, 8000)
	seedDay(t, db, 3, 1200, 8000)
	// Two weeks ago falls outside the window entirely.
	seedDay(t, db, 14, 9999, 8000)

	got, err := stats.WeeklySteps(ctx, testUser)
	if err != nil {
		t.Fatalf("WeeklySteps: %v", err)
	}
	want := []int{0, 0, 0, 1200, 0, 8200, 5000}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("weekly = %v; want %v", got, want)
	}
}

func TestStatsService_WeeklyStepsEmpty(t *testing.T) {
	db := memory.New()
	stats := app.NewStatsService(db, db)

	got, err := stats.WeeklySteps(context.Background(), testUser)
	if err != nil {
		t.Fatalf("WeeklySteps: %v", err)
	}
	if !reflect.DeepEqual(got, make([]int, 7)) {
		t.Fatalf("weekly = %v; want seven zeroes", got)
	}
}

func TestStatsService_CurrentStreak(t *testing.T) {
	tests := []struct {
		name string
		seed func(t *testing.T, db *memory.DB)
		want int
	}{
		{
			name: "no records",
			seed: func(t *testing.T, db *memory.DB) {},
			want: 0,
		},
		{
			name: "today only",
			seed: func(t *testing.T, db *memory.DB) {
				seedDay(t, db, 0, 9000, 8000)
			},
			want: 1,
		},
		{
			name: "three consecutive days",
			seed: func(t *testing.T, db *memory.DB) {
				seedDay(t, db, 0, 9000, 8000)
				seedDay(t, db, 1, 8500, 8000)
				seedDay(t, db, 2, 8001, 8000)
			},
			want: 3,
		},
		{
			name: "gap breaks the streak",
			seed: func(t *testing.T, db *memory.DB) {
				seedDay(t, db, 0, 9000, 8000)
				seedDay(t, db, 1, 8500, 8000)
				// day 2 missing
				seedDay(t, db, 3, 8500, 8000)
			},
			want: 2,
		},
		{
			name: "missed goal breaks the streak",
			seed: func(t *testing.T, db *memory.DB) {
				seedDay(t, db, 0, 9000, 8000)
				seedDay(t, db, 1, 4000, 8000)
				seedDay(t, db, 2, 8500, 8000)
			},
			want: 1,
		},
		{
			name: "today not reached yet still counts yesterday's run as zero",
			seed: func(t *testing.T, db *memory.DB) {
				seedDay(t, db, 0, 2000, 8000)
				seedDay(t, db, 1, 9000, 8000)
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := memory.New()
			tt.seed(t, db)
			stats := app.NewStatsService(db, db)
			got, err := stats.CurrentStreak(context.Background(), testUser)
			if err != nil {
				t.Fatalf("CurrentStreak: %v", err)
			}
			if got != tt.want {
				t.Fatalf("streak = %d; want %d", got, tt.want)
			}
		})
	}
}

func TestStatsService_Leaderboard(t *testing.T) {
	db := memory.New()
	stats := app.NewStatsService(db, db)
	ctx := context.Background()

	for _, e := range []struct {
		user string
		best int
	}{
		{"alice", 12000}, {"bob", 4000}, {"carol", 9000},
	} {
		if _, _, err := db.RaiseBestScore(ctx, e.user, e.best); err != nil {
			t.Fatalf("seed score: %v", err)
		}
	}

	top, err := stats.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(top) != 2 || top[0].UserID != "alice" || top[1].UserID != "carol" {
		t.Fatalf("leaderboard = %+v; want alice then carol", top)
	}

	// Out-of-range sizes clamp to the default of 20.
	top, err = stats.Leaderboard(ctx, -5)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("clamped leaderboard = %+v; want all 3 entries", top)
	}
}
