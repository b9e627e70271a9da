package app_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stepquest/internal/adapter/memory"
	"stepquest/internal/app"
)

const sampleCatalog = `
achievements:
  - id: marathon
    title: Marathon Walker
    stepsRequired: 40000
    order: 3
  - id: first-steps
    title: First Steps
    stepsRequired: 1000
    order: 1
    unlockItemIds: [sneakers]
  - id: ten-k
    title: Ten Thousand
    stepsRequired: 10000
    order: 2
`

func TestParseAchievementCatalog(t *testing.T) {
	defs, err := app.ParseAchievementCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("ParseAchievementCatalog: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("got %d achievements; want 3", len(defs))
	}
	for i, wantID := range []string{"first-steps", "ten-k", "marathon"} {
		if defs[i].ID != wantID {
			t.Fatalf("defs[%d].ID = %q; want %q", i, defs[i].ID, wantID)
		}
	}
	if got := defs[0].UnlockItemIDs; len(got) != 1 || got[0] != "sneakers" {
		t.Fatalf("first-steps unlock items = %v; want [sneakers]", got)
	}
}

func TestParseAchievementCatalog_MissingOrderSortsLast(t *testing.T) {
	defs, err := app.ParseAchievementCatalog([]byte(`
achievements:
  - id: unordered-low
    stepsRequired: 500
  - id: ordered
    stepsRequired: 90000
    order: 1
  - id: unordered-high
    stepsRequired: 700
`))
	if err != nil {
		t.Fatalf("ParseAchievementCatalog: %v", err)
	}
	for i, wantID := range []string{"ordered", "unordered-low", "unordered-high"} {
		if defs[i].ID != wantID {
			t.Fatalf("defs[%d].ID = %q; want %q", i, defs[i].ID, wantID)
		}
	}
}

func TestParseAchievementCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"missing id", "achievements:\n  - title: Nameless\n    stepsRequired: 100\n", "missing id"},
		{"zero steps", "achievements:\n  - id: broken\n    stepsRequired: 0\n", "stepsRequired"},
		{"not yaml", "achievements: [", "parse catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.ParseAchievementCatalog([]byte(tt.raw))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v; want substring %q", err, tt.want)
			}
		})
	}
}

func TestSeedAchievements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "achievements.yaml")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	db := memory.New()
	ctx := context.Background()
	if err := app.SeedAchievements(ctx, db, path); err != nil {
		t.Fatalf("SeedAchievements: %v", err)
	}

	eligible, err := db.Eligible(ctx, 12000)
	if err != nil {
		t.Fatalf("Eligible: %v", err)
	}
	if len(eligible) != 2 || eligible[0].ID != "first-steps" || eligible[1].ID != "ten-k" {
		t.Fatalf("eligible = %+v; want [first-steps ten-k]", eligible)
	}

	// Re-seeding upserts rather than duplicating.
	if err := app.SeedAchievements(ctx, db, path); err != nil {
		t.Fatalf("SeedAchievements: %v", err)
	}
	all, err := db.Eligible(ctx, 1<<30)
	if err != nil {
		t.Fatalf("Eligible: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("catalog has %d entries after re-seed; want 3", len(all))
	}
}
