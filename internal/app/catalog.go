package app

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"stepquest/internal/domain"
)

// LoadAchievementCatalog reads achievement definitions from a YAML file.
// Definitions are sorted by order then stepsRequired; missing order sorts
// last.
func LoadAchievementCatalog(path string) ([]domain.Achievement, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseAchievementCatalog(raw)
}

// ParseAchievementCatalog parses and validates YAML catalog bytes.
func ParseAchievementCatalog(raw []byte) ([]domain.Achievement, error) {
	type entry struct {
		ID            string   `yaml:"id"`
		Title         string   `yaml:"title"`
		StepsRequired int      `yaml:"stepsRequired"`
		UnlockItemIDs []string `yaml:"unlockItemIds"`
		Order         *int     `yaml:"order"`
	}
	var doc struct {
		Achievements []entry `yaml:"achievements"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	const orderLast = int(^uint(0) >> 1)

	defs := make([]domain.Achievement, 0, len(doc.Achievements))
	for i, e := range doc.Achievements {
		if e.ID == "" {
			return nil, fmt.Errorf("catalog entry %d: missing id", i)
		}
		if e.StepsRequired <= 0 {
			return nil, fmt.Errorf("catalog entry %q: stepsRequired must be > 0", e.ID)
		}
		a := domain.Achievement{
			ID:            e.ID,
			Title:         e.Title,
			StepsRequired: e.StepsRequired,
			UnlockItemIDs: e.UnlockItemIDs,
			Order:         orderLast,
		}
		if e.Order != nil {
			a.Order = *e.Order
		}
		defs = append(defs, a)
	}

	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].Order != defs[j].Order {
			return defs[i].Order < defs[j].Order
		}
		return defs[i].StepsRequired < defs[j].StepsRequired
	})
	return defs, nil
}

// SeedAchievements loads the catalog at path and upserts it into the store.
func SeedAchievements(ctx context.Context, repo domain.AchievementRepository, path string) error {
	defs, err := LoadAchievementCatalog(path)
	if err != nil {
		return err
	}
	return repo.SeedCatalog(ctx, defs)
}
