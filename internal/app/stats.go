package app

import (
	"context"
	"time"

	"stepquest/internal/domain"
)

// streakScanLimit caps how many day records the streak scan fetches.
const streakScanLimit = 60

// StatsService encapsulates the derived read views: weekly history, streak
// and best score.
type StatsService struct {
	days   domain.DayRepository
	scores domain.ScoreRepository
	now    func() time.Time
}

// NewStatsService creates a StatsService backed by the given repositories.
func NewStatsService(days domain.DayRepository, scores domain.ScoreRepository) *StatsService {
	return &StatsService{days: days, scores: scores, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (s *StatsService) SetClock(now func() time.Time) { s.now = now }

// WeeklySteps returns step totals for the last seven days, oldest first
// (today is the final element). Days without a record are zero.
func (s *StatsService) WeeklySteps(ctx context.Context, userID string) ([]int, error) {
	records, err := s.days.ListRecentDays(ctx, userID, 7)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]int, len(records))
	for _, r := range records {
		byDay[r.Day] = r.Steps
	}

	today := s.now()
	out := make([]int, 0, 7)
	for i := 6; i >= 0; i-- {
		key := domain.DayKey(today.AddDate(0, 0, -i))
		out = append(out, byDay[key])
	}
	return out, nil
}

// CurrentStreak counts backward from today how many consecutive days have
// goalReached, stopping at the first miss or missing day. The scan is capped
// at the most recent 60 records.
func (s *StatsService) CurrentStreak(ctx context.Context, userID string) (int, error) {
	records, err := s.days.ListRecentDays(ctx, userID, streakScanLimit)
	if err != nil {
		return 0, err
	}

	reached := make(map[string]bool, len(records))
	for _, r := range records {
		reached[r.Day] = r.GoalReached
	}

	today := s.now()
	streak := 0
	for i := 0; i < streakScanLimit; i++ {
		key := domain.DayKey(today.AddDate(0, 0, -i))
		if !reached[key] {
			break
		}
		streak++
	}
	return streak, nil
}

// Best returns the user's best-ever daily step count.
func (s *StatsService) Best(ctx context.Context, userID string) (int, error) {
	return s.scores.BestScore(ctx, userID)
}

// Leaderboard returns the top n best scores, descending.
func (s *StatsService) Leaderboard(ctx context.Context, n int) ([]domain.ScoreEntry, error) {
	if n <= 0 || n > 100 {
		n = 20
	}
	return s.scores.TopScores(ctx, n)
}
