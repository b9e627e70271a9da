package app

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"stepquest/internal/domain"
)

var (
	// ErrEmptyUsername indicates a blank username was submitted.
	ErrEmptyUsername = errors.New("username must not be empty")
	// ErrUsernameTooLong indicates the username exceeds 20 characters.
	ErrUsernameTooLong = errors.New("username must be at most 20 characters")
	// ErrInvalidGoal indicates a non-positive daily goal.
	ErrInvalidGoal = errors.New("daily goal must be > 0")
)

// ProfileService encapsulates profile use cases: document bootstrap, daily
// goal and username.
type ProfileService struct {
	profiles domain.ProfileRepository
	scores   domain.ScoreRepository
	days     domain.DayRepository
	now      func() time.Time
}

// NewProfileService creates a ProfileService backed by the given repositories.
func NewProfileService(profiles domain.ProfileRepository, scores domain.ScoreRepository, days domain.DayRepository) *ProfileService {
	return &ProfileService{profiles: profiles, scores: scores, days: days, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (s *ProfileService) SetClock(now func() time.Time) { s.now = now }

// EnsureDocuments creates the profile and score documents if missing.
// Create-only: existing documents are never rewritten with defaults.
func (s *ProfileService) EnsureDocuments(ctx context.Context, userID string) error {
	if err := s.profiles.EnsureProfile(ctx, userID); err != nil {
		return err
	}
	return s.scores.EnsureScore(ctx, userID)
}

// Get returns the user's profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.profiles.Profile(ctx, userID)
}

// DailyGoal returns the user's goal, defaulting when unset.
func (s *ProfileService) DailyGoal(ctx context.Context, userID string) (int, error) {
	return s.profiles.DailyGoal(ctx, userID)
}

// SetDailyGoal stores a new goal and immediately rewrites today's day record
// so its goal snapshot and goalReached flag match the new threshold.
func (s *ProfileService) SetDailyGoal(ctx context.Context, userID string, goal int) error {
	if goal <= 0 {
		return ErrInvalidGoal
	}
	if err := s.profiles.EnsureProfile(ctx, userID); err != nil {
		return err
	}
	if err := s.profiles.SetDailyGoal(ctx, userID, goal); err != nil {
		return err
	}
	return s.days.RefreshDayGoal(ctx, userID, domain.DayKey(s.now()), goal)
}

// SetUsername validates and reserves a username. The reservation is unique
// on the lowercase form; a conflict surfaces domain.ErrUsernameTaken as an
// actionable message.
func (s *ProfileService) SetUsername(ctx context.Context, userID, username string) error {
	display := strings.TrimSpace(username)
	if display == "" {
		return ErrEmptyUsername
	}
	if utf8.RuneCountInString(display) > 20 {
		return ErrUsernameTooLong
	}
	return s.profiles.SetUsername(ctx, userID, display)
}
