package domain_test

import (
	"testing"
	"time"

	"stepquest/internal/domain"
)

func mustLocal(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func TestStartOfDay(t *testing.T) {
	got := domain.StartOfDay(mustLocal(t, "2024-03-15 17:42:09"))
	want := mustLocal(t, "2024-03-15 00:00:00")
	if !got.Equal(want) {
		t.Errorf("StartOfDay = %v; want %v", got, want)
	}
	if domain.DayKey(got) != "2024-03-15" {
		t.Errorf("DayKey(StartOfDay) = %q; want %q", domain.DayKey(got), "2024-03-15")
	}
}
