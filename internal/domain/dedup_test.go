package domain_test

import (
	"testing"

	"stepquest/internal/domain"
)

func TestMaxPerOrigin(t *testing.T) {
	tests := []struct {
		name    string
		records []domain.StepRecord
		want    int
	}{
		{
			"max per-origin sum, not total sum",
			[]domain.StepRecord{
				{Origin: "A", Count: 4000},
				{Origin: "A", Count: 1000},
				{Origin: "B", Count: 3000},
			},
			5000,
		},
		{
			"single origin",
			[]domain.StepRecord{{Origin: "A", Count: 1200}},
			1200,
		},
		{
			"platform placeholder excluded",
			[]domain.StepRecord{
				{Origin: "android.__platform", Count: 9000},
				{Origin: "B", Count: 3000},
			},
			3000,
		},
		{
			"empty origin excluded",
			[]domain.StepRecord{{Origin: "", Count: 9000}},
			0,
		},
		{"no records", nil, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := domain.MaxPerOrigin(tc.records); got != tc.want {
				t.Errorf("MaxPerOrigin(%v) = %d; want %d", tc.records, got, tc.want)
			}
		})
	}
}

func TestDayKey(t *testing.T) {
	// DayKey must use local time, matching the device's day boundary.
	got := domain.DayKey(mustLocal(t, "2024-01-01 23:59:59"))
	if got != "2024-01-01" {
		t.Errorf("DayKey = %q; want %q", got, "2024-01-01")
	}
}
