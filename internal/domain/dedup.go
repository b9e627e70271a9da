package domain

import "strings"

// MaxPerOrigin reduces aggregator records to a single candidate step count.
// Multiple origins may each report the same physical steps, so records are
// summed per origin and the largest per-origin total wins; summing across
// origins would double-count. Platform-internal placeholder origins are
// excluded before aggregation.
func MaxPerOrigin(records []StepRecord) int {
	totals := make(map[string]int)
	for _, r := range records {
		if r.Origin == "" || strings.Contains(r.Origin, "__platform") {
			continue
		}
		totals[r.Origin] += r.Count
	}

	best := 0
	for _, v := range totals {
		if v > best {
			best = v
		}
	}
	return best
}
