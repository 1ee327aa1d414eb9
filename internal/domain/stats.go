package domain

import (
	"sort"
	"time"
)

// Stats summarises the change between the earliest and latest entry of a set.
type Stats struct {
	InitialWeight    float64 `json:"initialWeight"`
	CurrentWeight    float64 `json:"currentWeight"`
	WeightDifference float64 `json:"weightDifference"`
	PercentageChange float64 `json:"percentageChange"`
	WeeklyChange     float64 `json:"weeklyChange"`
}

// ComputeStats derives Stats from entries sorted by date ascending.
// It returns false for an empty set.
func ComputeStats(entries []WeightEntry) (Stats, bool) {
	if len(entries) == 0 {
		return Stats{}, false
	}

	first := entries[0]
	last := entries[len(entries)-1]

	st := Stats{
		InitialWeight:    first.Weight,
		CurrentWeight:    last.Weight,
		WeightDifference: last.Weight - first.Weight,
	}
	// Unreachable with validated entries; kept so the result is never NaN.
	if st.InitialWeight != 0 {
		st.PercentageChange = st.WeightDifference / st.InitialWeight * 100
	}

	if len(entries) > 1 {
		days := int(last.Date.Sub(first.Date) / (24 * time.Hour))
		if weeks := float64(days) / 7; weeks > 0 {
			st.WeeklyChange = st.WeightDifference / weeks
		}
	}
	return st, true
}

// SortByDateAsc returns a copy of entries ordered oldest first.
func SortByDateAsc(entries []WeightEntry) []WeightEntry {
	out := make([]WeightEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// SortByDateDesc returns a copy of entries ordered newest first, ties broken
// by creation time.
func SortByDateDesc(entries []WeightEntry) []WeightEntry {
	out := make([]WeightEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out
}
