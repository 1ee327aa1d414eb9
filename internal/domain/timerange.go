package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimeRange selects a window of entries relative to now.
type TimeRange string

const (
	RangeWeek  TimeRange = "week"
	RangeMonth TimeRange = "month"
	RangeYear  TimeRange = "year"
	RangeAll   TimeRange = "all"
)

// ParseTimeRange converts a range tag, case-insensitively.
func ParseTimeRange(s string) (TimeRange, error) {
	r := TimeRange(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", NewValidationError("range", fmt.Sprintf("range must be one of week, month, year, all; got %q", s))
	}
	return r, nil
}

func (r TimeRange) String() string {
	return string(r)
}

// IsValid reports whether r is a known range tag.
func (r TimeRange) IsValid() bool {
	switch r {
	case RangeWeek, RangeMonth, RangeYear, RangeAll:
		return true
	default:
		return false
	}
}

// Cutoff returns the earliest instant included in the range. The second
// result is false for RangeAll, which has no lower bound.
func (r TimeRange) Cutoff(now time.Time) (time.Time, bool) {
	switch r {
	case RangeWeek:
		return now.AddDate(0, 0, -7), true
	case RangeMonth:
		return subMonthsClamped(now, 1), true
	case RangeYear:
		return subMonthsClamped(now, 12), true
	default:
		return time.Time{}, false
	}
}

// FilterByRange keeps the entries dated at or after the range's cutoff,
// preserving their order.
func FilterByRange(entries []WeightEntry, r TimeRange, now time.Time) []WeightEntry {
	cutoff, bounded := r.Cutoff(now)
	if !bounded {
		return entries
	}
	out := make([]WeightEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Date.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// subMonthsClamped moves t back n calendar months, clamping the day to the
// last day of the target month instead of overflowing into the next one.
func subMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).AddDate(0, -n, 0)
	ty, tm, _ := first.Date()
	if last := daysIn(ty, tm, t.Location()); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(ty, tm, d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}
