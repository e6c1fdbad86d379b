package domain

import (
	"fmt"
	"sort"
	"time"
)

// FormatStagedDate renders the operator-facing date label, e.g.
// "2025-03-01 (Sat)". The zero-padded prefix keeps labels in calendar
// order under plain string sort.
func FormatStagedDate(d time.Time) string {
	return fmt.Sprintf("%s (%s)", d.Format("2006-01-02"), d.Format("Mon"))
}

// ExpandDates returns every date in [start, end] whose weekday is in
// the set. Weekday comparison is identity on time.Weekday; any
// display ordering of the weekday labels is a presentation concern.
func ExpandDates(start, end time.Time, weekdays map[time.Weekday]bool) []time.Time {
	var out []time.Time
	for d := civil(start); !d.After(civil(end)); d = d.AddDate(0, 0, 1) {
		if weekdays[d.Weekday()] {
			out = append(out, d)
		}
	}
	return out
}

// StagingBuffer accumulates the deduplicated, sorted set of dates the
// operator has selected across multiple range+weekday queries. It is
// cleared only after a successful ledger commit.
type StagingBuffer struct {
	dates []time.Time // sorted ascending, no duplicates
}

func NewStagingBuffer() *StagingBuffer { return &StagingBuffer{} }

// Stage expands the range and unions the result into the buffer.
// Zero matching dates is not an error; the caller sees added == 0 and
// may warn. Already-staged dates are no-ops.
func (b *StagingBuffer) Stage(start, end time.Time, weekdays map[time.Weekday]bool) (added int, err error) {
	start, end = civil(start), civil(end)
	if start.After(end) {
		return 0, fmt.Errorf("%w: %s > %s", ErrBadDateRange, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	if len(weekdays) == 0 {
		return 0, ErrEmptyWeekdays
	}
	seen := make(map[time.Time]bool, len(b.dates))
	for _, d := range b.dates {
		seen[d] = true
	}
	for _, d := range ExpandDates(start, end, weekdays) {
		if !seen[d] {
			seen[d] = true
			b.dates = append(b.dates, d)
			added++
		}
	}
	if added > 0 {
		sort.Slice(b.dates, func(i, j int) bool { return b.dates[i].Before(b.dates[j]) })
	}
	return added, nil
}

// Unstage replaces the buffer with exactly the given subset, letting
// the operator deselect individual dates. The result is re-sorted and
// deduplicated; dates never staged are dropped silently.
func (b *StagingBuffer) Unstage(keep []time.Time) {
	staged := make(map[time.Time]bool, len(b.dates))
	for _, d := range b.dates {
		staged[d] = true
	}
	kept := b.dates[:0]
	seen := make(map[time.Time]bool, len(keep))
	for _, d := range keep {
		d = civil(d)
		if staged[d] && !seen[d] {
			seen[d] = true
			kept = append(kept, d)
		}
	}
	b.dates = kept
	sort.Slice(b.dates, func(i, j int) bool { return b.dates[i].Before(b.dates[j]) })
}

// Clear empties the buffer. Called after a successful commit, never
// implicitly.
func (b *StagingBuffer) Clear() { b.dates = nil }

func (b *StagingBuffer) Len() int { return len(b.dates) }

// Dates returns a copy of the staged dates in ascending order.
func (b *StagingBuffer) Dates() []time.Time {
	out := make([]time.Time, len(b.dates))
	copy(out, b.dates)
	return out
}

// Labels returns the staged dates as display labels, same order.
func (b *StagingBuffer) Labels() []string {
	out := make([]string, len(b.dates))
	for i, d := range b.dates {
		out[i] = FormatStagedDate(d)
	}
	return out
}

// civil truncates to a UTC calendar date so dates compare by value.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
