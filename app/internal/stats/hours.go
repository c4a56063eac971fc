package stats

import (
	"sort"
	"time"

	"storemonitor/app/internal/reference"
)

// Interval is a half-open UTC time range
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the interval length
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// BusinessIntervals returns the store's open periods within [start, end) in
// UTC, sorted and merged. Every local calendar date touching the range is
// resolved, plus the preceding date so that overnight schedules carry over.
func BusinessIntervals(snap *reference.Snapshot, storeID string, start, end time.Time) []Interval {
	if !end.After(start) {
		return nil
	}
	loc := snap.Location(storeID)
	first := start.In(loc)
	last := end.In(loc)

	day := time.Date(first.Year(), first.Month(), first.Day()-1, 0, 0, 0, 0, loc)
	stop := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, loc)

	var spans []Interval
	for !day.After(stop) {
		h := snap.Hours(storeID, day)
		open := wallClock(day, h.Open, 0)
		var closeAt time.Time
		if h.Overnight() {
			closeAt = wallClock(day, h.Close, 1)
		} else {
			closeAt = wallClock(day, h.Close, 0)
		}

		iv := Interval{Start: maxTime(open, start), End: minTime(closeAt, end)}
		if iv.End.After(iv.Start) {
			spans = append(spans, Interval{Start: iv.Start.UTC(), End: iv.End.UTC()})
		}
		day = time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, loc)
	}
	return merge(spans)
}

// wallClock returns the instant at the given offset from local midnight,
// addDays after day. Offsets are wall-clock, so DST days still open and
// close at the posted local times.
func wallClock(day time.Time, offset time.Duration, addDays int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day()+addDays,
		int(offset/time.Hour), 0, 0, int(offset%time.Hour), day.Location())
}

func merge(spans []Interval) []Interval {
	if len(spans) < 2 {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start.Before(spans[j].Start) })
	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if !s.Start.After(last.End) {
			if s.End.After(last.End) {
				last.End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
