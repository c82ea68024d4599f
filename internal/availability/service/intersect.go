package service

import (
	"sort"
	"time"

	"soultribe/internal/tzengine"
)

// IntersectHourly computes the meetable windows two slot lists share inside
// [now, now+lookahead]. Both lists are clipped to that range, swept with two
// pointers in start order, and each intersection is snapped inward to hour
// boundaries. Windows shorter than one hour are dropped; longer ones are
// trimmed down to a whole-hour multiple. At most maxItems windows return.
func IntersectHourly(a, b []tzengine.Interval, now time.Time, lookahead time.Duration, maxItems int) []tzengine.Interval {
	now = now.UTC()
	horizon := now.Add(lookahead)

	clippedA := clipSorted(a, now, horizon)
	clippedB := clipSorted(b, now, horizon)

	var out []tzengine.Interval
	i, j := 0, 0
	for i < len(clippedA) && j < len(clippedB) && len(out) < maxItems {
		start := laterOf(clippedA[i].Start, clippedB[j].Start)
		end := earlierOf(clippedA[i].End, clippedB[j].End)
		if end.After(start) {
			alignedStart := alignUp(start)
			alignedEnd := alignDown(end)
			if d := alignedEnd.Sub(alignedStart); d >= time.Hour {
				hours := d / time.Hour
				out = append(out, tzengine.Interval{
					Start: alignedStart,
					End:   alignedStart.Add(hours * time.Hour),
				})
			}
		}
		// Advance past the interval that ends first.
		if !clippedA[i].End.After(clippedB[j].End) {
			i++
		} else {
			j++
		}
	}
	return out
}

func clipSorted(intervals []tzengine.Interval, now, horizon time.Time) []tzengine.Interval {
	out := make([]tzengine.Interval, 0, len(intervals))
	for _, iv := range intervals {
		start, end := iv.Start.UTC(), iv.End.UTC()
		if !end.After(start) {
			continue
		}
		if !end.After(now) || !horizon.After(start) {
			continue
		}
		out = append(out, tzengine.Interval{
			Start: laterOf(start, now),
			End:   earlierOf(end, horizon),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func alignUp(t time.Time) time.Time {
	aligned := t.Truncate(time.Hour)
	if aligned.Before(t) {
		aligned = aligned.Add(time.Hour)
	}
	return aligned
}

func alignDown(t time.Time) time.Time {
	return t.Truncate(time.Hour)
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
