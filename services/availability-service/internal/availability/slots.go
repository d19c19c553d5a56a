package availability

import "time"

// SlotQuery carries the per-invocation slicing parameters. All values
// are non-negative; a zero Interval defaults to Duration.
type SlotQuery struct {
	Duration      time.Duration
	Interval      time.Duration
	MinimumNotice time.Duration
	BufferBefore  time.Duration
	BufferAfter   time.Duration
}

// Slice emits the bookable start times within the free ranges. For each
// range the usable window is narrowed by the leading buffer, the
// minimum-notice cutoff, and the trailing buffer plus event duration, so
// the latest emitted start still fits the whole event. Steps are
// inclusive of the last permissible start.
//
// Slots from different ranges are concatenated in range order and not
// deduplicated; callers merging overlapping range sources should
// pre-merge them if duplicates are undesirable.
func Slice(free []TimeRange, q SlotQuery, now time.Time) []time.Time {
	if q.Duration <= 0 {
		return nil
	}
	interval := q.Interval
	if interval <= 0 {
		interval = q.Duration
	}
	earliest := now.Add(q.MinimumNotice)

	var slots []time.Time
	for _, r := range free {
		start := r.Start.Add(q.BufferBefore)
		if start.Before(earliest) {
			start = earliest
		}
		end := r.End.Add(-q.BufferAfter).Add(-q.Duration)
		for t := start; !t.After(end); t = t.Add(interval) {
			slots = append(slots, t)
		}
	}
	return slots
}
