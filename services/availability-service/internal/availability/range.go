package availability

import "time"

// TimeRange is a half-open interval [Start, End) in absolute time.
// A range with Start == End is valid and carries no availability; such
// ranges are used internally to cancel out working hours and are filtered
// before results are returned.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the range covers no time at all.
func (r TimeRange) IsZero() bool {
	return !r.End.After(r.Start)
}

// Overlaps reports whether two half-open ranges share any instant.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Intersect returns the overlap of two ranges. ok is false when the
// ranges do not overlap (a zero-length touch does not count).
func (r TimeRange) Intersect(other TimeRange) (TimeRange, bool) {
	start := r.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := r.End
	if other.End.Before(end) {
		end = other.End
	}
	if !start.Before(end) {
		return TimeRange{}, false
	}
	return TimeRange{Start: start, End: end}, true
}
