package availability

import "sort"

// Subtract carves booked or held intervals out of the source ranges and
// returns the remaining free gaps. A source range fully covered by busy
// time contributes nothing. Subtracting the same busy set twice is a
// no-op.
func Subtract(source, busy []TimeRange) []TimeRange {
	var out []TimeRange
	for _, src := range source {
		overlapping := make([]TimeRange, 0, len(busy))
		for _, b := range busy {
			if b.Overlaps(src) {
				overlapping = append(overlapping, b)
			}
		}
		if len(overlapping) == 0 {
			out = append(out, src)
			continue
		}
		sort.Slice(overlapping, func(i, j int) bool {
			return overlapping[i].Start.Before(overlapping[j].Start)
		})

		cursor := src.Start
		for _, b := range overlapping {
			if b.Start.After(cursor) {
				out = append(out, TimeRange{Start: cursor, End: b.Start})
			}
			if b.End.After(cursor) {
				cursor = b.End
			}
		}
		if src.End.After(cursor) {
			out = append(out, TimeRange{Start: cursor, End: src.End})
		}
	}
	return out
}
