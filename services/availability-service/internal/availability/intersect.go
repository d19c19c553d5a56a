package availability

// Intersect computes the mutually free windows across participants. The
// first list seeds the running common availability; every further list
// replaces it with the set of pairwise overlaps. O(n*m) per pair, which
// is fine at daily-range cardinality.
//
// Callers must supply at least one participant; zero participants yield
// nil. A participant with no ranges empties the result, which correctly
// models someone with no availability at all.
func Intersect(perParticipant [][]TimeRange) []TimeRange {
	if len(perParticipant) == 0 {
		return nil
	}

	common := perParticipant[0]
	for _, ranges := range perParticipant[1:] {
		var next []TimeRange
		for _, c := range common {
			for _, r := range ranges {
				if overlap, ok := c.Intersect(r); ok {
					next = append(next, overlap)
				}
			}
		}
		common = next
		if len(common) == 0 {
			break
		}
	}
	return common
}
