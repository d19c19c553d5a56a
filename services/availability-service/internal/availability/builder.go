package availability

import (
	"sort"
	"time"
)

// BuildDateRanges expands every schedule item over [from, to] and merges
// the results per calendar date with override-wins semantics: any date
// that has an override uses only the override's range, even when that
// range is zero-length, and the weekly-rule ranges for the date are
// discarded. Dates without overrides keep their expanded weekly ranges.
//
// Two overrides for the same date are a caller error; the last one in
// item order wins, matching historical behavior rather than validating.
// Zero-length ranges are dropped from the flattened result.
func BuildDateRanges(items []ScheduleItem, loc *time.Location, from, to Date, now time.Time) []TimeRange {
	expanded := make(map[Date][]TimeRange)
	overrides := make(map[Date]TimeRange)

	for _, item := range items {
		switch it := item.(type) {
		case WeeklyRule:
			for _, r := range expandRule(it, loc, from, to, now) {
				key := DateOf(r.Start.In(loc))
				expanded[key] = append(expanded[key], r)
			}
		case DateOverride:
			if it.Date.Before(from) || it.Date.After(to) {
				continue
			}
			overrides[it.Date] = applyOverride(it, loc)
		}
	}

	byDate := make(map[Date][]TimeRange, len(expanded)+len(overrides))
	for key, ranges := range expanded {
		byDate[key] = ranges
	}
	for key, r := range overrides {
		byDate[key] = []TimeRange{r}
	}

	keys := make([]Date, 0, len(byDate))
	for key := range byDate {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	var out []TimeRange
	for _, key := range keys {
		for _, r := range byDate[key] {
			if r.IsZero() {
				continue
			}
			out = append(out, r)
		}
	}
	return out
}
