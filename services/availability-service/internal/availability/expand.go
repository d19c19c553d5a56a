package availability

import "time"

// expandRule turns a weekly rule into one concrete range per qualifying
// day between from and to inclusive. Weekdays are evaluated in loc, and
// start/end are wall-clock minutes so local times survive DST shifts.
//
// A start already in the past is clamped to now plus one second instead
// of being dropped, so a partially elapsed day still yields its
// remainder. Ranges whose (possibly clamped) start is not before their
// end expand to nothing, which also covers rules with start >= end.
func expandRule(rule WeeklyRule, loc *time.Location, from, to Date, now time.Time) []TimeRange {
	if len(rule.Days) == 0 {
		return nil
	}
	days := make(map[time.Weekday]bool, len(rule.Days))
	for _, d := range rule.Days {
		days[d] = true
	}

	var out []TimeRange
	for d := from; !d.After(to); d = d.Next() {
		if !days[d.In(loc).Weekday()] {
			continue
		}
		start := time.Date(d.Year, d.Month, d.Day, 0, rule.StartMinute, 0, 0, loc)
		end := time.Date(d.Year, d.Month, d.Day, 0, rule.EndMinute, 0, 0, loc)
		if !start.After(now) {
			start = now.Add(time.Second)
		}
		if !start.Before(end) {
			continue
		}
		out = append(out, TimeRange{Start: start, End: end})
	}
	return out
}

// applyOverride localizes an override to loc. No past-clamping happens
// here: overrides are explicit, and fully elapsed ones are removed
// downstream. A start == end override stays zero-length so it can cancel
// the weekly rules for that date in the builder.
func applyOverride(o DateOverride, loc *time.Location) TimeRange {
	return TimeRange{
		Start: time.Date(o.Date.Year, o.Date.Month, o.Date.Day, 0, o.StartMinute, 0, 0, loc),
		End:   time.Date(o.Date.Year, o.Date.Month, o.Date.Day, 0, o.EndMinute, 0, 0, loc),
	}
}
