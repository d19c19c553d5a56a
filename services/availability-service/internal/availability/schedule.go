package availability

import (
	"fmt"
	"time"
)

// Date is a calendar date with no time-of-day or timezone attached.
// It only becomes an instant once interpreted in a location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// In returns local midnight of the date in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) Next() Date {
	t := time.Date(d.Year, d.Month, d.Day+1, 0, 0, 0, 0, time.UTC)
	return DateOf(t)
}

func (d Date) After(other Date) bool {
	return d.In(time.UTC).After(other.In(time.UTC))
}

func (d Date) Before(other Date) bool {
	return d.In(time.UTC).Before(other.In(time.UTC))
}

func (d Date) String() string {
	return d.In(time.UTC).Format(dateLayout)
}

// ScheduleItem is either a WeeklyRule or a DateOverride. The two shapes
// are discriminated explicitly rather than by probing optional fields.
type ScheduleItem interface {
	scheduleItem()
}

// WeeklyRule is a recurring weekly availability pattern anchored to the
// schedule's timezone. Start and end are minutes from local midnight.
type WeeklyRule struct {
	Days        []time.Weekday
	StartMinute int
	EndMinute   int
}

func (WeeklyRule) scheduleItem() {}

// DateOverride replaces all weekly-rule availability for one calendar
// date. StartMinute == EndMinute means the whole day is unavailable.
type DateOverride struct {
	Date        Date
	StartMinute int
	EndMinute   int
}

func (DateOverride) scheduleItem() {}

// Schedule is one participant's availability definition. The engine
// treats it as read-only input with no identity beyond the call.
type Schedule struct {
	TimeZone string
	Items    []ScheduleItem
}
