package model

import "time"

// ScheduleRecord is the persisted availability definition header for one
// user. Items hold both weekly rules and date overrides; a row with a
// NULL date is a weekly rule, a row with a date is an override.
type ScheduleRecord struct {
	ID        string
	Username  string
	Name      string
	TimeZone  string
	CreatedAt time.Time
}

type ScheduleItemRecord struct {
	ID          string
	ScheduleID  string
	Days        []int
	StartMinute int
	EndMinute   int
	Date        *time.Time
}
