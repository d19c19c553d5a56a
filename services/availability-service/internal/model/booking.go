package model

import "time"

type Booking struct {
	ID            string
	Username      string
	Title         string
	AttendeeName  string
	AttendeeEmail string
	StartTime     time.Time
	EndTime       time.Time
	Status        string
	CancelledAt   *time.Time
	CancelReason  string
	CreatedAt     time.Time
}
