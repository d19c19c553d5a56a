package handlers

import (
	"context"
	"time"

	"github.com/calendso/calendso-sub002/services/availability-service/internal/availability"
)

// ScheduleSource supplies a participant's availability definition.
type ScheduleSource interface {
	ScheduleForUser(ctx context.Context, username string) (availability.Schedule, error)
}

// BusySource supplies committed or held intervals overlapping a window.
// Bookings and slot holds both satisfy it.
type BusySource interface {
	BusyIntervals(ctx context.Context, usernames []string, from, to time.Time) ([]availability.TimeRange, error)
}

// HoldPlacer places a short-lived reservation on a slot.
type HoldPlacer interface {
	Place(ctx context.Context, username string, start, end time.Time) error
}
