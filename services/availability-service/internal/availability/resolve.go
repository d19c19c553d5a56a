package availability

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoParticipants  = errors.New("at least one participant is required")
	ErrInvalidWindow   = errors.New("date_to is before date_from")
	ErrInvalidDuration = errors.New("duration must be positive")
	ErrNegativeMinutes = errors.New("minute parameters must not be negative")
)

// Participant pairs one person's schedule with their already-committed
// busy intervals (bookings plus held slots). Both are caller-supplied;
// the engine performs no I/O.
type Participant struct {
	Schedule Schedule
	Busy     []TimeRange
}

// FreeRanges expands and merges each participant's schedule over
// [from, to], intersects across participants, and subtracts every
// participant's busy intervals, yielding the mutually free windows.
//
// Everything is a pure function of the inputs; now is injected so the
// computation is deterministic and testable.
func FreeRanges(participants []Participant, from, to Date, now time.Time) ([]TimeRange, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}
	if to.Before(from) {
		return nil, ErrInvalidWindow
	}

	perParticipant := make([][]TimeRange, 0, len(participants))
	var busy []TimeRange
	for _, p := range participants {
		loc, err := time.LoadLocation(p.Schedule.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", p.Schedule.TimeZone, err)
		}
		perParticipant = append(perParticipant, BuildDateRanges(p.Schedule.Items, loc, from, to, now))
		busy = append(busy, p.Busy...)
	}

	return Subtract(Intersect(perParticipant), busy), nil
}

// ResolveSlots is the full pipeline: FreeRanges followed by slicing into
// bookable start times.
func ResolveSlots(participants []Participant, from, to Date, q SlotQuery, now time.Time) ([]time.Time, error) {
	if q.Duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if q.Interval < 0 || q.MinimumNotice < 0 || q.BufferBefore < 0 || q.BufferAfter < 0 {
		return nil, ErrNegativeMinutes
	}
	free, err := FreeRanges(participants, from, to, now)
	if err != nil {
		return nil, err
	}
	return Slice(free, q, now), nil
}
