package availability

import (
	"errors"
	"testing"
	"time"
)

func TestResolveSlots_TwoParticipantsWithBusyTuesday(t *testing.T) {
	// Both participants work Mon-Fri 09:00-17:00 UTC; participant B is
	// busy 13:00-14:00 on Tuesday 2026-02-03. Hourly slots over that
	// single Tuesday must skip 13:00.
	tuesday := Date{2026, time.February, 3}
	busyB := []TimeRange{{
		Start: time.Date(2026, 2, 3, 13, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 3, 14, 0, 0, 0, time.UTC),
	}}
	participants := []Participant{
		{Schedule: Schedule{TimeZone: "UTC", Items: []ScheduleItem{weekdays9to5()}}},
		{Schedule: Schedule{TimeZone: "UTC", Items: []ScheduleItem{weekdays9to5()}}, Busy: busyB},
	}
	q := SlotQuery{Duration: time.Hour, Interval: time.Hour}

	got, err := ResolveSlots(participants, tuesday, tuesday, q, farPast)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	wantHours := []int{9, 10, 11, 12, 14, 15, 16}
	if len(got) != len(wantHours) {
		t.Fatalf("expected %d slots, got %d: %v", len(wantHours), len(got), got)
	}
	for i, h := range wantHours {
		if got[i].Hour() != h || got[i].Minute() != 0 {
			t.Fatalf("slot %d: expected %02d:00, got %s", i, h, got[i])
		}
	}
}

func TestResolveSlots_CrossTimezoneIntersection(t *testing.T) {
	// A works 09:00-17:00 New York (14:00-22:00 UTC in winter), B works
	// 09:00-17:00 UTC. Overlap on a winter Tuesday is 14:00-17:00 UTC.
	tuesday := Date{2026, time.February, 3}
	participants := []Participant{
		{Schedule: Schedule{TimeZone: "America/New_York", Items: []ScheduleItem{weekdays9to5()}}},
		{Schedule: Schedule{TimeZone: "UTC", Items: []ScheduleItem{weekdays9to5()}}},
	}
	q := SlotQuery{Duration: time.Hour, Interval: time.Hour}

	got, err := ResolveSlots(participants, tuesday, tuesday, q, farPast)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 slots (14,15,16 UTC), got %d: %v", len(got), got)
	}
	if got[0].Hour() != 14 {
		t.Fatalf("expected first slot 14:00 UTC, got %s", got[0])
	}
}

func TestResolveSlots_ValidationErrors(t *testing.T) {
	day := Date{2026, time.February, 3}
	ok := []Participant{{Schedule: Schedule{TimeZone: "UTC", Items: []ScheduleItem{weekdays9to5()}}}}
	q := SlotQuery{Duration: time.Hour}

	if _, err := ResolveSlots(nil, day, day, q, farPast); !errors.Is(err, ErrNoParticipants) {
		t.Fatalf("expected ErrNoParticipants, got %v", err)
	}
	if _, err := ResolveSlots(ok, day, Date{2026, time.February, 2}, q, farPast); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	if _, err := ResolveSlots(ok, day, day, SlotQuery{}, farPast); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := ResolveSlots(ok, day, day, SlotQuery{Duration: time.Hour, MinimumNotice: -time.Minute}, farPast); !errors.Is(err, ErrNegativeMinutes) {
		t.Fatalf("expected ErrNegativeMinutes, got %v", err)
	}

	bad := []Participant{{Schedule: Schedule{TimeZone: "Mars/Olympus_Mons"}}}
	if _, err := ResolveSlots(bad, day, day, q, farPast); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestResolveSlots_NoAvailabilityIsNotAnError(t *testing.T) {
	day := Date{2026, time.February, 3}
	participants := []Participant{{Schedule: Schedule{TimeZone: "UTC"}}}
	got, err := ResolveSlots(participants, day, day, SlotQuery{Duration: time.Hour}, farPast)
	if err != nil {
		t.Fatalf("empty schedule must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no slots, got %d", len(got))
	}
}
