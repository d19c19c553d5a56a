package availability

import (
	"testing"
	"time"
)

func TestSlice_ExactFit(t *testing.T) {
	free := []TimeRange{{
		Start: time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 2, 11, 0, 0, 0, time.UTC),
	}}
	q := SlotQuery{Duration: 30 * time.Minute, Interval: 30 * time.Minute}

	got := Slice(free, q, farPast)
	if len(got) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(got))
	}
	if !got[0].Equal(free[0].Start) {
		t.Fatalf("expected first slot 10:00, got %s", got[0])
	}
	if !got[1].Equal(free[0].Start.Add(30 * time.Minute)) {
		t.Fatalf("expected second slot 10:30, got %s", got[1])
	}
}

func TestSlice_TooShortRange(t *testing.T) {
	free := []TimeRange{{
		Start: time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 2, 10, 29, 0, 0, time.UTC),
	}}
	q := SlotQuery{Duration: 30 * time.Minute, Interval: 30 * time.Minute}
	if got := Slice(free, q, farPast); len(got) != 0 {
		t.Fatalf("expected no slots in a 29-minute range, got %d", len(got))
	}
}

func TestSlice_MinimumNotice(t *testing.T) {
	now := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	free := []TimeRange{{
		Start: time.Date(2026, 2, 2, 9, 30, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC),
	}}
	q := SlotQuery{
		Duration:      30 * time.Minute,
		Interval:      30 * time.Minute,
		MinimumNotice: 120 * time.Minute,
	}

	got := Slice(free, q, now)
	if len(got) == 0 {
		t.Fatal("expected slots")
	}
	if !got[0].Equal(time.Date(2026, 2, 2, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected first slot at 11:00 (earliest allowed), got %s", got[0])
	}
	if len(got) != 2 {
		t.Fatalf("expected slots at 11:00 and 11:30, got %d", len(got))
	}
}

func TestSlice_Buffers(t *testing.T) {
	free := []TimeRange{{
		Start: time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 2, 11, 0, 0, 0, time.UTC),
	}}
	q := SlotQuery{
		Duration:     30 * time.Minute,
		Interval:     30 * time.Minute,
		BufferBefore: 30 * time.Minute,
		BufferAfter:  30 * time.Minute,
	}

	got := Slice(free, q, farPast)
	// Usable window is 09:30 .. 10:00 (latest start fitting 30m event
	// plus 30m trailing buffer before 11:00).
	if len(got) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(got))
	}
	if got[0].Minute() != 30 || got[0].Hour() != 9 {
		t.Fatalf("expected first slot 09:30, got %s", got[0])
	}
}

func TestSlice_IntervalDefaultsToDuration(t *testing.T) {
	free := []TimeRange{{
		Start: time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC),
	}}
	q := SlotQuery{Duration: time.Hour}

	got := Slice(free, q, farPast)
	if len(got) != 3 {
		t.Fatalf("expected hourly slots at 09,10,11, got %d", len(got))
	}
}

func TestSlice_NoDeduplicationAcrossRanges(t *testing.T) {
	r := TimeRange{
		Start: time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC),
	}
	q := SlotQuery{Duration: time.Hour}
	got := Slice([]TimeRange{r, r}, q, farPast)
	if len(got) != 2 {
		t.Fatalf("duplicate source ranges must produce duplicate slots, got %d", len(got))
	}
}

func TestSlice_ZeroDuration(t *testing.T) {
	if got := Slice([]TimeRange{utcRange(t, 2, 9, 17)}, SlotQuery{}, farPast); got != nil {
		t.Fatalf("expected nil for zero duration, got %v", got)
	}
}
