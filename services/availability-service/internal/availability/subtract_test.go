package availability

import (
	"testing"
	"time"
)

func TestSubtract_CarvesGaps(t *testing.T) {
	source := []TimeRange{utcRange(t, 2, 9, 17)}
	busy := []TimeRange{utcRange(t, 2, 11, 12), utcRange(t, 2, 14, 15)}

	got := Subtract(source, busy)
	if len(got) != 3 {
		t.Fatalf("expected 3 gaps, got %d", len(got))
	}
	wantHours := [][2]int{{9, 11}, {12, 14}, {15, 17}}
	for i, w := range wantHours {
		if got[i].Start.Hour() != w[0] || got[i].End.Hour() != w[1] {
			t.Fatalf("gap %d: expected %d-%d, got %s - %s", i, w[0], w[1], got[i].Start, got[i].End)
		}
	}
}

func TestSubtract_FullyCoveredEmitsNothing(t *testing.T) {
	source := []TimeRange{utcRange(t, 2, 10, 12)}
	busy := []TimeRange{utcRange(t, 2, 9, 13)}
	if got := Subtract(source, busy); len(got) != 0 {
		t.Fatalf("expected nothing, got %d ranges", len(got))
	}
}

func TestSubtract_OverlappingBusyRanges(t *testing.T) {
	source := []TimeRange{utcRange(t, 2, 9, 17)}
	busy := []TimeRange{utcRange(t, 2, 10, 13), utcRange(t, 2, 12, 14)}

	got := Subtract(source, busy)
	if len(got) != 2 {
		t.Fatalf("expected 2 gaps, got %d", len(got))
	}
	if got[0].End.Hour() != 10 || got[1].Start.Hour() != 14 {
		t.Fatalf("unexpected gaps: %v", got)
	}
}

func TestSubtract_Idempotent(t *testing.T) {
	source := []TimeRange{utcRange(t, 2, 9, 17), utcRange(t, 3, 9, 17)}
	busy := []TimeRange{utcRange(t, 2, 11, 12), utcRange(t, 3, 9, 10)}

	once := Subtract(source, busy)
	twice := Subtract(once, busy)
	if len(once) != len(twice) {
		t.Fatalf("idempotence violated: %d vs %d ranges", len(once), len(twice))
	}
	for i := range once {
		if !once[i].Start.Equal(twice[i].Start) || !once[i].End.Equal(twice[i].End) {
			t.Fatalf("range %d differs after second subtraction: %v vs %v", i, once[i], twice[i])
		}
	}
}

func TestSubtract_DisjointBusyLeavesSourceIntact(t *testing.T) {
	source := []TimeRange{utcRange(t, 2, 9, 17)}
	busy := []TimeRange{utcRange(t, 3, 9, 17)}
	got := Subtract(source, busy)
	if len(got) != 1 || !got[0].Start.Equal(source[0].Start) || !got[0].End.Equal(source[0].End) {
		t.Fatalf("expected source untouched, got %v", got)
	}
}

func TestSubtract_BusyEdgeTouchingIsNotOverlap(t *testing.T) {
	source := []TimeRange{utcRange(t, 2, 9, 12)}
	busy := []TimeRange{utcRange(t, 2, 12, 13)}
	got := Subtract(source, busy)
	if len(got) != 1 || !got[0].End.Equal(time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("touching busy range must not trim the source, got %v", got)
	}
}
