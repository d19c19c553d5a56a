package availability

import (
	"testing"
	"time"
)

func utcRange(t *testing.T, day, startHour, endHour int) TimeRange {
	t.Helper()
	return TimeRange{
		Start: time.Date(2026, 2, day, startHour, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, day, endHour, 0, 0, 0, time.UTC),
	}
}

func TestIntersect_Identity(t *testing.T) {
	a := []TimeRange{utcRange(t, 2, 9, 17), utcRange(t, 3, 9, 17)}
	got := Intersect([][]TimeRange{a})
	if len(got) != len(a) {
		t.Fatalf("expected %d ranges, got %d", len(a), len(got))
	}
	for i := range a {
		if !got[i].Start.Equal(a[i].Start) || !got[i].End.Equal(a[i].End) {
			t.Fatalf("range %d changed: %v vs %v", i, got[i], a[i])
		}
	}
}

func TestIntersect_Commutative(t *testing.T) {
	a := []TimeRange{utcRange(t, 2, 9, 13), utcRange(t, 2, 14, 17)}
	b := []TimeRange{utcRange(t, 2, 10, 15)}

	ab := Intersect([][]TimeRange{a, b})
	ba := Intersect([][]TimeRange{b, a})
	if len(ab) != len(ba) {
		t.Fatalf("result cardinality differs: %d vs %d", len(ab), len(ba))
	}
	for i := range ab {
		if !ab[i].Start.Equal(ba[i].Start) || !ab[i].End.Equal(ba[i].End) {
			t.Fatalf("result %d differs: %v vs %v", i, ab[i], ba[i])
		}
	}
	if len(ab) != 2 {
		t.Fatalf("expected 2 overlaps, got %d", len(ab))
	}
	if ab[0].Start.Hour() != 10 || ab[0].End.Hour() != 13 {
		t.Fatalf("unexpected first overlap: %v", ab[0])
	}
	if ab[1].Start.Hour() != 14 || ab[1].End.Hour() != 15 {
		t.Fatalf("unexpected second overlap: %v", ab[1])
	}
}

func TestIntersect_EmptyParticipantEmptiesResult(t *testing.T) {
	a := []TimeRange{utcRange(t, 2, 9, 17)}
	got := Intersect([][]TimeRange{a, nil})
	if len(got) != 0 {
		t.Fatalf("expected empty intersection, got %d ranges", len(got))
	}
}

func TestIntersect_TouchingRangesDoNotOverlap(t *testing.T) {
	a := []TimeRange{utcRange(t, 2, 9, 12)}
	b := []TimeRange{utcRange(t, 2, 12, 17)}
	got := Intersect([][]TimeRange{a, b})
	if len(got) != 0 {
		t.Fatalf("touching ranges must not intersect, got %d", len(got))
	}
}

func TestIntersect_NoParticipants(t *testing.T) {
	if got := Intersect(nil); got != nil {
		t.Fatalf("expected nil for zero participants, got %v", got)
	}
}
