package availability

import (
	"testing"
	"time"
)

var farPast = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func TestExpandRule_WeekdayFilter(t *testing.T) {
	rule := WeeklyRule{
		Days:        []time.Weekday{time.Monday, time.Wednesday},
		StartMinute: 9 * 60,
		EndMinute:   17 * 60,
	}
	// 2026-02-02 is a Monday.
	from := Date{2026, time.February, 2}
	to := Date{2026, time.February, 8}

	got := expandRule(rule, time.UTC, from, to, farPast)
	if len(got) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(got))
	}
	if !got[0].Start.Equal(time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected monday start: %s", got[0].Start)
	}
	if !got[1].Start.Equal(time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected wednesday start: %s", got[1].Start)
	}
}

func TestExpandRule_EmptyDays(t *testing.T) {
	rule := WeeklyRule{StartMinute: 9 * 60, EndMinute: 17 * 60}
	got := expandRule(rule, time.UTC, Date{2026, time.February, 2}, Date{2026, time.February, 8}, farPast)
	if len(got) != 0 {
		t.Fatalf("expected no ranges for empty days, got %d", len(got))
	}
}

func TestExpandRule_InvertedTimes(t *testing.T) {
	rule := WeeklyRule{
		Days:        []time.Weekday{time.Monday},
		StartMinute: 17 * 60,
		EndMinute:   9 * 60,
	}
	got := expandRule(rule, time.UTC, Date{2026, time.February, 2}, Date{2026, time.February, 8}, farPast)
	if len(got) != 0 {
		t.Fatalf("expected inverted rule to expand to nothing, got %d ranges", len(got))
	}
}

func TestExpandRule_ClampsPastStart(t *testing.T) {
	rule := WeeklyRule{
		Days:        []time.Weekday{time.Monday},
		StartMinute: 9 * 60,
		EndMinute:   17 * 60,
	}
	day := Date{2026, time.February, 2}
	now := time.Date(2026, 2, 2, 12, 30, 0, 0, time.UTC)

	got := expandRule(rule, time.UTC, day, day, now)
	if len(got) != 1 {
		t.Fatalf("expected 1 range, got %d", len(got))
	}
	want := now.Add(time.Second)
	if !got[0].Start.Equal(want) {
		t.Fatalf("expected start clamped to %s, got %s", want, got[0].Start)
	}
	if !got[0].End.Equal(time.Date(2026, 2, 2, 17, 0, 0, 0, time.UTC)) {
		t.Fatalf("end must be untouched, got %s", got[0].End)
	}
}

func TestExpandRule_FullyElapsedDayDropped(t *testing.T) {
	rule := WeeklyRule{
		Days:        []time.Weekday{time.Monday},
		StartMinute: 9 * 60,
		EndMinute:   17 * 60,
	}
	day := Date{2026, time.February, 2}
	now := time.Date(2026, 2, 2, 18, 0, 0, 0, time.UTC)

	got := expandRule(rule, time.UTC, day, day, now)
	if len(got) != 0 {
		t.Fatalf("expected no ranges once the day has elapsed, got %d", len(got))
	}
}

func TestExpandRule_DSTSpringForward(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	rule := WeeklyRule{
		Days:        []time.Weekday{time.Monday},
		StartMinute: 9 * 60,
		EndMinute:   17 * 60,
	}
	// DST starts Sunday 2026-03-08 in New York; the Mondays on either
	// side are 03-02 (EST) and 03-09 (EDT).
	got := expandRule(rule, loc, Date{2026, time.March, 1}, Date{2026, time.March, 14}, farPast)
	if len(got) != 2 {
		t.Fatalf("expected 2 mondays, got %d", len(got))
	}
	for _, r := range got {
		localStart := r.Start.In(loc)
		localEnd := r.End.In(loc)
		if localStart.Hour() != 9 || localStart.Minute() != 0 {
			t.Fatalf("local start shifted across DST: %s", localStart)
		}
		if localEnd.Hour() != 17 || localEnd.Minute() != 0 {
			t.Fatalf("local end shifted across DST: %s", localEnd)
		}
	}
	_, offBefore := got[0].Start.In(loc).Zone()
	_, offAfter := got[1].Start.In(loc).Zone()
	if offBefore == offAfter {
		t.Fatalf("expected UTC offsets to differ across spring-forward, both %d", offBefore)
	}
}

func TestExpandRule_DSTFallBack(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	rule := WeeklyRule{
		Days:        []time.Weekday{time.Monday},
		StartMinute: 9 * 60,
		EndMinute:   17 * 60,
	}
	// DST ends Sunday 2026-11-01; Mondays 10-26 (EDT) and 11-02 (EST).
	got := expandRule(rule, loc, Date{2026, time.October, 25}, Date{2026, time.November, 7}, farPast)
	if len(got) != 2 {
		t.Fatalf("expected 2 mondays, got %d", len(got))
	}
	for _, r := range got {
		localStart := r.Start.In(loc)
		if localStart.Hour() != 9 || localStart.Minute() != 0 {
			t.Fatalf("local start shifted across fall-back: %s", localStart)
		}
		if r.End.Sub(r.Start) != 8*time.Hour {
			t.Fatalf("expected 8h range, got %s", r.End.Sub(r.Start))
		}
	}
}

func TestApplyOverride_ZeroLengthPreserved(t *testing.T) {
	o := DateOverride{Date: Date{2026, time.February, 3}, StartMinute: 0, EndMinute: 0}
	r := applyOverride(o, time.UTC)
	if !r.IsZero() {
		t.Fatal("expected zero-length range for blocked override")
	}
	if !r.Start.Equal(time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected override start: %s", r.Start)
	}
}

func TestApplyOverride_NoPastClamping(t *testing.T) {
	o := DateOverride{Date: Date{2020, time.June, 1}, StartMinute: 10 * 60, EndMinute: 12 * 60}
	r := applyOverride(o, time.UTC)
	if !r.Start.Equal(time.Date(2020, 6, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("override start must not be clamped, got %s", r.Start)
	}
}
