package schedule

import (
	"testing"
	"time"
)

func TestWeekStartIsMondayContainingDate(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		d := base.AddDate(0, 0, i).Add(time.Duration(i) * 37 * time.Minute)
		start := WeekStart(d)
		if start.Weekday() != time.Monday {
			t.Fatalf("expected monday for %s, got %s", d, start.Weekday())
		}
		day := FormatDate(d)
		if day < FormatDate(start) || day > FormatDate(start.AddDate(0, 0, 6)) {
			t.Fatalf("expected %s inside week starting %s", day, FormatDate(start))
		}
	}
}

func TestWeekStartSundayBelongsToPreviousMonday(t *testing.T) {
	sunday := time.Date(2024, 1, 21, 23, 59, 0, 0, time.UTC)
	if got := FormatDate(WeekStart(sunday)); got != "2024-01-15" {
		t.Fatalf("expected 2024-01-15, got %s", got)
	}
}

func TestWeekStartUsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// Monday 22:00 local is already Tuesday in UTC.
	d := time.Date(2024, 1, 15, 22, 0, 0, 0, loc)
	if got := FormatDate(WeekStart(d)); got != "2024-01-15" {
		t.Fatalf("expected 2024-01-15, got %s", got)
	}
}

func TestNavigateRoundTrip(t *testing.T) {
	ref := time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)
	next, err := Navigate(ref, Next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := next.Sub(ref); got != 7*24*time.Hour {
		t.Fatalf("expected 7 days, got %s", got)
	}
	back, _ := Navigate(next, Prev)
	if !back.Equal(ref) {
		t.Fatalf("expected %s, got %s", ref, back)
	}
	prev, _ := Navigate(ref, Prev)
	forward, _ := Navigate(prev, Next)
	if !forward.Equal(ref) {
		t.Fatalf("expected %s, got %s", ref, forward)
	}
}

func TestNavigateRejectsUnknownDirection(t *testing.T) {
	ref := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	got, err := Navigate(ref, Direction("sideways"))
	if err == nil {
		t.Fatal("expected error for unknown direction")
	}
	if !got.Equal(ref) {
		t.Fatalf("expected reference unchanged, got %s", got)
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("next"); err != nil || d != Next {
		t.Fatalf("expected next, got %q err=%v", d, err)
	}
	if _, err := ParseDirection(""); err == nil {
		t.Fatal("expected error for empty direction")
	}
}

func TestWeekDaysAndContains(t *testing.T) {
	w := WeekOf(time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC))
	days := w.Days()
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
	if FormatDate(days[0]) != "2024-01-15" || FormatDate(days[6]) != "2024-01-21" {
		t.Fatalf("unexpected range %s..%s", FormatDate(days[0]), FormatDate(days[6]))
	}
	if !w.Contains("2024-01-21") || w.Contains("2024-01-22") || w.Contains("2024-01-14") {
		t.Fatal("contains boundaries are wrong")
	}
	next, _ := w.Navigate(Next)
	if next.String() != "2024-01-22" {
		t.Fatalf("expected 2024-01-22, got %s", next)
	}
}
