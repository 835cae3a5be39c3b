package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"18:00", 18 * time.Hour, true},
		{"09:30", 9*time.Hour + 30*time.Minute, true},
		{"09:30:00", 0, false},
		{"18:00x", 0, false},
		{"9:30", 0, false},
		{"25:00", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseClock(%q) = %s, %v; want %s", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseClock(%q) expected error", tc.in)
		}
	}
}

func TestSlotValidate(t *testing.T) {
	valid := IceSlot{ID: "1", Date: "2024-01-15", StartTime: "18:00", EndTime: "19:30", Type: Practice}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid slot, got %v", err)
	}

	cases := map[string]IceSlot{
		"missing id":      {Date: "2024-01-15", StartTime: "18:00", EndTime: "19:30", Type: Practice},
		"bad date":        {ID: "1", Date: "15/01/2024", StartTime: "18:00", EndTime: "19:30", Type: Practice},
		"reversed times":  {ID: "1", Date: "2024-01-15", StartTime: "19:30", EndTime: "18:00", Type: Practice},
		"seconds":         {ID: "1", Date: "2024-01-15", StartTime: "09:00:00", EndTime: "19:30", Type: Practice},
		"trailing text":   {ID: "1", Date: "2024-01-15", StartTime: "18:00 banana", EndTime: "19:30", Type: Practice},
		"bad end":         {ID: "1", Date: "2024-01-15", StartTime: "18:00", EndTime: "19:30x", Type: Practice},
		"empty range":     {ID: "1", Date: "2024-01-15", StartTime: "18:00", EndTime: "18:00", Type: Practice},
		"bad type":        {ID: "1", Date: "2024-01-15", StartTime: "18:00", EndTime: "19:30", Type: "scrimmage"},
		"half assigned":   {ID: "1", Date: "2024-01-15", StartTime: "18:00", EndTime: "19:30", Type: Game, IsAssigned: true, TeamID: "2"},
		"team but opened": {ID: "1", Date: "2024-01-15", StartTime: "18:00", EndTime: "19:30", Type: Game, TeamID: "2", TeamName: "Ice Hawks"},
	}
	for name, slot := range cases {
		err := slot.Validate()
		if !errors.Is(err, ErrInvalidSlot) {
			t.Fatalf("%s: expected ErrInvalidSlot, got %v", name, err)
		}
	}
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	a := IceSlot{Date: "2024-01-15", StartTime: "18:00", EndTime: "19:30"}
	touching := IceSlot{Date: "2024-01-15", StartTime: "19:30", EndTime: "21:00"}
	inside := IceSlot{Date: "2024-01-15", StartTime: "19:00", EndTime: "19:15"}
	otherDay := IceSlot{Date: "2024-01-16", StartTime: "18:00", EndTime: "19:30"}

	if a.Overlaps(touching) {
		t.Fatal("back-to-back slots must not overlap")
	}
	if !a.Overlaps(inside) || !inside.Overlaps(a) {
		t.Fatal("expected nested slot to overlap both ways")
	}
	if a.Overlaps(otherDay) {
		t.Fatal("slots on different dates must not overlap")
	}
}

func TestStartAtAndDuration(t *testing.T) {
	s := IceSlot{Date: "2024-01-15", StartTime: "18:00", EndTime: "19:30"}
	loc := time.FixedZone("EST", -5*3600)
	start, err := s.StartAt(loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 18 || start.Location() != loc || start.Day() != 15 {
		t.Fatalf("unexpected start %s", start)
	}
	if got := s.Duration(); got != 90*time.Minute {
		t.Fatalf("expected 90m, got %s", got)
	}
}

func TestErrorClassification(t *testing.T) {
	v := Invalid(ErrUnknownTeam)
	if !IsValidation(v) || IsExecution(v) || !errors.Is(v, ErrUnknownTeam) {
		t.Fatalf("unexpected classification for %v", v)
	}
	e := Failed("assign", ErrVersionConflict)
	if !IsExecution(e) || IsValidation(e) || !errors.Is(e, ErrVersionConflict) {
		t.Fatalf("unexpected classification for %v", e)
	}
	if Invalid(nil) != nil || Failed("x", nil) != nil {
		t.Fatal("expected nil passthrough")
	}
}
