package schedule

import (
	"fmt"
	"time"
)

type SlotType string

const (
	Practice SlotType = "practice"
	Game     SlotType = "game"
)

func ParseSlotType(s string) (SlotType, error) {
	switch SlotType(s) {
	case Practice, Game:
		return SlotType(s), nil
	}
	return "", fmt.Errorf("%w: type must be practice or game, got %q", ErrInvalidSlot, s)
}

// Slot sources.
const (
	SourceManual   = "manual"
	SourceTemplate = "template"
	SourceICS      = "ics"
	SourceGoogle   = "google"
	SourceSeed     = "seed"
)

// IceSlot is a bookable block of rink time on one calendar date.
// The interval [StartTime, EndTime) is local time of day in HH:MM.
type IceSlot struct {
	ID         string   `json:"id"`
	Date       string   `json:"date"`
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
	Type       SlotType `json:"type"`
	IsAssigned bool     `json:"is_assigned"`
	TeamID     string   `json:"team_id,omitempty"`
	TeamName   string   `json:"team_name,omitempty"`
	Rink       string   `json:"rink,omitempty"`
	Source     string   `json:"source,omitempty"`
	// Version increments on every mutation and backs optimistic concurrency.
	Version int64 `json:"version"`
}

// TeamRef is the identity a slot carries once assigned.
type TeamRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Validate checks the slot's date, time range, type and that the
// assignment fields are either fully set or fully absent.
func (s IceSlot) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidSlot)
	}
	if _, err := ParseDate(s.Date); err != nil {
		return fmt.Errorf("%w: date %q must be yyyy-mm-dd", ErrInvalidSlot, s.Date)
	}
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return err
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("%w: end_time must be after start_time", ErrInvalidSlot)
	}
	if _, err := ParseSlotType(string(s.Type)); err != nil {
		return err
	}
	if s.IsAssigned && (s.TeamID == "" || s.TeamName == "") {
		return fmt.Errorf("%w: assigned slot needs team_id and team_name", ErrInvalidSlot)
	}
	if !s.IsAssigned && (s.TeamID != "" || s.TeamName != "") {
		return fmt.Errorf("%w: unassigned slot cannot carry a team", ErrInvalidSlot)
	}
	return nil
}

// Duration is the length of the slot, or zero when its times do not parse.
func (s IceSlot) Duration() time.Duration {
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return 0
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return 0
	}
	return end - start
}

// Overlaps reports whether both slots are on the same date and their
// half-open time ranges intersect.
func (s IceSlot) Overlaps(other IceSlot) bool {
	if s.Date != other.Date {
		return false
	}
	aStart, err1 := ParseClock(s.StartTime)
	aEnd, err2 := ParseClock(s.EndTime)
	bStart, err3 := ParseClock(other.StartTime)
	bEnd, err4 := ParseClock(other.EndTime)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return false
	}
	return aStart < bEnd && bStart < aEnd
}

// StartAt combines the slot's date and start time in loc.
func (s IceSlot) StartAt(loc *time.Location) (time.Time, error) {
	return s.at(s.StartTime, loc)
}

// EndAt combines the slot's date and end time in loc.
func (s IceSlot) EndAt(loc *time.Location) (time.Time, error) {
	return s.at(s.EndTime, loc)
}

func (s IceSlot) at(clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := ParseDate(s.Date)
	if err != nil {
		return time.Time{}, err
	}
	offset, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(offset), nil
}

// ParseClock parses an HH:MM time of day into the offset from midnight.
// Anything other than exactly five characters is rejected.
func ParseClock(s string) (time.Duration, error) {
	if len(s) != 5 {
		return 0, fmt.Errorf("%w: invalid time string %q", ErrInvalidSlot, s)
	}
	tt, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid time string %q", ErrInvalidSlot, s)
	}
	return time.Duration(tt.Hour())*time.Hour + time.Duration(tt.Minute())*time.Minute, nil
}

// FormatClock renders an offset from midnight as HH:MM.
func FormatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
