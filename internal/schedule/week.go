package schedule

import (
	"fmt"
	"time"
)

// DateLayout is the canonical calendar-date format for slots ("yyyy-MM-dd").
const DateLayout = "2006-01-02"

type Direction string

const (
	Prev Direction = "prev"
	Next Direction = "next"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Prev, Next:
		return Direction(s), nil
	}
	return "", fmt.Errorf("invalid direction %q (want prev or next)", s)
}

// ParseDate parses a yyyy-MM-dd string into midnight UTC of that day.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate formats the calendar day of t, ignoring its clock and zone offset.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// civil drops the clock, keeping the calendar day t shows in its own zone.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Week is the Monday-to-Sunday window used for calendar navigation.
type Week struct {
	Start time.Time
}

// WeekStart returns the Monday of the week containing d.
func WeekStart(d time.Time) time.Time {
	day := civil(d)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func WeekOf(d time.Time) Week {
	return Week{Start: WeekStart(d)}
}

// Navigate moves a reference date exactly seven days in the given direction.
func Navigate(ref time.Time, dir Direction) (time.Time, error) {
	switch dir {
	case Next:
		return ref.AddDate(0, 0, 7), nil
	case Prev:
		return ref.AddDate(0, 0, -7), nil
	}
	return ref, fmt.Errorf("invalid direction %q", dir)
}

// End returns the Sunday closing the week.
func (w Week) End() time.Time {
	return w.Start.AddDate(0, 0, 6)
}

// Days returns the seven dates of the week, Monday first.
func (w Week) Days() []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = w.Start.AddDate(0, 0, i)
	}
	return days
}

// Contains reports whether the yyyy-MM-dd date falls inside the week.
func (w Week) Contains(date string) bool {
	return date >= FormatDate(w.Start) && date <= FormatDate(w.End())
}

func (w Week) Navigate(dir Direction) (Week, error) {
	start, err := Navigate(w.Start, dir)
	if err != nil {
		return w, err
	}
	return Week{Start: start}, nil
}

func (w Week) String() string {
	return FormatDate(w.Start)
}
