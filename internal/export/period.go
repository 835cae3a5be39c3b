package export

import (
	"fmt"
	"time"

	"icetime-service/internal/schedule"
)

type Period string

const (
	CurrentWeek  Period = "current-week"
	NextWeek     Period = "next-week"
	CurrentMonth Period = "current-month"
	NextMonth    Period = "next-month"
	Custom       Period = "custom"
)

// Range is an inclusive span of calendar dates.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) String() string {
	return schedule.FormatDate(r.From) + " to " + schedule.FormatDate(r.To)
}

// Resolve turns p into concrete dates relative to now. from and to are only
// read for Custom and must be yyyy-mm-dd.
func (p Period) Resolve(now time.Time, from, to string) (Range, error) {
	switch p {
	case CurrentWeek, NextWeek:
		week := schedule.WeekOf(now)
		if p == NextWeek {
			week, _ = week.Navigate(schedule.Next)
		}
		return Range{From: week.Start, To: week.End()}, nil
	case CurrentMonth, NextMonth:
		y, m, _ := now.Date()
		start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		if p == NextMonth {
			start = start.AddDate(0, 1, 0)
		}
		return Range{From: start, To: start.AddDate(0, 1, -1)}, nil
	case Custom:
		if from == "" || to == "" {
			return Range{}, fmt.Errorf("%w: custom range needs from and to", schedule.ErrMissingSelection)
		}
		f, err := schedule.ParseDate(from)
		if err != nil {
			return Range{}, fmt.Errorf("invalid from date %q", from)
		}
		t, err := schedule.ParseDate(to)
		if err != nil {
			return Range{}, fmt.Errorf("invalid to date %q", to)
		}
		if t.Before(f) {
			return Range{}, fmt.Errorf("to date %s is before from date %s", to, from)
		}
		return Range{From: f, To: t}, nil
	}
	return Range{}, fmt.Errorf("unsupported period %q", p)
}

type Format string

const (
	CSV   Format = "csv"
	Excel Format = "excel"
	PDF   Format = "pdf"
)

func (f Format) Valid() bool {
	switch f {
	case CSV, Excel, PDF:
		return true
	}
	return false
}

// Extension is the file extension an export in this format would carry.
func (f Format) Extension() string {
	if f == Excel {
		return "xlsx"
	}
	return string(f)
}
