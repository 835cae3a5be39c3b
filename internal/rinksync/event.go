package rinksync

import (
	"strings"
	"time"

	"icetime-service/internal/schedule"
)

// Event is a timed calendar entry from a rink feed or calendar.
type Event struct {
	UID      string
	Summary  string
	Location string
	Start    time.Time
	End      time.Time
	AllDay   bool
}

// SlotType guesses the slot type from the event title.
func SlotType(summary string) schedule.SlotType {
	if strings.Contains(strings.ToLower(summary), "game") {
		return schedule.Game
	}
	return schedule.Practice
}

// EventsToSlots converts the events that start inside week (in loc) to
// open ice slots. All-day events and events that do not end on the day they
// start are skipped. Ids are "<source>-<uid>-<date>" so reimports are stable.
func EventsToSlots(source, rink string, events []Event, week schedule.Week, loc *time.Location) []schedule.IceSlot {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]schedule.IceSlot, 0, len(events))
	for _, ev := range events {
		if ev.AllDay || ev.UID == "" {
			continue
		}
		start, end := ev.Start.In(loc), ev.End.In(loc)
		date := schedule.FormatDate(start)
		if !week.Contains(date) || !end.After(start) || schedule.FormatDate(end) != date {
			continue
		}
		slotRink := rink
		if ev.Location != "" {
			slotRink = ev.Location
		}
		out = append(out, schedule.IceSlot{
			ID:        source + "-" + schedule.Slug(ev.UID) + "-" + date,
			Date:      date,
			StartTime: start.Format("15:04"),
			EndTime:   end.Format("15:04"),
			Type:      SlotType(ev.Summary),
			Rink:      slotRink,
			Source:    source,
		})
	}
	return out
}

// Bounds returns the instants covering week's seven days in loc.
func Bounds(week schedule.Week, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := week.Start.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 7)
}
