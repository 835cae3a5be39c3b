package schedule

import (
	"fmt"
	"math"
	"time"
)

// WeekView is an immutable snapshot of the ice slots in one week.
// Operations never mutate a view; they return a new one.
type WeekView struct {
	week  Week
	slots []IceSlot
}

// NewWeekView builds a snapshot for week, keeping only slots dated inside
// it. Insertion order is preserved.
func NewWeekView(week Week, slots []IceSlot) WeekView {
	kept := make([]IceSlot, 0, len(slots))
	for _, s := range slots {
		if week.Contains(s.Date) {
			kept = append(kept, s)
		}
	}
	return WeekView{week: week, slots: kept}
}

func (v WeekView) Week() Week { return v.week }

func (v WeekView) Len() int { return len(v.slots) }

// Slots returns a copy of every slot in the view.
func (v WeekView) Slots() []IceSlot {
	out := make([]IceSlot, len(v.slots))
	copy(out, v.slots)
	return out
}

func (v WeekView) Slot(id string) (IceSlot, bool) {
	if i := v.index(id); i >= 0 {
		return v.slots[i], true
	}
	return IceSlot{}, false
}

// SlotsForDay returns the slots whose date equals the calendar day of d.
func (v WeekView) SlotsForDay(d time.Time) []IceSlot {
	return v.slotsOn(FormatDate(d))
}

func (v WeekView) slotsOn(date string) []IceSlot {
	out := []IceSlot{}
	for _, s := range v.slots {
		if s.Date == date {
			out = append(out, s)
		}
	}
	return out
}

// Day groups the slots of a single calendar date.
type Day struct {
	Date    string    `json:"date"`
	Weekday string    `json:"weekday"`
	Slots   []IceSlot `json:"slots"`
}

// Days returns Monday through Sunday with their slots.
func (v WeekView) Days() []Day {
	days := make([]Day, 0, 7)
	for _, d := range v.week.Days() {
		days = append(days, Day{
			Date:    FormatDate(d),
			Weekday: d.Weekday().String()[:3],
			Slots:   v.SlotsForDay(d),
		})
	}
	return days
}

type Summary struct {
	Total     int `json:"total"`
	Assigned  int `json:"assigned"`
	Available int `json:"available"`
	Games     int `json:"games"`
	Practices int `json:"practices"`
	// Utilization is the rounded percentage of slots that are assigned.
	Utilization int `json:"utilization"`
}

func (v WeekView) Summary() Summary {
	var sum Summary
	for _, s := range v.slots {
		sum.Total++
		if s.IsAssigned {
			sum.Assigned++
		} else {
			sum.Available++
		}
		switch s.Type {
		case Game:
			sum.Games++
		case Practice:
			sum.Practices++
		}
	}
	if sum.Total > 0 {
		sum.Utilization = int(math.Round(float64(sum.Assigned) * 100 / float64(sum.Total)))
	}
	return sum
}

// Overlap names two slots on the same date whose times intersect.
// Overlaps are reported, not rejected.
type Overlap struct {
	Date   string `json:"date"`
	First  string `json:"first"`
	Second string `json:"second"`
}

func (v WeekView) Overlaps() []Overlap {
	var out []Overlap
	for i := range v.slots {
		for j := i + 1; j < len(v.slots); j++ {
			if v.slots[i].Overlaps(v.slots[j]) {
				out = append(out, Overlap{
					Date:   v.slots[i].Date,
					First:  v.slots[i].ID,
					Second: v.slots[j].ID,
				})
			}
		}
	}
	return out
}

// Assignable reports whether slotID exists in the view and is still open.
func (v WeekView) Assignable(slotID string) error {
	slot, ok := v.Slot(slotID)
	if !ok {
		return Invalid(fmt.Errorf("%w: %s", ErrUnknownSlot, slotID))
	}
	if slot.IsAssigned {
		return Invalid(fmt.Errorf("%w: %s is held by %s", ErrAlreadyAssigned, slotID, slot.TeamName))
	}
	return nil
}

// With returns a view where the slot sharing slot.ID is replaced, or
// appended when the view does not hold it yet.
func (v WeekView) With(slot IceSlot) WeekView {
	out := v.Slots()
	if i := v.index(slot.ID); i >= 0 {
		out[i] = slot
	} else if v.week.Contains(slot.Date) {
		out = append(out, slot)
	}
	return WeekView{week: v.week, slots: out}
}

func (v WeekView) index(id string) int {
	for i, s := range v.slots {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Assign binds an open slot to team and returns the new view together with
// the updated slot. On error the returned view is v unchanged.
func Assign(v WeekView, slotID string, team TeamRef) (WeekView, IceSlot, error) {
	if err := v.Assignable(slotID); err != nil {
		return v, IceSlot{}, err
	}
	if team.ID == "" || team.Name == "" {
		return v, IceSlot{}, Invalid(fmt.Errorf("%w: %q", ErrUnknownTeam, team.ID))
	}
	slot, _ := v.Slot(slotID)
	slot.IsAssigned = true
	slot.TeamID = team.ID
	slot.TeamName = team.Name
	slot.Version++
	return v.With(slot), slot, nil
}

// Unassign releases an assigned slot back to the open pool.
func Unassign(v WeekView, slotID string) (WeekView, IceSlot, error) {
	slot, ok := v.Slot(slotID)
	if !ok {
		return v, IceSlot{}, Invalid(fmt.Errorf("%w: %s", ErrUnknownSlot, slotID))
	}
	if !slot.IsAssigned {
		return v, IceSlot{}, Invalid(fmt.Errorf("%w: %s", ErrNotAssigned, slotID))
	}
	slot.IsAssigned = false
	slot.TeamID = ""
	slot.TeamName = ""
	slot.Version++
	return v.With(slot), slot, nil
}
