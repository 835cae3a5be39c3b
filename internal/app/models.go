package app

import (
	"icetime-service/internal/notify"
	"icetime-service/internal/schedule"
)

// WeekResponse is the weekly calendar: seven days of slots plus totals.
type WeekResponse struct {
	WeekStart string             `json:"week_start"`
	WeekEnd   string             `json:"week_end"`
	Prev      string             `json:"prev"`
	Next      string             `json:"next"`
	Days      []schedule.Day     `json:"days"`
	Summary   schedule.Summary   `json:"summary"`
	Overlaps  []schedule.Overlap `json:"overlaps,omitempty"`
	Slots     int                `json:"slot_count"`
}

func newWeekResponse(v schedule.WeekView) WeekResponse {
	week := v.Week()
	prev, _ := week.Navigate(schedule.Prev)
	next, _ := week.Navigate(schedule.Next)
	return WeekResponse{
		WeekStart: week.String(),
		WeekEnd:   schedule.FormatDate(week.End()),
		Prev:      prev.String(),
		Next:      next.String(),
		Days:      v.Days(),
		Summary:   v.Summary(),
		Overlaps:  v.Overlaps(),
		Slots:     v.Len(),
	}
}

// OverviewResponse backs the dashboard cards: team count, the week's slot
// summary and the latest notifications.
type OverviewResponse struct {
	WeekStart string           `json:"week_start"`
	Teams     int              `json:"teams"`
	Summary   schedule.Summary `json:"summary"`
	Recent    []notify.Toast   `json:"recent"`
}

type createSlotReq struct {
	ID        string `json:"id,omitempty"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Type      string `json:"type" binding:"required"`
	Rink      string `json:"rink,omitempty"`
}

type assignReq struct {
	TeamID  string `json:"team_id"`
	Version int64  `json:"version,omitempty"`
}

type unassignReq struct {
	Version int64 `json:"version,omitempty"`
}

type createTeamReq struct {
	Name         string `json:"name"`
	ManagerName  string `json:"manager_name"`
	ManagerEmail string `json:"manager_email"`
}

type importReq struct {
	CalendarID string `json:"calendar_id"`
	Week       string `json:"week"`
	Rink       string `json:"rink,omitempty"`
}
