package export

import (
	"fmt"
	"strings"

	"icetime-service/internal/schedule"
	"icetime-service/internal/teams"
)

// Row is one line of a team's schedule.
type Row struct {
	Date  string            `json:"date"`
	Day   string            `json:"day"`
	Start string            `json:"start_time"`
	End   string            `json:"end_time"`
	Type  schedule.SlotType `json:"type"`
	Rink  string            `json:"rink,omitempty"`
}

// BuildRows converts assigned slots, already sorted by date and start, to rows.
func BuildRows(slots []schedule.IceSlot) []Row {
	rows := make([]Row, 0, len(slots))
	for _, s := range slots {
		day := ""
		if d, err := schedule.ParseDate(s.Date); err == nil {
			day = d.Weekday().String()[:3]
		}
		rows = append(rows, Row{Date: s.Date, Day: day, Start: s.StartTime, End: s.EndTime, Type: s.Type, Rink: s.Rink})
	}
	return rows
}

// Markdown renders the schedule email body.
func Markdown(team teams.Team, rng Range, rows []Row) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s ice schedule\n\n", team.Name)
	fmt.Fprintf(&b, "Hi %s, here is your ice time for %s.\n\n", team.ManagerName, rng)
	if len(rows) == 0 {
		b.WriteString("No ice time is assigned to your team in this period.\n")
		return b.String()
	}
	b.WriteString("| Date | Day | Time | Type | Rink |\n|---|---|---|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s-%s | %s | %s |\n", r.Date, r.Day, r.Start, r.End, r.Type, r.Rink)
	}
	fmt.Fprintf(&b, "\n%d slot(s) in total.\n", len(rows))
	return b.String()
}
