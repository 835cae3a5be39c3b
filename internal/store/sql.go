package store

import (
	"icetime-service/internal/schedule"
	"icetime-service/internal/teams"
)

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (schedule.IceSlot, error) {
	var (
		s   schedule.IceSlot
		typ string
	)
	err := row.Scan(&s.ID, &s.Date, &s.StartTime, &s.EndTime, &typ,
		&s.IsAssigned, &s.TeamID, &s.TeamName, &s.Rink, &s.Source, &s.Version)
	s.Type = schedule.SlotType(typ)
	return s, err
}

func scanTeam(row rowScanner) (teams.Team, error) {
	var t teams.Team
	err := row.Scan(&t.ID, &t.Name, &t.ManagerName, &t.ManagerEmail, &t.CreatedAt)
	return t, err
}

const teamColumns = `id, name, manager_name, manager_email, created_at`
