package teams

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"icetime-service/internal/schedule"
)

var (
	ErrNotFound         = errors.New("team not found")
	ErrDuplicate        = errors.New("team already exists")
	ErrEmptyName        = errors.New("team name is required")
	ErrEmptyManagerName = errors.New("manager name is required")
	ErrInvalidEmail     = errors.New("manager email is invalid")
)

// Team is a hockey team registered with the association.
type Team struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	ManagerName  string    `json:"manager_name" yaml:"manager_name"`
	ManagerEmail string    `json:"manager_email" yaml:"manager_email"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(t.ManagerName) == "" {
		return ErrEmptyManagerName
	}
	addr, err := mail.ParseAddress(t.ManagerEmail)
	if err != nil || addr.Address != strings.TrimSpace(t.ManagerEmail) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, t.ManagerEmail)
	}
	return nil
}

// Ref is the slice of the team the scheduling core cares about.
func (t Team) Ref() schedule.TeamRef {
	return schedule.TeamRef{ID: t.ID, Name: t.Name}
}

// Directory resolves team identities for assignment and exports.
type Directory interface {
	ListTeams(ctx context.Context) ([]Team, error)
	ResolveTeam(ctx context.Context, id string) (Team, error)
	CreateTeam(ctx context.Context, team Team) (Team, error)
}

// DemoTeams are the three teams the demo week is seeded with.
func DemoTeams() []Team {
	return []Team{
		{ID: "1", Name: "Mighty Ducks", ManagerName: "Gordon Bombay", ManagerEmail: "gordon@mightyducks.com", CreatedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{ID: "2", Name: "Ice Hawks", ManagerName: "Sarah Johnson", ManagerEmail: "sarah@icehawks.com", CreatedAt: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)},
		{ID: "3", Name: "Storm Riders", ManagerName: "Mike Wilson", ManagerEmail: "mike@stormriders.com", CreatedAt: time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)},
	}
}
