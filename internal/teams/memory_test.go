package teams

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryDirectoryResolve(t *testing.T) {
	d := NewMemoryDirectory(DemoTeams()...)

	team, err := d.ResolveTeam(context.Background(), "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if team.Name != "Ice Hawks" {
		t.Fatalf("expected Ice Hawks, got %s", team.Name)
	}
	if ref := team.Ref(); ref.ID != "2" || ref.Name != "Ice Hawks" {
		t.Fatalf("unexpected ref %+v", ref)
	}

	if _, err := d.ResolveTeam(context.Background(), "99"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryDirectoryCreateFillsDefaults(t *testing.T) {
	d := NewMemoryDirectory(DemoTeams()...)
	fixed := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	d.Now = func() time.Time { return fixed }
	d.GenerateID = func() string { return "team-4" }

	team, err := d.CreateTeam(context.Background(), Team{
		Name:         "Blue Liners",
		ManagerName:  "Pat Doe",
		ManagerEmail: "pat@blueliners.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if team.ID != "team-4" || !team.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected defaults %+v", team)
	}

	list, _ := d.ListTeams(context.Background())
	if len(list) != 4 || list[3].ID != "team-4" {
		t.Fatalf("expected new team appended last, got %+v", list)
	}
	if _, err := d.CreateTeam(context.Background(), team); err == nil {
		t.Fatal("expected duplicate id to fail")
	}
}

func TestTeamValidate(t *testing.T) {
	cases := []struct {
		team Team
		want error
	}{
		{Team{ManagerName: "a", ManagerEmail: "a@b.com"}, ErrEmptyName},
		{Team{Name: "x", ManagerEmail: "a@b.com"}, ErrEmptyManagerName},
		{Team{Name: "x", ManagerName: "a", ManagerEmail: "not-an-email"}, ErrInvalidEmail},
		{Team{Name: "x", ManagerName: "a", ManagerEmail: "A <a@b.com>"}, ErrInvalidEmail},
	}
	for _, tc := range cases {
		if err := tc.team.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("expected %v, got %v", tc.want, err)
		}
	}
}

func TestListTeamsReturnsCopy(t *testing.T) {
	d := NewMemoryDirectory(DemoTeams()...)
	list, _ := d.ListTeams(context.Background())
	list[0].Name = "mutated"

	team, _ := d.ResolveTeam(context.Background(), "1")
	if team.Name != "Mighty Ducks" {
		t.Fatalf("expected directory unchanged, got %s", team.Name)
	}
}
