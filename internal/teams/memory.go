package teams

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryDirectory keeps teams in memory, preserving insertion order.
type MemoryDirectory struct {
	mu    sync.RWMutex
	order []string
	teams map[string]Team

	Now        func() time.Time
	GenerateID func() string
}

func NewMemoryDirectory(seed ...Team) *MemoryDirectory {
	d := &MemoryDirectory{
		teams:      make(map[string]Team),
		Now:        time.Now,
		GenerateID: func() string { return uuid.New().String() },
	}
	for _, t := range seed {
		d.put(t)
	}
	return d
}

func (d *MemoryDirectory) put(t Team) {
	if _, ok := d.teams[t.ID]; !ok {
		d.order = append(d.order, t.ID)
	}
	d.teams[t.ID] = t
}

// ListTeams returns a copy of every team in insertion order.
func (d *MemoryDirectory) ListTeams(_ context.Context) ([]Team, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Team, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.teams[id])
	}
	return out, nil
}

func (d *MemoryDirectory) ResolveTeam(_ context.Context, id string) (Team, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.teams[id]
	if !ok {
		return Team{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

// CreateTeam validates and stores team, filling in ID and CreatedAt when empty.
func (d *MemoryDirectory) CreateTeam(_ context.Context, team Team) (Team, error) {
	if err := team.Validate(); err != nil {
		return Team{}, err
	}
	if team.ID == "" {
		team.ID = d.GenerateID()
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = d.Now().UTC()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.teams[team.ID]; exists {
		return Team{}, fmt.Errorf("%w: %s", ErrDuplicate, team.ID)
	}
	d.put(team)
	return team, nil
}
