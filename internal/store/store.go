package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"icetime-service/internal/schedule"
)

var ErrDuplicateSlot = errors.New("slot already exists")

// Backend is the persistence/sync collaborator behind the weekly view.
//
// expectedVersion of zero skips the optimistic-concurrency check; any other
// value must match the stored slot's version or the call fails with
// schedule.ErrVersionConflict.
type Backend interface {
	FetchWeek(ctx context.Context, week schedule.Week) ([]schedule.IceSlot, error)
	GetSlot(ctx context.Context, id string) (schedule.IceSlot, error)
	CreateSlot(ctx context.Context, slot schedule.IceSlot) (schedule.IceSlot, error)
	// UpsertSlots inserts new slots and refreshes unassigned ones; assigned
	// slots are never overwritten. It returns how many rows changed.
	UpsertSlots(ctx context.Context, slots []schedule.IceSlot) (int, error)
	Assign(ctx context.Context, slotID string, team schedule.TeamRef, expectedVersion int64) (schedule.IceSlot, error)
	Unassign(ctx context.Context, slotID string, expectedVersion int64) (schedule.IceSlot, error)
	// ListAssigned returns a team's slots dated within [from, to], ordered by date and start.
	ListAssigned(ctx context.Context, teamID string, from, to time.Time) ([]schedule.IceSlot, error)
}

func unknownSlot(op, id string) error {
	return schedule.Failed(op, fmt.Errorf("%w: %s", schedule.ErrUnknownSlot, id))
}

// checkMutation applies the shared preconditions of assign/unassign to the
// currently stored slot.
func checkMutation(op string, current schedule.IceSlot, expectedVersion int64, wantAssigned bool) error {
	if expectedVersion != 0 && current.Version != expectedVersion {
		return schedule.Failed(op, fmt.Errorf("%w: %s is at version %d, not %d",
			schedule.ErrVersionConflict, current.ID, current.Version, expectedVersion))
	}
	if wantAssigned && !current.IsAssigned {
		return schedule.Failed(op, fmt.Errorf("%w: %s", schedule.ErrNotAssigned, current.ID))
	}
	if !wantAssigned && current.IsAssigned {
		return schedule.Failed(op, fmt.Errorf("%w: %s is held by %s", schedule.ErrAlreadyAssigned, current.ID, current.TeamName))
	}
	return nil
}

// sameShape reports whether an import would leave the stored slot as is.
func sameShape(a, b schedule.IceSlot) bool {
	return a.Date == b.Date && a.StartTime == b.StartTime && a.EndTime == b.EndTime &&
		a.Type == b.Type && a.Rink == b.Rink && a.Source == b.Source
}

func sortByStart(slots []schedule.IceSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].StartTime < slots[j].StartTime
	})
}
