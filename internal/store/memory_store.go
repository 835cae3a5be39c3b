package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"icetime-service/internal/schedule"
)

// MemoryStore keeps a thread-safe set of ice slots in memory, remembering
// insertion order so day listings stay stable.
type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	slots map[string]schedule.IceSlot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots: make(map[string]schedule.IceSlot),
	}
}

func (s *MemoryStore) FetchWeek(_ context.Context, week schedule.Week) ([]schedule.IceSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []schedule.IceSlot{}
	for _, id := range s.order {
		if slot := s.slots[id]; week.Contains(slot.Date) {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetSlot(_ context.Context, id string) (schedule.IceSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[id]
	if !ok {
		return schedule.IceSlot{}, unknownSlot("get slot", id)
	}
	return slot, nil
}

func (s *MemoryStore) CreateSlot(_ context.Context, slot schedule.IceSlot) (schedule.IceSlot, error) {
	if err := slot.Validate(); err != nil {
		return schedule.IceSlot{}, schedule.Invalid(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.slots[slot.ID]; exists {
		return schedule.IceSlot{}, schedule.Failed("create slot", fmt.Errorf("%w: %s", ErrDuplicateSlot, slot.ID))
	}
	slot.Version = 1
	s.insert(slot)
	return slot, nil
}

func (s *MemoryStore) UpsertSlots(_ context.Context, slots []schedule.IceSlot) (int, error) {
	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			return 0, schedule.Invalid(err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, slot := range slots {
		current, exists := s.slots[slot.ID]
		switch {
		case !exists:
			slot.Version = 1
			s.insert(slot)
			changed++
		case current.IsAssigned || sameShape(current, slot):
			continue
		default:
			slot.IsAssigned, slot.TeamID, slot.TeamName = false, "", ""
			slot.Version = current.Version + 1
			s.slots[slot.ID] = slot
			changed++
		}
	}
	return changed, nil
}

func (s *MemoryStore) Assign(_ context.Context, slotID string, team schedule.TeamRef, expectedVersion int64) (schedule.IceSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[slotID]
	if !ok {
		return schedule.IceSlot{}, unknownSlot("assign", slotID)
	}
	if err := checkMutation("assign", slot, expectedVersion, false); err != nil {
		return schedule.IceSlot{}, err
	}
	slot.IsAssigned = true
	slot.TeamID = team.ID
	slot.TeamName = team.Name
	slot.Version++
	s.slots[slotID] = slot
	return slot, nil
}

func (s *MemoryStore) Unassign(_ context.Context, slotID string, expectedVersion int64) (schedule.IceSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[slotID]
	if !ok {
		return schedule.IceSlot{}, unknownSlot("unassign", slotID)
	}
	if err := checkMutation("unassign", slot, expectedVersion, true); err != nil {
		return schedule.IceSlot{}, err
	}
	slot.IsAssigned = false
	slot.TeamID = ""
	slot.TeamName = ""
	slot.Version++
	s.slots[slotID] = slot
	return slot, nil
}

func (s *MemoryStore) ListAssigned(_ context.Context, teamID string, from, to time.Time) ([]schedule.IceSlot, error) {
	lo, hi := schedule.FormatDate(from), schedule.FormatDate(to)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []schedule.IceSlot{}
	for _, id := range s.order {
		slot := s.slots[id]
		if slot.IsAssigned && slot.TeamID == teamID && slot.Date >= lo && slot.Date <= hi {
			out = append(out, slot)
		}
	}
	sortByStart(out)
	return out, nil
}

func (s *MemoryStore) insert(slot schedule.IceSlot) {
	s.order = append(s.order, slot.ID)
	s.slots[slot.ID] = slot
}
