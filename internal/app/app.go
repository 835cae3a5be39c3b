package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"icetime-service/internal/config"
	"icetime-service/internal/export"
	"icetime-service/internal/logging"
	"icetime-service/internal/metrics"
	"icetime-service/internal/notify"
	"icetime-service/internal/rinksync"
	"icetime-service/internal/schedule"
	"icetime-service/internal/store"
	"icetime-service/internal/teams"
)

// App holds the collaborators behind the HTTP API.
type App struct {
	Backend  store.Backend
	Teams    teams.Directory
	Exports  *export.Service
	Sync     *rinksync.Runner
	Feed     *notify.Feed
	Sink     notify.Sink
	Metrics  *metrics.Recorder
	Logger   *slog.Logger
	Location *time.Location
	Google   config.GoogleConfig

	Now   func() time.Time
	NewID func() string

	states oauthStates
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) newID() string {
	if a.NewID != nil {
		return a.NewID()
	}
	return uuid.New().String()
}

func (a *App) location() *time.Location {
	if a.Location != nil {
		return a.Location
	}
	return time.UTC
}

// today is the current calendar date in the rink's time zone.
func (a *App) today() time.Time {
	y, m, d := a.now().In(a.location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (a *App) notify(ctx context.Context, sev notify.Severity, title, description string) {
	if a.Sink == nil {
		return
	}
	a.Sink.Notify(context.WithoutCancel(ctx), notify.Toast{
		Title:       title,
		Description: description,
		Severity:    sev,
		At:          a.now().UTC(),
	})
}

// LoadWeek fetches the week containing date from the backend.
func (a *App) LoadWeek(ctx context.Context, date time.Time) (schedule.WeekView, error) {
	week := schedule.WeekOf(date)
	slots, err := a.Backend.FetchWeek(ctx, week)
	if err != nil {
		return schedule.WeekView{}, err
	}
	return schedule.NewWeekView(week, slots), nil
}

// AssignSlot binds slotID to teamID. The change is checked against the
// current week snapshot first and then written to the backend guarded by
// version; a zero version uses the snapshot's.
func (a *App) AssignSlot(ctx context.Context, slotID, teamID string, version int64) (schedule.IceSlot, error) {
	view, err := a.snapshot(ctx, slotID)
	if err != nil {
		a.Metrics.RecordAssignment(outcomeOf(err))
		return schedule.IceSlot{}, err
	}
	if teamID == "" {
		err := schedule.Invalid(fmt.Errorf("%w: team_id is required", schedule.ErrUnknownTeam))
		a.Metrics.RecordAssignment(outcomeOf(err))
		return schedule.IceSlot{}, err
	}
	team, err := a.Teams.ResolveTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, teams.ErrNotFound) {
			err = schedule.Invalid(fmt.Errorf("%w: %s", schedule.ErrUnknownTeam, teamID))
		} else {
			err = schedule.Failed("resolve team", err)
		}
		a.Metrics.RecordAssignment(outcomeOf(err))
		return schedule.IceSlot{}, err
	}

	current, _ := view.Slot(slotID)
	if _, _, err := schedule.Assign(view, slotID, team.Ref()); err != nil {
		a.Metrics.RecordAssignment(outcomeOf(err))
		return schedule.IceSlot{}, err
	}
	if version == 0 {
		version = current.Version
	}
	slot, err := a.Backend.Assign(ctx, slotID, team.Ref(), version)
	a.Metrics.RecordAssignment(outcomeOf(err))
	if err != nil {
		logging.Warn(a.Logger, "assign failed", logging.FieldSlotID, slotID, logging.FieldTeamID, teamID, "error", err)
		return schedule.IceSlot{}, err
	}

	logging.Info(a.Logger, "slot assigned", logging.FieldSlotID, slotID, logging.FieldTeamID, team.ID)
	a.notify(ctx, notify.Success, "Ice Time Assigned",
		fmt.Sprintf("%s %s-%s on %s assigned to %s", slot.Type, slot.StartTime, slot.EndTime, slot.Date, team.Name))
	return slot, nil
}

// UnassignSlot returns slotID to the open pool.
func (a *App) UnassignSlot(ctx context.Context, slotID string, version int64) (schedule.IceSlot, error) {
	view, err := a.snapshot(ctx, slotID)
	if err != nil {
		a.Metrics.RecordUnassignment(outcomeOf(err))
		return schedule.IceSlot{}, err
	}
	current, _ := view.Slot(slotID)
	if _, _, err := schedule.Unassign(view, slotID); err != nil {
		a.Metrics.RecordUnassignment(outcomeOf(err))
		return schedule.IceSlot{}, err
	}
	if version == 0 {
		version = current.Version
	}
	slot, err := a.Backend.Unassign(ctx, slotID, version)
	a.Metrics.RecordUnassignment(outcomeOf(err))
	if err != nil {
		logging.Warn(a.Logger, "unassign failed", logging.FieldSlotID, slotID, "error", err)
		return schedule.IceSlot{}, err
	}

	logging.Info(a.Logger, "slot released", logging.FieldSlotID, slotID, logging.FieldTeamID, current.TeamID)
	a.notify(ctx, notify.Info, "Ice Time Released",
		fmt.Sprintf("%s %s-%s on %s is available again", slot.Type, slot.StartTime, slot.EndTime, slot.Date))
	return slot, nil
}

// snapshot loads the week view holding slotID.
func (a *App) snapshot(ctx context.Context, slotID string) (schedule.WeekView, error) {
	slot, err := a.Backend.GetSlot(ctx, slotID)
	if err != nil {
		return schedule.WeekView{}, err
	}
	date, err := schedule.ParseDate(slot.Date)
	if err != nil {
		return schedule.WeekView{}, schedule.Failed("load slot", err)
	}
	return a.LoadWeek(ctx, date)
}

// CreateSlot stores a manually entered slot. It always starts open.
func (a *App) CreateSlot(ctx context.Context, slot schedule.IceSlot) (schedule.IceSlot, error) {
	if slot.ID == "" {
		slot.ID = a.newID()
	}
	slot.Source = schedule.SourceManual
	slot.IsAssigned, slot.TeamID, slot.TeamName = false, "", ""
	created, err := a.Backend.CreateSlot(ctx, slot)
	if err != nil {
		return schedule.IceSlot{}, err
	}
	logging.Info(a.Logger, "slot created", logging.FieldSlotID, created.ID, logging.FieldWeek, schedule.WeekOf(mustDate(created.Date)).String())
	a.notify(ctx, notify.Success, "Ice Slot Added",
		fmt.Sprintf("%s %s-%s on %s", created.Type, created.StartTime, created.EndTime, created.Date))
	return created, nil
}

// CreateTeam registers a team with the directory.
func (a *App) CreateTeam(ctx context.Context, team teams.Team) (teams.Team, error) {
	created, err := a.Teams.CreateTeam(ctx, team)
	if err != nil {
		if isTeamValidation(err) {
			return teams.Team{}, schedule.Invalid(err)
		}
		if errors.Is(err, teams.ErrDuplicate) {
			return teams.Team{}, err
		}
		a.notify(ctx, notify.Destructive, "Error", "Failed to add team. Please try again.")
		return teams.Team{}, schedule.Failed("create team", err)
	}
	logging.Info(a.Logger, "team added", logging.FieldTeamID, created.ID)
	a.notify(ctx, notify.Success, "Team added successfully",
		fmt.Sprintf("%s has been added to your association.", created.Name))
	return created, nil
}

func isTeamValidation(err error) bool {
	return errors.Is(err, teams.ErrEmptyName) ||
		errors.Is(err, teams.ErrEmptyManagerName) ||
		errors.Is(err, teams.ErrInvalidEmail)
}

func mustDate(s string) time.Time {
	d, _ := schedule.ParseDate(s)
	return d
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, schedule.ErrVersionConflict):
		return metrics.OutcomeConflict
	case schedule.IsValidation(err), errors.Is(err, schedule.ErrUnknownSlot),
		errors.Is(err, schedule.ErrAlreadyAssigned), errors.Is(err, schedule.ErrNotAssigned):
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}
