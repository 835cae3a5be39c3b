package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"icetime-service/internal/email"
	"icetime-service/internal/metrics"
	"icetime-service/internal/notify"
	"icetime-service/internal/schedule"
	"icetime-service/internal/teams"
)

const (
	defaultExportDelay = 2 * time.Second
	defaultEmailDelay  = 1500 * time.Millisecond
)

// SlotLister is the slice of the backend exports read from.
type SlotLister interface {
	ListAssigned(ctx context.Context, teamID string, from, to time.Time) ([]schedule.IceSlot, error)
}

// Options wires a Service. Zero delays fall back to the defaults.
type Options struct {
	Slots       SlotLister
	Teams       teams.Directory
	Sender      email.Sender
	Sink        notify.Sink
	Logger      *slog.Logger
	Metrics     *metrics.Recorder
	Now         func() time.Time
	// Location decides which calendar day "now" falls on. Nil means UTC.
	Location    *time.Location
	ExportDelay time.Duration
	EmailDelay  time.Duration
}

// Service is the export center: schedule previews, export tasks and
// schedule emails to team managers.
type Service struct {
	slots       SlotLister
	teams       teams.Directory
	sender      email.Sender
	sink        notify.Sink
	now         func() time.Time
	exportDelay time.Duration
	emailDelay  time.Duration
	runner      *Runner
}

func NewService(opts Options) *Service {
	s := &Service{
		slots:       opts.Slots,
		teams:       opts.Teams,
		sender:      opts.Sender,
		sink:        opts.Sink,
		now:         opts.Now,
		exportDelay: opts.ExportDelay,
		emailDelay:  opts.EmailDelay,
		runner:      NewRunner(opts.Logger, opts.Metrics),
	}
	if s.sink == nil {
		s.sink = notify.Discard
	}
	if s.now == nil {
		s.now = time.Now
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	clock := s.now
	s.now = func() time.Time { return clock().In(loc) }
	if s.exportDelay <= 0 {
		s.exportDelay = defaultExportDelay
	}
	if s.emailDelay <= 0 {
		s.emailDelay = defaultEmailDelay
	}
	s.runner.Now = s.now
	return s
}

// Runner exposes the task runner, mainly so tests can replace Sleep.
func (s *Service) Runner() *Runner { return s.runner }

// Preview is a team's schedule for a resolved period.
type Preview struct {
	Team   teams.Team `json:"team"`
	Period Period     `json:"period"`
	From   string     `json:"from"`
	To     string     `json:"to"`
	Rows   []Row      `json:"rows"`
}

func (s *Service) Preview(ctx context.Context, req Request) (Preview, error) {
	if err := req.ValidateEmail(); err != nil {
		return Preview{}, err
	}
	team, rng, err := s.resolve(ctx, req)
	if err != nil {
		return Preview{}, err
	}
	rows, err := s.rows(ctx, team.ID, rng)
	if err != nil {
		return Preview{}, err
	}
	return s.preview(req, team, rng, rows), nil
}

func (s *Service) preview(req Request, team teams.Team, rng Range, rows []Row) Preview {
	return Preview{
		Team:   team,
		Period: req.Period,
		From:   schedule.FormatDate(rng.From),
		To:     schedule.FormatDate(rng.To),
		Rows:   rows,
	}
}

// StartExport validates req and starts an export task. File rendering is a
// stub; the task succeeds with the name the file would carry.
func (s *Service) StartExport(ctx context.Context, req Request) (Task, error) {
	if err := req.ValidateExport(); err != nil {
		s.missing(ctx, "Please select team, period, and format.")
		return Task{}, err
	}
	team, rng, err := s.resolve(ctx, req)
	if err != nil {
		return Task{}, err
	}

	work := func(ctx context.Context) (string, error) {
		if _, err := s.rows(ctx, team.ID, rng); err != nil {
			return "", err
		}
		return FileName(team.Name, req.Period, req.Format), nil
	}
	done := func(t Task) {
		if t.Status == Succeeded {
			s.toast(ctx, notify.Success, "Export Successful",
				fmt.Sprintf("%s schedule exported as %s", team.Name, strings.ToUpper(string(req.Format))))
			return
		}
		s.toast(ctx, notify.Destructive, "Export Failed", "There was an error exporting the schedule.")
	}
	return s.runner.Go(ctx, KindExport, team.ID, s.exportDelay, work, done), nil
}

// StartEmail validates req and starts a task that emails the schedule to
// the team manager.
func (s *Service) StartEmail(ctx context.Context, req Request) (Task, error) {
	if err := req.ValidateEmail(); err != nil {
		s.missing(ctx, "Please select team and period.")
		return Task{}, err
	}
	team, rng, err := s.resolve(ctx, req)
	if err != nil {
		return Task{}, err
	}
	if s.sender == nil {
		return Task{}, schedule.Failed("email schedule", errors.New("no email sender configured"))
	}

	work := func(ctx context.Context) (string, error) {
		rows, err := s.rows(ctx, team.ID, rng)
		if err != nil {
			return "", err
		}
		html, err := email.RenderMarkdown(Markdown(team, rng, rows))
		if err != nil {
			return "", err
		}
		res, err := s.sender.Send(ctx, email.SendRequest{
			To:      []string{team.ManagerEmail},
			Subject: fmt.Sprintf("%s ice schedule, %s", team.Name, rng),
			HTML:    html,
		})
		if err != nil {
			return "", err
		}
		return res.MessageID, nil
	}
	done := func(t Task) {
		if t.Status == Succeeded {
			s.toast(ctx, notify.Success, "Email Sent",
				fmt.Sprintf("Schedule emailed to %s at %s", team.ManagerName, team.ManagerEmail))
			return
		}
		s.toast(ctx, notify.Destructive, "Email Failed", "There was an error sending the email.")
	}
	return s.runner.Go(ctx, KindEmail, team.ID, s.emailDelay, work, done), nil
}

// StartEmailAll emails every team in the directory its own schedule for
// req's period in one batch. TeamID and Format are ignored.
func (s *Service) StartEmailAll(ctx context.Context, req Request) (Task, error) {
	if req.Period == "" {
		s.missing(ctx, "Please select a period.")
		return Task{}, schedule.Invalid(fmt.Errorf("%w: please select a period", schedule.ErrMissingSelection))
	}
	rng, err := req.Period.Resolve(s.now(), req.From, req.To)
	if err != nil {
		return Task{}, schedule.Invalid(err)
	}
	if s.sender == nil {
		return Task{}, schedule.Failed("email schedules", errors.New("no email sender configured"))
	}

	var sent int
	work := func(ctx context.Context) (string, error) {
		all, err := s.teams.ListTeams(ctx)
		if err != nil {
			return "", err
		}
		reqs := make([]email.SendRequest, 0, len(all))
		for _, team := range all {
			rows, err := s.rows(ctx, team.ID, rng)
			if err != nil {
				return "", err
			}
			html, err := email.RenderMarkdown(Markdown(team, rng, rows))
			if err != nil {
				return "", err
			}
			reqs = append(reqs, email.SendRequest{
				To:      []string{team.ManagerEmail},
				Subject: fmt.Sprintf("%s ice schedule, %s", team.Name, rng),
				HTML:    html,
			})
		}
		results, err := s.sender.SendBatch(ctx, reqs)
		if err != nil {
			return "", err
		}
		sent = len(results)
		return fmt.Sprintf("%d emails", sent), nil
	}
	done := func(t Task) {
		if t.Status == Succeeded {
			s.toast(ctx, notify.Success, "Emails Sent", fmt.Sprintf("Schedules emailed to %d team managers", sent))
			return
		}
		s.toast(ctx, notify.Destructive, "Email Failed", "There was an error sending the emails.")
	}
	return s.runner.Go(ctx, KindEmail, "", s.emailDelay, work, done), nil
}

func (s *Service) Task(id string) (Task, bool) {
	return s.runner.Get(id)
}

// Wait blocks until all started tasks finish.
func (s *Service) Wait() {
	s.runner.Wait()
}

func (s *Service) resolve(ctx context.Context, req Request) (teams.Team, Range, error) {
	team, err := s.teams.ResolveTeam(ctx, req.TeamID)
	if err != nil {
		if errors.Is(err, teams.ErrNotFound) {
			return teams.Team{}, Range{}, schedule.Invalid(fmt.Errorf("%w: %s", schedule.ErrUnknownTeam, req.TeamID))
		}
		return teams.Team{}, Range{}, schedule.Failed("resolve team", err)
	}
	rng, err := req.Period.Resolve(s.now(), req.From, req.To)
	if err != nil {
		return teams.Team{}, Range{}, schedule.Invalid(err)
	}
	return team, rng, nil
}

func (s *Service) rows(ctx context.Context, teamID string, rng Range) ([]Row, error) {
	slots, err := s.slots.ListAssigned(ctx, teamID, rng.From, rng.To)
	if err != nil {
		return nil, err
	}
	return BuildRows(slots), nil
}

func (s *Service) missing(ctx context.Context, description string) {
	s.toast(ctx, notify.Destructive, "Missing Information", description)
}

func (s *Service) toast(ctx context.Context, sev notify.Severity, title, description string) {
	s.sink.Notify(context.WithoutCancel(ctx), notify.Toast{
		Title:       title,
		Description: description,
		Severity:    sev,
		At:          s.now().UTC(),
	})
}
