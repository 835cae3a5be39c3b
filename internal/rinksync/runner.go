package rinksync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"icetime-service/internal/logging"
	"icetime-service/internal/metrics"
	"icetime-service/internal/schedule"
)

// DefaultSchedule runs a sync every half hour.
const DefaultSchedule = "*/30 * * * *"

// Upserter is the slice of the backend a sync writes to.
type Upserter interface {
	UpsertSlots(ctx context.Context, slots []schedule.IceSlot) (int, error)
}

// Options wires a Runner.
type Options struct {
	Backend    Upserter
	Templates  []schedule.Template
	Feeds      []Feed
	Fetcher    *Fetcher
	Location   *time.Location
	WeeksAhead int
	Logger     *slog.Logger
	Metrics    *metrics.Recorder
	Now        func() time.Time
}

// Result summarizes one sync cycle.
type Result struct {
	Weeks     int           `json:"weeks"`
	Generated int           `json:"generated"`
	Changed   int           `json:"changed"`
	Errors    []string      `json:"errors,omitempty"`
	TookMS    int64         `json:"took_ms"`
	Took      time.Duration `json:"-"`
}

// Runner materializes recurring templates and rink ICS feeds into the
// backend for the current week and the weeks after it.
type Runner struct {
	opts Options

	mu   sync.Mutex // serializes cycles
	last Result

	cronMu sync.Mutex
	cron   *cron.Cron
}

func NewRunner(opts Options) *Runner {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Fetcher == nil {
		opts.Fetcher = NewFetcher(0)
	}
	if opts.WeeksAhead < 0 {
		opts.WeeksAhead = 0
	}
	return &Runner{opts: opts}
}

// RunOnce performs a single sync cycle. Feed failures are collected and
// reported without aborting the cycle; a backend failure aborts it.
func (r *Runner) RunOnce(ctx context.Context) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	res := Result{}
	week := schedule.WeekOf(r.opts.Now().In(r.opts.Location))

	var slots []schedule.IceSlot
	var feedErrs []error
	for i := 0; i <= r.opts.WeeksAhead; i++ {
		generated, err := schedule.ExpandTemplates(r.opts.Templates, week)
		if err != nil {
			feedErrs = append(feedErrs, err)
		}
		slots = append(slots, generated...)

		for _, feed := range r.opts.Feeds {
			imported, err := r.importFeed(ctx, feed, week)
			if err != nil {
				feedErrs = append(feedErrs, err)
				continue
			}
			slots = append(slots, imported...)
		}
		res.Weeks++
		week, _ = week.Navigate(schedule.Next)
	}
	res.Generated = len(slots)

	var err error
	if len(slots) > 0 {
		res.Changed, err = r.opts.Backend.UpsertSlots(ctx, dedupe(slots))
	}
	for _, fe := range feedErrs {
		res.Errors = append(res.Errors, fe.Error())
	}
	res.Took = time.Since(start)
	res.TookMS = res.Took.Milliseconds()

	cycleErr := err
	if cycleErr == nil && len(feedErrs) > 0 {
		cycleErr = errors.Join(feedErrs...)
	}
	r.opts.Metrics.RecordSyncCycle(res.Took, res.Changed, cycleErr)

	if err != nil {
		logging.Error(r.opts.Logger, "rink sync failed", err, logging.FieldDurationMS, res.Took.Milliseconds())
		r.last = res
		return res, fmt.Errorf("rink sync: %w", err)
	}
	if len(feedErrs) > 0 {
		logging.Warn(r.opts.Logger, "rink sync finished with feed errors", "errors", res.Errors)
	}
	logging.Info(r.opts.Logger, "rink sync finished",
		"weeks", res.Weeks,
		logging.FieldCount, res.Changed,
		logging.FieldDurationMS, res.Took.Milliseconds(),
	)
	r.last = res
	return res, nil
}

func (r *Runner) importFeed(ctx context.Context, feed Feed, week schedule.Week) ([]schedule.IceSlot, error) {
	body, err := r.opts.Fetcher.Fetch(ctx, feed)
	if err != nil {
		return nil, err
	}
	from, to := Bounds(week, r.opts.Location)
	events, err := ParseICS(body, from, to)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", feed.ID, err)
	}
	return EventsToSlots(schedule.SourceICS, feed.Rink, events, week, r.opts.Location), nil
}

// Last returns the result of the most recent cycle.
func (r *Runner) Last() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Start schedules RunOnce on spec (standard five-field cron syntax) in the
// runner's location. The cycle uses ctx, so cancelling it aborts in-flight
// fetches.
func (r *Runner) Start(ctx context.Context, spec string) error {
	if spec == "" {
		spec = DefaultSchedule
	}
	c := cron.New(cron.WithLocation(r.opts.Location))
	if _, err := c.AddFunc(spec, func() {
		_, _ = r.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", spec, err)
	}
	r.cronMu.Lock()
	r.cron = c
	r.cronMu.Unlock()
	c.Start()
	logging.Info(r.opts.Logger, "rink sync scheduled", "schedule", spec)
	return nil
}

// Stop halts the schedule and waits for a running cycle to finish.
func (r *Runner) Stop(ctx context.Context) error {
	r.cronMu.Lock()
	c := r.cron
	r.cronMu.Unlock()
	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dedupe keeps the first slot for each id.
func dedupe(slots []schedule.IceSlot) []schedule.IceSlot {
	seen := make(map[string]bool, len(slots))
	out := slots[:0]
	for _, s := range slots {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}
