package export

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"icetime-service/internal/logging"
	"icetime-service/internal/metrics"
)

type Status string

const (
	Pending   Status = "pending"
	Running   Status = "running"
	Succeeded Status = "succeeded"
	Failed    Status = "failed"
)

const (
	KindExport = "export"
	KindEmail  = "email"
)

// Task is a background export or email job. Once started it always runs to
// a terminal status.
type Task struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	TeamID     string     `json:"team_id"`
	Status     Status     `json:"status"`
	Message    string     `json:"message,omitempty"`
	Artifact   string     `json:"artifact,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func (t Task) Done() bool {
	return t.Status == Succeeded || t.Status == Failed
}

// Work performs a task and returns an artifact name on success.
type Work func(ctx context.Context) (artifact string, err error)

// Runner executes tasks on their own goroutines and keeps their status.
type Runner struct {
	logger  *slog.Logger
	metrics *metrics.Recorder

	Now   func() time.Time
	NewID func() string
	// Sleep waits before the work runs; replaced in tests.
	Sleep func(time.Duration)

	mu    sync.RWMutex
	tasks map[string]*Task
	wg    sync.WaitGroup
}

func NewRunner(logger *slog.Logger, recorder *metrics.Recorder) *Runner {
	return &Runner{
		logger:  logger,
		metrics: recorder,
		Now:     time.Now,
		NewID:   func() string { return uuid.New().String() },
		Sleep:   time.Sleep,
		tasks:   make(map[string]*Task),
	}
}

// Go starts work after delay and returns the pending task. The work runs
// detached from ctx cancellation; done, when set, sees the final task.
func (r *Runner) Go(ctx context.Context, kind, teamID string, delay time.Duration, work Work, done func(Task)) Task {
	task := &Task{
		ID:        r.NewID(),
		Kind:      kind,
		TeamID:    teamID,
		Status:    Pending,
		CreatedAt: r.Now().UTC(),
	}
	r.mu.Lock()
	r.tasks[task.ID] = task
	snapshot := *task
	r.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if delay > 0 {
			r.Sleep(delay)
		}
		started := r.Now().UTC()
		r.update(task.ID, func(t *Task) {
			t.Status = Running
			t.StartedAt = &started
		})

		artifact, err := work(detached)
		finished := r.Now().UTC()
		final := r.update(task.ID, func(t *Task) {
			t.FinishedAt = &finished
			if err != nil {
				t.Status = Failed
				t.Message = err.Error()
				return
			}
			t.Status = Succeeded
			t.Artifact = artifact
		})

		r.metrics.RecordTask(kind, finished.Sub(started), err)
		if err != nil {
			logging.Error(r.logger, "task failed", err, logging.FieldTaskID, task.ID, "kind", kind)
		} else {
			logging.Info(r.logger, "task finished", logging.FieldTaskID, task.ID, "kind", kind,
				logging.FieldDurationMS, finished.Sub(started).Milliseconds())
		}
		if done != nil {
			done(final)
		}
	}()
	return snapshot
}

func (r *Runner) update(id string, fn func(*Task)) Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.tasks[id]
	fn(t)
	return *t
}

func (r *Runner) Get(id string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Wait blocks until every started task has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}
