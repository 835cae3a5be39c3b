package metrics

import (
	"sync"
	"time"
)

// Snapshot is a copy of the in-memory counters.
type Snapshot struct {
	Assignments    map[string]int
	Unassignments  map[string]int
	SyncCycles     int
	SyncErrors     int
	SlotsImported  int
	LastSyncTook   time.Duration
	TasksCompleted map[string]int
}

// Recorder counts scheduling activity in memory and forwards it to
// OpenTelemetry instruments when Setup enabled them. A nil Recorder is a no-op.
type Recorder struct {
	mu    sync.Mutex
	stats Snapshot
	otel  *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats: Snapshot{
			Assignments:    make(map[string]int),
			Unassignments:  make(map[string]int),
			TasksCompleted: make(map[string]int),
		},
		otel: otel,
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// RecordAssignment counts an assign attempt by outcome.
func (r *Recorder) RecordAssignment(outcome string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.stats.Assignments[outcome]++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordMutation(r.otel.assignments, outcome)
	}
}

// RecordUnassignment counts an unassign attempt by outcome.
func (r *Recorder) RecordUnassignment(outcome string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.stats.Unassignments[outcome]++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordMutation(r.otel.unassignments, outcome)
	}
}

// RecordSyncCycle tracks one rink sync run and how many slots it changed.
func (r *Recorder) RecordSyncCycle(duration time.Duration, imported int, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.stats.SyncCycles++
	r.stats.SlotsImported += imported
	r.stats.LastSyncTook = duration
	if err != nil {
		r.stats.SyncErrors++
	}
	r.mu.Unlock()
	r.otel.recordSync(duration, imported, err)
}

// RecordTask tracks a finished background export or email task.
func (r *Recorder) RecordTask(kind string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	r.mu.Lock()
	r.stats.TasksCompleted[kind+":"+outcome]++
	r.mu.Unlock()
	r.otel.recordTask(kind, outcome, duration)
}

func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.stats
	out.Assignments = copyCounts(r.stats.Assignments)
	out.Unassignments = copyCounts(r.stats.Unassignments)
	out.TasksCompleted = copyCounts(r.stats.TasksCompleted)
	return out
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
