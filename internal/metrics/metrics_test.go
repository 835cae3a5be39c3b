package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestRecorderCountsInMemory(t *testing.T) {
	rec := NewRecorder()
	rec.RecordAssignment(OutcomeOK)
	rec.RecordAssignment(OutcomeOK)
	rec.RecordAssignment(OutcomeRejected)
	rec.RecordUnassignment(OutcomeOK)
	rec.RecordSyncCycle(20*time.Millisecond, 3, nil)
	rec.RecordSyncCycle(10*time.Millisecond, 0, errors.New("feed down"))
	rec.RecordTask("email", time.Second, nil)

	snap := rec.Snapshot()
	if snap.Assignments[OutcomeOK] != 2 || snap.Assignments[OutcomeRejected] != 1 {
		t.Fatalf("unexpected assignments %+v", snap.Assignments)
	}
	if snap.Unassignments[OutcomeOK] != 1 {
		t.Fatalf("unexpected unassignments %+v", snap.Unassignments)
	}
	if snap.SyncCycles != 2 || snap.SyncErrors != 1 || snap.SlotsImported != 3 {
		t.Fatalf("unexpected sync stats %+v", snap)
	}
	if snap.LastSyncTook != 10*time.Millisecond {
		t.Fatalf("expected last sync 10ms, got %v", snap.LastSyncTook)
	}
	if snap.TasksCompleted["email:ok"] != 1 {
		t.Fatalf("unexpected tasks %+v", snap.TasksCompleted)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	rec := NewRecorder()
	rec.RecordAssignment(OutcomeOK)
	snap := rec.Snapshot()
	snap.Assignments[OutcomeOK] = 99
	if rec.Snapshot().Assignments[OutcomeOK] != 1 {
		t.Fatal("expected snapshot mutation not to leak")
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	rec.RecordHTTPRequest("GET", "/", 200, 0)
	rec.RecordAssignment(OutcomeOK)
	rec.RecordUnassignment(OutcomeOK)
	rec.RecordSyncCycle(0, 0, nil)
	rec.RecordTask("export", 0, nil)
	if snap := rec.Snapshot(); snap.SyncCycles != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
