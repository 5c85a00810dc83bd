package state

import (
	"errors"
	"testing"
	"time"

	"github.com/ShayCichocki/triage/pkg/models"
)

func TestRecorder_CompletedRun(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db, models.Roles{Decision: "Language", TaskBreaker: "Task-Breaker"}, models.StrategySingle)

	rc := rec.Begin("plan a trip", "llama3")
	if rc.RunID() == "" {
		t.Fatal("RunID should be set")
	}
	rc.Record(models.TaskResult{Seq: 0, TaskID: "a", Task: "book flight", Message: "How to: book flight", Model: "llama3", Output: "ok", Depth: 1, CompletedAt: time.Now()})
	rc.Finish(nil)

	run, err := db.GetRun(rc.RunID())
	if err != nil || run == nil {
		t.Fatalf("GetRun = %+v, %v", run, err)
	}
	if run.Status != RunCompleted || run.Decision != "Language" || run.ResultCount != 1 {
		t.Errorf("run = %+v", run)
	}
	if rc.Saved() != 1 {
		t.Errorf("Saved() = %d, want 1", rc.Saved())
	}
}

func TestRecorder_FailedRunKeepsPartialResults(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db, models.Roles{Decision: "d", TaskBreaker: "t"}, models.StrategyRecursive)

	rc := rec.Begin("plan a trip", "llama3")
	rc.Record(models.TaskResult{Seq: 0, TaskID: "a", Task: "x", Message: "How to: x", Model: "llama3", CompletedAt: time.Now()})
	rc.Finish(errors.New("worker unavailable"))

	run, _ := db.GetRun(rc.RunID())
	if run.Status != RunFailed || run.Error != "worker unavailable" {
		t.Errorf("run = %+v", run)
	}
	results, _ := db.ListResults(rc.RunID())
	if len(results) != 1 {
		t.Errorf("len(results) = %d, want partial result kept", len(results))
	}
}

func TestRecorder_Nil(t *testing.T) {
	var rec *Recorder
	rc := rec.Begin("hi", "llama3")
	rc.Record(models.TaskResult{})
	rc.Finish(nil)
	if rc.RunID() != "" || rc.Saved() != 0 {
		t.Error("nil recorder should record nothing")
	}
}

func TestRecoveryManager_MarkInterrupted(t *testing.T) {
	db := setupTestDB(t)

	dead := newRun("dead", time.Now())
	dead.PID = 999999
	live := newRun("live", time.Now())
	live.PID = 4242
	for _, r := range []*Run{dead, live} {
		if err := db.CreateRun(r); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
	}

	rm := NewRecoveryManager(db)
	rm.alive = func(pid int) bool { return pid == 4242 }

	n, err := rm.MarkInterrupted()
	if err != nil {
		t.Fatalf("MarkInterrupted failed: %v", err)
	}
	if n != 1 {
		t.Errorf("MarkInterrupted() = %d, want 1", n)
	}

	got, _ := db.GetRun("dead")
	if got.Status != RunInterrupted {
		t.Errorf("dead run status = %s, want interrupted", got.Status)
	}
	got, _ = db.GetRun("live")
	if got.Status != RunRunning {
		t.Errorf("live run status = %s, want running", got.Status)
	}
}
