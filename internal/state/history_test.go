package state

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ShayCichocki/triage/pkg/models"
)

func newRun(id string, startedAt time.Time) *Run {
	return &Run{
		ID:          id,
		Prompt:      "plan a trip",
		Worker:      "llama3",
		Decision:    "Language",
		TaskBreaker: "Task-Breaker",
		Strategy:    models.StrategySingle,
		StartedAt:   startedAt,
	}
}

func TestRunLifecycle(t *testing.T) {
	db := setupTestDB(t)
	start := time.Now().Add(-time.Minute)

	if err := db.CreateRun(newRun("run-1", start)); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	got, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetRun returned nil")
	}
	if got.Status != RunRunning || got.Worker != "llama3" || got.Strategy != models.StrategySingle {
		t.Errorf("run = %+v", got)
	}
	if !got.StartedAt.Equal(start.UTC()) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, start.UTC())
	}
	if got.FinishedAt != nil {
		t.Error("FinishedAt should be nil for a running run")
	}

	if err := db.FinishRun("run-1", RunFailed, errors.New("worker unavailable"), time.Now()); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}
	got, _ = db.GetRun("run-1")
	if got.Status != RunFailed || got.Error != "worker unavailable" || got.FinishedAt == nil {
		t.Errorf("finished run = %+v", got)
	}

	if err := db.FinishRun("missing", RunCompleted, nil, time.Now()); err == nil {
		t.Error("FinishRun on unknown run should fail")
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetRun("nope")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got != nil {
		t.Errorf("GetRun = %+v, want nil", got)
	}
}

func TestResults(t *testing.T) {
	db := setupTestDB(t)
	if err := db.CreateRun(newRun("run-1", time.Now())); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	for i, task := range []string{"book flight", "book hotel"} {
		res := models.TaskResult{
			Seq:         i,
			TaskID:      fmt.Sprintf("task-%d", i),
			Task:        task,
			Message:     "How to: " + task,
			Model:       "llama3",
			Output:      "step " + task,
			Depth:       1,
			CompletedAt: time.Now(),
		}
		if err := db.AddResult("run-1", res); err != nil {
			t.Fatalf("AddResult failed: %v", err)
		}
	}

	results, err := db.ListResults("run-1")
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Message != "How to: book flight" || results[1].Message != "How to: book hotel" {
		t.Errorf("results out of order: %+v", results)
	}

	run, _ := db.GetRun("run-1")
	if run.ResultCount != 2 {
		t.Errorf("ResultCount = %d, want 2", run.ResultCount)
	}

	// Sequence numbers are unique per run.
	if err := db.AddResult("run-1", results[0]); err == nil {
		t.Error("duplicate seq should fail")
	}
}

func TestListRuns(t *testing.T) {
	db := setupTestDB(t)
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		if err := db.CreateRun(newRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
	}
	if err := db.FinishRun("run-1", RunCompleted, nil, time.Now()); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	runs, err := db.ListRuns(nil, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "run-2" || runs[2].ID != "run-0" {
		t.Errorf("ListRuns order = %v", runIDs(runs))
	}

	limited, _ := db.ListRuns(nil, 2)
	if len(limited) != 2 {
		t.Errorf("len(limited) = %d, want 2", len(limited))
	}

	status := RunCompleted
	completed, _ := db.ListRuns(&status, 0)
	if len(completed) != 1 || completed[0].ID != "run-1" {
		t.Errorf("completed = %v", runIDs(completed))
	}

	n, err := db.CountRuns()
	if err != nil || n != 3 {
		t.Errorf("CountRuns() = %d, %v", n, err)
	}
}

func TestFindRun(t *testing.T) {
	db := setupTestDB(t)
	if err := db.CreateRun(newRun("abc12345-0000", time.Now())); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	got, err := db.FindRun("abc1")
	if err != nil || got == nil || got.ID != "abc12345-0000" {
		t.Errorf("FindRun(abc1) = %+v, %v", got, err)
	}
	got, err = db.FindRun("zzz")
	if err != nil || got != nil {
		t.Errorf("FindRun(zzz) = %+v, %v; want nil", got, err)
	}
}

func TestPurgeOldRuns(t *testing.T) {
	db := setupTestDB(t)

	if err := db.CreateRun(newRun("old", time.Now().Add(-48*time.Hour))); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := db.AddResult("old", models.TaskResult{TaskID: "t", Task: "x", Message: "x", Model: "m", CompletedAt: time.Now()}); err != nil {
		t.Fatalf("AddResult failed: %v", err)
	}
	if err := db.CreateRun(newRun("new", time.Now())); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	n, err := db.PurgeOldRuns(24 * time.Hour)
	if err != nil {
		t.Fatalf("PurgeOldRuns failed: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
	if got, _ := db.GetRun("old"); got != nil {
		t.Error("old run should be gone")
	}
	if results, _ := db.ListResults("old"); len(results) != 0 {
		t.Errorf("old results = %d, want 0", len(results))
	}
	if got, _ := db.GetRun("new"); got == nil {
		t.Error("new run should remain")
	}
}

func TestDeleteRun(t *testing.T) {
	db := setupTestDB(t)
	if err := db.CreateRun(newRun("run-1", time.Now())); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := db.DeleteRun("run-1"); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if got, _ := db.GetRun("run-1"); got != nil {
		t.Error("run should be deleted")
	}
}

func runIDs(runs []Run) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}
