package state

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/triage/pkg/models"
)

// Recorder writes routed prompts and their results to a HistoryStore.
// A nil Recorder records nothing.
type Recorder struct {
	store HistoryStore
	roles models.Roles
	strat models.Strategy
}

// NewRecorder creates a Recorder tagging runs with the decision and
// task-breaker models and the routing strategy.
func NewRecorder(store HistoryStore, roles models.Roles, strategy models.Strategy) *Recorder {
	return &Recorder{store: store, roles: roles, strat: strategy}
}

// Recording tracks one run in progress.
type Recording struct {
	rec   *Recorder
	runID string
	mu    sync.Mutex
	saved int
}

// Begin creates a run for prompt. Storage failures are logged and yield a
// Recording that drops everything.
func (r *Recorder) Begin(prompt string, worker models.ModelIdentity) *Recording {
	if r == nil || r.store == nil {
		return &Recording{}
	}

	run := &Run{
		ID:          uuid.NewString(),
		Prompt:      prompt,
		Worker:      worker,
		Decision:    r.roles.Decision,
		TaskBreaker: r.roles.TaskBreaker,
		Strategy:    r.strat,
		Status:      RunRunning,
		PID:         os.Getpid(),
		StartedAt:   time.Now(),
	}
	if err := r.store.CreateRun(run); err != nil {
		log.Printf("[history] %v", err)
		return &Recording{}
	}
	return &Recording{rec: r, runID: run.ID}
}

// RunID returns the run's ID, or "" when nothing is being recorded.
func (rc *Recording) RunID() string {
	return rc.runID
}

// Record stores one result. Its signature matches route.ResultHandler.
func (rc *Recording) Record(res models.TaskResult) {
	if rc.rec == nil {
		return
	}
	if err := rc.rec.store.AddResult(rc.runID, res); err != nil {
		log.Printf("[history] %v", err)
		return
	}
	rc.mu.Lock()
	rc.saved++
	rc.mu.Unlock()
}

// Saved returns how many results were stored.
func (rc *Recording) Saved() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.saved
}

// Finish marks the run completed, or failed when routeErr is non-nil.
// Results already recorded are kept either way.
func (rc *Recording) Finish(routeErr error) {
	if rc.rec == nil {
		return
	}
	status := RunCompleted
	if routeErr != nil {
		status = RunFailed
	}
	if err := rc.rec.store.FinishRun(rc.runID, status, routeErr, time.Now()); err != nil {
		log.Printf("[history] %v", err)
	}
}
