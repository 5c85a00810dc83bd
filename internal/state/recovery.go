package state

import (
	"errors"
	"fmt"
	"log"
	"os"
	"syscall"
	"time"
)

// errProcessGone is stored on runs whose owning process exited mid-route.
var errProcessGone = errors.New("process exited before the run finished")

// RecoveryManager finds runs left in the running state by a process that
// no longer exists.
type RecoveryManager struct {
	db    *DB
	alive func(pid int) bool
}

// NewRecoveryManager creates a new RecoveryManager with the given database.
func NewRecoveryManager(db *DB) *RecoveryManager {
	return &RecoveryManager{db: db, alive: isProcessAlive}
}

// CheckForInterrupted returns running runs whose owning process is gone.
func (rm *RecoveryManager) CheckForInterrupted() ([]Run, error) {
	status := RunRunning
	runs, err := rm.db.ListRuns(&status, 0)
	if err != nil {
		return nil, fmt.Errorf("list running runs: %w", err)
	}

	var orphaned []Run
	for _, r := range runs {
		if r.PID == os.Getpid() || rm.alive(r.PID) {
			continue
		}
		orphaned = append(orphaned, r)
	}
	return orphaned, nil
}

// MarkInterrupted moves orphaned runs to the interrupted state, keeping
// their partial results. Returns how many runs were updated.
func (rm *RecoveryManager) MarkInterrupted() (int, error) {
	orphaned, err := rm.CheckForInterrupted()
	if err != nil {
		return 0, err
	}
	for _, r := range orphaned {
		if err := rm.db.FinishRun(r.ID, RunInterrupted, errProcessGone, time.Now()); err != nil {
			return 0, fmt.Errorf("mark run %s interrupted: %w", r.ID, err)
		}
		log.Printf("[history] run %s interrupted after %d results", r.ID, r.ResultCount)
	}
	return len(orphaned), nil
}

// isProcessAlive reports whether pid names a running process.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 checks existence without delivering anything.
	return process.Signal(syscall.Signal(0)) == nil
}
