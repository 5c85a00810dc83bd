package state

import (
	"io"
	"time"

	"github.com/ShayCichocki/triage/pkg/models"
)

// RunStore handles run persistence.
type RunStore interface {
	CreateRun(r *Run) error
	FinishRun(id string, status RunStatus, runErr error, finishedAt time.Time) error
	GetRun(id string) (*Run, error)
	ListRuns(status *RunStatus, limit int) ([]Run, error)
}

// ResultStore handles per-run result persistence.
type ResultStore interface {
	AddResult(runID string, res models.TaskResult) error
	ListResults(runID string) ([]models.TaskResult, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// HistoryStore is everything the CLI and Recorder need from a history backend.
type HistoryStore interface {
	io.Closer
	Migrator
	RunStore
	ResultStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ HistoryStore = (*DB)(nil)
	_ Migrator     = (*DB)(nil)
	_ RunStore     = (*DB)(nil)
	_ ResultStore  = (*DB)(nil)
)
