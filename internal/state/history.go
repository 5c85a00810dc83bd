package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ShayCichocki/triage/pkg/models"
)

// RunStatus represents the outcome of a routed prompt.
type RunStatus string

const (
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunFailed      RunStatus = "failed"
	RunInterrupted RunStatus = "interrupted"
)

// Run is one prompt routed through the pipeline.
type Run struct {
	ID          string               `json:"id"`
	Prompt      string               `json:"prompt"`
	Worker      models.ModelIdentity `json:"worker"`
	Decision    models.ModelIdentity `json:"decision_model"`
	TaskBreaker models.ModelIdentity `json:"task_breaker_model"`
	Strategy    models.Strategy      `json:"strategy"`
	Status      RunStatus            `json:"status"`
	Error       string               `json:"error,omitempty"`
	PID         int                  `json:"pid"`
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  *time.Time           `json:"finished_at,omitempty"`
	// ResultCount is filled by ListRuns.
	ResultCount int `json:"result_count"`
}

const runColumns = `r.id, r.prompt, r.worker, r.decision_model, r.task_breaker_model, r.strategy,
	r.status, r.error, r.pid, r.started_at, r.finished_at,
	(SELECT COUNT(*) FROM results WHERE run_id = r.id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var errText, finishedAt sql.NullString
	var startedAt string
	if err := row.Scan(&r.ID, &r.Prompt, &r.Worker, &r.Decision, &r.TaskBreaker, &r.Strategy,
		&r.Status, &errText, &r.PID, &startedAt, &finishedAt, &r.ResultCount); err != nil {
		return nil, err
	}
	r.Error = errText.String
	r.StartedAt, _ = parseTime(startedAt)
	r.FinishedAt = parseNullableTime(finishedAt)
	return &r, nil
}

// CreateRun inserts a new run.
func (db *DB) CreateRun(r *Run) error {
	if r.Status == "" {
		r.Status = RunRunning
	}
	_, err := db.Exec(`
		INSERT INTO runs (id, prompt, worker, decision_model, task_breaker_model, strategy, status, pid, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Prompt, string(r.Worker), string(r.Decision), string(r.TaskBreaker), string(r.Strategy),
		string(r.Status), r.PID, formatTime(r.StartedAt))
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// FinishRun sets a run's final status. A non-nil runErr is stored as its error text.
func (db *DB) FinishRun(id string, status RunStatus, runErr error, finishedAt time.Time) error {
	var errText *string
	if runErr != nil {
		s := runErr.Error()
		errText = &s
	}
	res, err := db.Exec(`
		UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?
	`, string(status), errText, formatTime(finishedAt), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: run %s not found", id)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil if it does not exist.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// FindRun retrieves the most recent run whose ID starts with prefix.
// Returns nil if none match.
func (db *DB) FindRun(prefix string) (*Run, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM runs r WHERE r.id LIKE ? || '%'
		ORDER BY r.started_at DESC LIMIT 1`, prefix)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	return r, nil
}

// ListRuns returns runs newest first, optionally filtered by status.
// A non-positive limit returns all runs.
func (db *DB) ListRuns(status *RunStatus, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs r`
	var args []any
	if status != nil {
		query += ` WHERE r.status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY r.started_at DESC, r.rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// CountRuns returns the number of recorded runs.
func (db *DB) CountRuns() (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

// AddResult appends a result to a run.
func (db *DB) AddResult(runID string, res models.TaskResult) error {
	_, err := db.Exec(`
		INSERT INTO results (run_id, seq, task_id, task, message, model, output, depth, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, res.Seq, res.TaskID, res.Task, res.Message, string(res.Model), res.Output, res.Depth,
		formatTime(res.CompletedAt))
	if err != nil {
		return fmt.Errorf("add result: %w", err)
	}
	return nil
}

// ListResults returns a run's results in dispatch order.
func (db *DB) ListResults(runID string) ([]models.TaskResult, error) {
	rows, err := db.Query(`
		SELECT seq, task_id, task, message, model, output, depth, completed_at
		FROM results WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []models.TaskResult
	for rows.Next() {
		var res models.TaskResult
		var completedAt string
		if err := rows.Scan(&res.Seq, &res.TaskID, &res.Task, &res.Message, &res.Model, &res.Output,
			&res.Depth, &completedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.CompletedAt, _ = parseTime(completedAt)
		results = append(results, res)
	}
	return results, rows.Err()
}

// DeleteRun removes a run and its results.
func (db *DB) DeleteRun(id string) error {
	return db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM results WHERE run_id = ?`, id); err != nil {
			return fmt.Errorf("delete results: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		return nil
	})
}

// PurgeOldRuns deletes runs started more than olderThan ago, with their results.
// Returns the number of runs deleted.
func (db *DB) PurgeOldRuns(olderThan time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))

	var count int64
	err := db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			DELETE FROM results WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)
		`, cutoff); err != nil {
			return fmt.Errorf("purge results: %w", err)
		}
		res, err := tx.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff)
		if err != nil {
			return fmt.Errorf("purge runs: %w", err)
		}
		count, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
