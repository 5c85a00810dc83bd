package route

import (
	"context"
	"strings"

	"github.com/ShayCichocki/triage/internal/provider"
	"github.com/ShayCichocki/triage/pkg/models"
)

// Decomposer asks the task-breaker model to split a task into ordered subtasks.
type Decomposer struct {
	provider provider.CompletionProvider
	model    models.ModelIdentity
}

// NewDecomposer creates a Decomposer that consults model through p.
func NewDecomposer(p provider.CompletionProvider, model models.ModelIdentity) *Decomposer {
	return &Decomposer{provider: p, model: model}
}

// Decompose sends task verbatim to the task-breaker model and returns one
// subtask per reply line. Provider errors are returned unchanged.
func (d *Decomposer) Decompose(ctx context.Context, task string) ([]string, error) {
	reply, err := d.provider.Send(ctx, d.model, task)
	if err != nil {
		return nil, err
	}
	return SplitLines(reply), nil
}

// Model returns the task-breaker model identity.
func (d *Decomposer) Model() models.ModelIdentity {
	return d.model
}

// SplitLines splits reply on "\n" in order. Empty lines are dropped;
// every other line, whitespace-only included, is returned untrimmed.
func SplitLines(reply string) []string {
	var lines []string
	for _, line := range strings.Split(reply, "\n") {
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
