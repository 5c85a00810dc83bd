// Package lifecycle creates, lists and removes the models a routing session depends on.
package lifecycle

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	iexec "github.com/ShayCichocki/triage/internal/exec"
	"github.com/ShayCichocki/triage/pkg/models"
)

// DefaultBinary is the ollama CLI looked up on PATH.
const DefaultBinary = "ollama"

// HostedModel is one row of `ollama list`.
type HostedModel struct {
	Name     string
	ID       string
	Size     string
	Modified string
}

// RunningModel is one row of `ollama ps`.
type RunningModel struct {
	Name      string
	ID        string
	Size      string
	Processor string
	Until     string
}

// Manager shells out to the ollama CLI.
type Manager struct {
	runner iexec.CommandRunner
	binary string
}

// NewManager creates a Manager. An empty binary means DefaultBinary.
func NewManager(runner iexec.CommandRunner, binary string) *Manager {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Manager{runner: runner, binary: binary}
}

// Available reports whether the ollama binary can be found.
func (m *Manager) Available() bool {
	_, err := m.runner.LookPath(m.binary)
	return err == nil
}

// Create builds model name from a Modelfile.
func (m *Manager) Create(ctx context.Context, name, modelfile string) error {
	if name == "" {
		return fmt.Errorf("create model: empty name")
	}
	if _, err := m.runner.Run(ctx, m.binary, "create", name, "-f", modelfile); err != nil {
		return fmt.Errorf("create model %s: %w", name, err)
	}
	log.Printf("[lifecycle] created model %s from %s", name, modelfile)
	return nil
}

// Remove deletes model name from the host.
func (m *Manager) Remove(ctx context.Context, name string) error {
	if _, err := m.runner.Run(ctx, m.binary, "rm", name); err != nil {
		return fmt.Errorf("remove model %s: %w", name, err)
	}
	log.Printf("[lifecycle] removed model %s", name)
	return nil
}

// List returns the models hosted locally.
func (m *Manager) List(ctx context.Context) ([]HostedModel, error) {
	out, err := m.runner.Run(ctx, m.binary, "list")
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	var hosted []HostedModel
	for _, cols := range parseTable(string(out)) {
		h := HostedModel{Name: cols[0]}
		h.ID = column(cols, 1)
		h.Size = column(cols, 2)
		h.Modified = column(cols, 3)
		hosted = append(hosted, h)
	}
	return hosted, nil
}

// Running returns the models currently loaded in memory.
func (m *Manager) Running(ctx context.Context) ([]RunningModel, error) {
	out, err := m.runner.Run(ctx, m.binary, "ps")
	if err != nil {
		return nil, fmt.Errorf("list running models: %w", err)
	}

	var running []RunningModel
	for _, cols := range parseTable(string(out)) {
		running = append(running, RunningModel{
			Name:      cols[0],
			ID:        column(cols, 1),
			Size:      column(cols, 2),
			Processor: column(cols, 3),
			Until:     column(cols, 4),
		})
	}
	return running, nil
}

// Has reports whether name is hosted. A bare name also matches its ":latest" tag.
func (m *Manager) Has(ctx context.Context, name string) (bool, error) {
	hosted, err := m.List(ctx)
	if err != nil {
		return false, err
	}
	return containsModel(hosted, name), nil
}

// CheckRoles returns the role models that are not hosted, in decision,
// task-breaker, worker order. An empty worker is not checked.
func (m *Manager) CheckRoles(ctx context.Context, roles models.Roles) ([]models.ModelIdentity, error) {
	hosted, err := m.List(ctx)
	if err != nil {
		return nil, err
	}

	var missing []models.ModelIdentity
	for _, id := range []models.ModelIdentity{roles.Decision, roles.TaskBreaker, roles.Worker} {
		if id == "" {
			continue
		}
		if !containsModel(hosted, string(id)) {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Sync creates every model in the manifest. It stops at the first failure.
func (m *Manager) Sync(ctx context.Context, manifest *Manifest) error {
	for _, def := range manifest.Models {
		if err := m.Create(ctx, def.Name, def.Modelfile); err != nil {
			return fmt.Errorf("sync manifest: %w", err)
		}
	}
	return nil
}

// Prune removes every model in the manifest. Failures are collected so one
// missing model does not keep the rest around.
func (m *Manager) Prune(ctx context.Context, manifest *Manifest) error {
	var failed []string
	for _, def := range manifest.Models {
		if err := m.Remove(ctx, def.Name); err != nil {
			log.Printf("[lifecycle] %v", err)
			failed = append(failed, def.Name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("prune manifest: could not remove %s", strings.Join(failed, ", "))
	}
	return nil
}

func containsModel(hosted []HostedModel, name string) bool {
	for _, h := range hosted {
		if h.Name == name || h.Name == name+":latest" {
			return true
		}
	}
	return false
}

var columnSep = regexp.MustCompile(`\s{2,}|\t+`)

// parseTable splits ollama's column output, skipping the header row.
func parseTable(out string) [][]string {
	var rows [][]string
	for i, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if i == 0 || line == "" {
			continue
		}
		rows = append(rows, columnSep.Split(line, -1))
	}
	return rows
}

func column(cols []string, i int) string {
	if i < len(cols) {
		return cols[i]
	}
	return ""
}
