package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/triage/internal/config"
	"github.com/ShayCichocki/triage/internal/provider"
	"github.com/ShayCichocki/triage/internal/state"
	"github.com/ShayCichocki/triage/pkg/models"
)

// pingTimeout bounds the server check in status.
const pingTimeout = 3 * time.Second

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show provider, model and history status",
	Long: `Display the current triage setup.

Shows:
  - Configured provider and routing strategy
  - Role models and whether each is hosted
  - Models currently loaded by Ollama
  - History database location and recent runs`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if rootWorker != "" {
		cfg.Models.Worker = rootWorker
	}

	fmt.Printf("Provider: %s\n", cfg.Provider.Kind)
	if cfg.Provider.Kind == config.ProviderOllama {
		fmt.Printf("  Host: %s\n", cfg.Provider.Ollama.Host)
		if err := pingOllama(cmd.Context(), cfg); err != nil {
			printStatus("✗", fmt.Sprintf("Server unreachable: %v", err), color.FgRed)
		} else {
			printStatus("✓", "Server reachable", color.FgGreen)
		}
	} else {
		fmt.Printf("  API key: %s\n", config.GetAPIKeySource(cfg, cfg.Provider.Kind))
	}
	fmt.Printf("Routing: %s", cfg.Routing.Strategy)
	if models.Strategy(cfg.Routing.Strategy) == models.StrategyRecursive {
		fmt.Printf(" (max depth %d)", cfg.Routing.MaxDepth)
	}
	fmt.Println()
	fmt.Println()

	displayModels(cmd, cfg)
	fmt.Println()
	return displayHistory(cfg)
}

func displayModels(cmd *cobra.Command, cfg *config.Config) {
	roles := []struct {
		label string
		name  string
	}{
		{"decision", cfg.Models.Decision},
		{"task_breaker", cfg.Models.TaskBreaker},
		{"worker", cfg.Models.Worker},
	}

	if cfg.Provider.Kind != config.ProviderOllama {
		fmt.Println("Models:")
		for _, r := range roles {
			fmt.Printf("  %-13s %s\n", r.label+":", r.name)
		}
		return
	}

	manager := newManager(cfg)
	if !manager.Available() {
		fmt.Println("Models:")
		for _, r := range roles {
			fmt.Printf("  %-13s %s\n", r.label+":", r.name)
		}
		printStatus("⚠", fmt.Sprintf("%s not found in PATH, cannot check hosted models", cfg.Lifecycle.OllamaBinary), color.FgYellow)
		return
	}

	fmt.Println("Models:")
	for _, r := range roles {
		if r.name == "" {
			printStatus("⚠", fmt.Sprintf("%-13s (not set)", r.label+":"), color.FgYellow)
			continue
		}
		hosted, err := manager.Has(cmd.Context(), r.name)
		switch {
		case err != nil:
			printStatus("✗", fmt.Sprintf("%-13s %s (%v)", r.label+":", r.name, err), color.FgRed)
		case hosted:
			printStatus("✓", fmt.Sprintf("%-13s %s", r.label+":", r.name), color.FgGreen)
		default:
			printStatus("✗", fmt.Sprintf("%-13s %s (not hosted)", r.label+":", r.name), color.FgRed)
		}
	}

	running, err := manager.Running(cmd.Context())
	if err != nil {
		return
	}
	if len(running) == 0 {
		fmt.Println("  Loaded: none")
		return
	}
	fmt.Println("  Loaded:")
	for _, m := range running {
		fmt.Printf("    %s (%s, %s)\n", m.Name, m.Size, m.Processor)
	}
}

func displayHistory(cfg *config.Config) error {
	if !cfg.History.Enabled {
		fmt.Println("History: disabled")
		return nil
	}

	path := historyPath(cfg)
	fmt.Printf("History: %s\n", path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("  No runs recorded yet.")
		return nil
	}

	db, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()

	count, err := db.CountRuns()
	if err != nil {
		return fmt.Errorf("count runs: %w", err)
	}
	fmt.Printf("  Runs: %d\n", count)

	summary, err := historySummary(db)
	if err != nil {
		return err
	}
	fmt.Printf("  Schema: %s\n", summary)

	recent, err := db.ListRuns(nil, 5)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(recent) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println("Recent Runs:")
	for _, r := range recent {
		elapsed := formatDuration(time.Since(r.StartedAt))
		fmt.Printf("  %s: %s, %d results (%s ago) %q\n",
			shortRunID(r.ID), r.Status, r.ResultCount, elapsed, truncate(r.Prompt, 50))
	}
	return nil
}

// pingOllama checks the configured Ollama server answers.
func pingOllama(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return provider.NewOllamaProvider(provider.OllamaConfig{Host: cfg.Provider.Ollama.Host}).Ping(ctx)
}

// historySummary describes the schema version and driver of db.
func historySummary(db *state.DB) (string, error) {
	v, err := db.SchemaVersion()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("v%d (%s)", v, db.Driver()), nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%dd", days)
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
