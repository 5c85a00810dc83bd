package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/triage/internal/config"
	"github.com/ShayCichocki/triage/internal/lifecycle"
	"github.com/ShayCichocki/triage/pkg/models"
)

var modelsManifest string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage locally hosted Ollama models",
	Long: `Create, list and remove the Ollama models triage routes through.

Models are declared in a manifest (models.yaml by default):

  models:
    - name: Language
      modelfile: ./Language-Modelfile
      role: decision
    - name: Task-Breaker
      modelfile: ./Task-Breaker-Modelfile
      role: task_breaker`,
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List hosted models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		hosted, err := newManager(cfg).List(cmd.Context())
		if err != nil {
			return err
		}
		if len(hosted) == 0 {
			fmt.Println("No models hosted.")
			return nil
		}
		roles := roleNames(cfg)
		fmt.Printf("%-32s %-14s %-10s %s\n", "NAME", "ID", "SIZE", "ROLE")
		for _, m := range hosted {
			fmt.Printf("%-32s %-14s %-10s %s\n", m.Name, m.ID, m.Size, roleFor(roles, m.Name))
		}
		return nil
	},
}

var modelsPsCmd = &cobra.Command{
	Use:   "ps",
	Short: "List models currently loaded in memory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		running, err := newManager(cfg).Running(cmd.Context())
		if err != nil {
			return err
		}
		if len(running) == 0 {
			fmt.Println("No models loaded.")
			return nil
		}
		fmt.Printf("%-32s %-10s %-16s %s\n", "NAME", "SIZE", "PROCESSOR", "UNTIL")
		for _, m := range running {
			fmt.Printf("%-32s %-10s %-16s %s\n", m.Name, m.Size, m.Processor, m.Until)
		}
		return nil
	},
}

var modelsCreateCmd = &cobra.Command{
	Use:   "create <name> <modelfile>",
	Short: "Create a model from a Modelfile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := newManager(cfg).Create(cmd.Context(), args[0], args[1]); err != nil {
			printStatus("✗", fmt.Sprintf("Create %s", args[0]), color.FgRed)
			return err
		}
		printStatus("✓", fmt.Sprintf("Created %s", args[0]), color.FgGreen)
		return nil
	},
}

var modelsRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a hosted model",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := newManager(cfg).Remove(cmd.Context(), args[0]); err != nil {
			printStatus("✗", fmt.Sprintf("Remove %s", args[0]), color.FgRed)
			return err
		}
		printStatus("✓", fmt.Sprintf("Removed %s", args[0]), color.FgGreen)
		return nil
	},
}

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Create every model in the manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		manifest, err := loadManifest(cfg, modelsManifest)
		if err != nil {
			return err
		}
		if err := newManager(cfg).Sync(cmd.Context(), manifest); err != nil {
			printStatus("✗", "Sync failed", color.FgRed)
			return err
		}
		printStatus("✓", fmt.Sprintf("Synced %d models", len(manifest.Models)), color.FgGreen)
		for _, w := range roleMismatches(manifest.RoleModels(), cfg.Roles()) {
			printStatus("⚠", w, color.FgYellow)
		}
		return nil
	},
}

var modelsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove every model in the manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		manifest, err := loadManifest(cfg, modelsManifest)
		if err != nil {
			return err
		}
		if err := newManager(cfg).Prune(cmd.Context(), manifest); err != nil {
			printStatus("⚠", "Some models could not be removed", color.FgYellow)
			return err
		}
		printStatus("✓", fmt.Sprintf("Removed %d models", len(manifest.Models)), color.FgGreen)
		return nil
	},
}

var modelsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild models when their Modelfiles change",
	Args:  cobra.NoArgs,
	RunE:  runModelsWatch,
}

func init() {
	modelsCmd.PersistentFlags().StringVar(&modelsManifest, "manifest", "", "Manifest path (overrides lifecycle.manifest)")

	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsPsCmd)
	modelsCmd.AddCommand(modelsCreateCmd)
	modelsCmd.AddCommand(modelsRemoveCmd)
	modelsCmd.AddCommand(modelsSyncCmd)
	modelsCmd.AddCommand(modelsPruneCmd)
	modelsCmd.AddCommand(modelsWatchCmd)
}

func runModelsWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	manifest, err := loadManifest(cfg, modelsManifest)
	if err != nil {
		return err
	}

	watcher, err := lifecycle.NewWatcher(newManager(cfg), manifest)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := make(chan lifecycle.RebuildEvent)
	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx, events)
	}()

	fmt.Printf("Watching %d Modelfiles. Press Ctrl+C to stop.\n", len(manifest.Models))
	for {
		select {
		case ev := <-events:
			if ev.Err != nil {
				printStatus("✗", fmt.Sprintf("Rebuild %s: %v", ev.Model, ev.Err), color.FgRed)
			} else {
				printStatus("✓", fmt.Sprintf("Rebuilt %s", ev.Model), color.FgGreen)
			}
		case err := <-done:
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		}
	}
}

// roleNames maps configured model names to their role for display.
func roleNames(cfg *config.Config) map[string]string {
	roles := make(map[string]string)
	if cfg.Models.Worker != "" {
		roles[cfg.Models.Worker] = lifecycle.RoleWorker
	}
	if cfg.Models.TaskBreaker != "" {
		roles[cfg.Models.TaskBreaker] = lifecycle.RoleTaskBreaker
	}
	if cfg.Models.Decision != "" {
		roles[cfg.Models.Decision] = lifecycle.RoleDecision
	}
	return roles
}

func roleFor(roles map[string]string, name string) string {
	if r, ok := roles[name]; ok {
		return r
	}
	return roles[strings.TrimSuffix(name, ":latest")]
}

// roleMismatches lists the roles the manifest binds to a model other than
// the one config routes through.
func roleMismatches(manifest, configured models.Roles) []string {
	pairs := []struct {
		label      string
		manifest   models.ModelIdentity
		configured models.ModelIdentity
	}{
		{"decision", manifest.Decision, configured.Decision},
		{"task_breaker", manifest.TaskBreaker, configured.TaskBreaker},
		{"worker", manifest.Worker, configured.Worker},
	}

	var out []string
	for _, p := range pairs {
		if p.manifest == "" || p.manifest == p.configured {
			continue
		}
		out = append(out, fmt.Sprintf("manifest binds %s to %s but config uses %q (set models.%s)",
			p.label, p.manifest, p.configured, p.label))
	}
	return out
}
