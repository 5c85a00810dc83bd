package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/triage/internal/config"
	"github.com/ShayCichocki/triage/internal/state"
)

var (
	historyLimit     int
	historyStatus    string
	historyOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse recorded runs",
	Long: `Every routed prompt is stored as a run with its ordered results.
Runs that failed keep the results produced before the failure.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its results",
	Long:  "Show a run and its results. A unique prefix of the run ID is enough.",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete old runs and their results",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPurge,
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	historyListCmd.Flags().StringVar(&historyStatus, "status", "", "Only show runs with this status (running, completed, failed, interrupted)")
	historyPurgeCmd.Flags().DurationVar(&historyOlderThan, "older-than", 30*24*time.Hour, "Delete runs started before this long ago")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPurgeCmd)
}

// withHistory opens the history database for the duration of fn.
func withHistory(fn func(db *state.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled (set history.enabled to true)")
	}
	db, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()
	return fn(db)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	var filter *state.RunStatus
	if historyStatus != "" {
		s, err := parseRunStatus(historyStatus)
		if err != nil {
			return err
		}
		filter = &s
	}

	return withHistory(func(db *state.DB) error {
		runs, err := db.ListRuns(filter, historyLimit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}
		fmt.Printf("%-8s  %-11s  %-7s  %-16s  %-8s  %s\n", "ID", "STATUS", "RESULTS", "WORKER", "AGE", "PROMPT")
		for _, r := range runs {
			fmt.Printf("%-8s  %-11s  %-7d  %-16s  %-8s  %s\n",
				shortRunID(r.ID),
				r.Status,
				r.ResultCount,
				truncate(string(r.Worker), 16),
				formatDuration(time.Since(r.StartedAt)),
				truncate(oneLine(r.Prompt), 60))
		}
		return nil
	})
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	return withHistory(func(db *state.DB) error {
		run, err := db.FindRun(args[0])
		if err != nil {
			return fmt.Errorf("find run: %w", err)
		}
		if run == nil {
			return fmt.Errorf("no run matches %q", args[0])
		}

		results, err := db.ListResults(run.ID)
		if err != nil {
			return fmt.Errorf("list results: %w", err)
		}

		displayRun(run)
		fmt.Println()

		heading := color.New(color.FgCyan, color.Bold)
		for _, res := range results {
			if res.Depth > 0 {
				indent := strings.Repeat("  ", res.Depth-1)
				heading.Printf("%s%d. %s\n", indent, res.Seq+1, res.Message)
			}
			fmt.Println(strings.TrimRight(res.Output, "\n"))
			fmt.Println()
		}
		return nil
	})
}

func displayRun(r *state.Run) {
	fmt.Printf("Run: %s\n", r.ID)
	fmt.Printf("  Prompt: %s\n", r.Prompt)
	fmt.Printf("  Status: %s\n", r.Status)
	fmt.Printf("  Models: decision=%s task_breaker=%s worker=%s\n", r.Decision, r.TaskBreaker, r.Worker)
	fmt.Printf("  Strategy: %s\n", r.Strategy)
	fmt.Printf("  Started: %s\n", r.StartedAt.Local().Format(time.DateTime))
	if r.FinishedAt != nil {
		fmt.Printf("  Duration: %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	if r.Error != "" {
		color.New(color.FgRed).Printf("  Error: %s\n", r.Error)
	}
}

func runHistoryPurge(cmd *cobra.Command, args []string) error {
	if historyOlderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}
	return withHistory(func(db *state.DB) error {
		n, err := db.PurgeOldRuns(historyOlderThan)
		if err != nil {
			return fmt.Errorf("purge runs: %w", err)
		}
		printStatus("✓", fmt.Sprintf("Deleted %d runs older than %s", n, formatDuration(historyOlderThan)), color.FgGreen)
		return nil
	})
}

func parseRunStatus(s string) (state.RunStatus, error) {
	switch st := state.RunStatus(strings.ToLower(s)); st {
	case state.RunRunning, state.RunCompleted, state.RunFailed, state.RunInterrupted:
		return st, nil
	default:
		return "", fmt.Errorf("unknown run status %q", s)
	}
}

// oneLine collapses line breaks so a prompt fits in a table cell.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
