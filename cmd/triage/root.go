package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	rootPlain  bool
	rootWorker string
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Route prompts through a decision model, a task breaker and a worker",
	Long: `Triage sends each prompt to a decision model that labels it simple or complex.
Simple prompts go straight to the worker model. Complex prompts are split into
subtasks by a task-breaker model and each subtask is sent to the worker as
"How to: <subtask>".

With no arguments, starts an interactive session. Type 'help' inside the
session for the available commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version()
	rootCmd.Flags().BoolVar(&rootPlain, "plain", false, "Use a line-based prompt instead of the full-screen interface")
	rootCmd.PersistentFlags().StringVar(&rootWorker, "worker", "", "Worker model (overrides models.worker)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
