package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/triage/internal/shell"
	"github.com/ShayCichocki/triage/pkg/models"
)

var askFile string

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Route a single prompt and print the results",
	Long: `Route one prompt and exit.

The prompt is taken from the arguments, from --file, or from standard input
when neither is given. The prompt is sent as-is; session commands such as
'change' are not interpreted.

Examples:
  triage ask "plan a three day trip to Lisbon"
  triage ask --file prompt.txt
  echo "explain TCP slow start" | triage ask`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "Read the prompt from a file")
}

func runAsk(cmd *cobra.Command, args []string) error {
	prompt, err := readAskPrompt(args, askFile, os.Stdin)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Models.Worker == "" {
		return fmt.Errorf("no worker model: set models.worker or pass --worker")
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	worker := models.ModelIdentity(cfg.Models.Worker)
	printer := shell.NewWriterPrinter(os.Stdout)
	recording := a.recorder.Begin(prompt, worker)

	results, err := a.router.RouteStream(cmd.Context(), prompt, worker, func(res models.TaskResult) {
		recording.Record(res)
		printer.Result(res)
	})
	recording.Finish(err)
	printUsage(os.Stderr, a.tracker)
	if err != nil {
		if len(results) > 0 {
			return fmt.Errorf("stopped after %d results: %w", len(results), err)
		}
		return err
	}
	if len(results) == 0 {
		printer.Info("the task breaker returned no subtasks")
	}
	return nil
}

// readAskPrompt picks the prompt from args, then file, then in.
func readAskPrompt(args []string, file string, in io.Reader) (string, error) {
	switch {
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read prompt file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	default:
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read prompt from stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}
