package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/triage/internal/config"
	"github.com/ShayCichocki/triage/internal/lifecycle"
)

var (
	initForce           bool
	initProvider        string
	initBaseModel       string
	initSkipOllamaCheck bool
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a triage project",
	Long: `Initialize a directory for use with triage.

This command sets up everything needed to route prompts:
  - Verifies the ollama CLI is available (ollama provider only)
  - Creates .triage.yaml with project overrides
  - Creates models.yaml with decision and task-breaker Modelfiles
  - Adds triage log files to .gitignore

Run 'triage models sync' afterwards to build the models.

Examples:
  triage init                       # Initialize current directory
  triage init ./chatbot             # Initialize specific directory
  triage init --provider anthropic  # Use the Anthropic API instead of Ollama
  triage init --force               # Overwrite existing files`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
	initCmd.Flags().StringVar(&initProvider, "provider", config.ProviderOllama, "Provider to configure (ollama, anthropic, gemini)")
	initCmd.Flags().StringVar(&initBaseModel, "base-model", "llama3", "Base model the generated Modelfiles build on")
	initCmd.Flags().BoolVar(&initSkipOllamaCheck, "skip-ollama-check", false, "Skip ollama CLI availability check")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	switch initProvider {
	case config.ProviderOllama, config.ProviderAnthropic, config.ProviderGemini:
	default:
		return fmt.Errorf("unknown provider %q", initProvider)
	}

	fmt.Printf("Initializing triage in %s...\n\n", absPath)

	if initProvider == config.ProviderOllama {
		if !initSkipOllamaCheck {
			if !newManager(config.Default()).Available() {
				printStatus("✗", "ollama CLI not found in PATH", color.FgRed)
				return fmt.Errorf("ollama CLI not found in PATH\n\nInstall it from https://ollama.com/download")
			}
			printStatus("✓", "ollama CLI found", color.FgGreen)
		}
	} else {
		cfg := config.Default()
		if config.GetAPIKeySource(cfg, initProvider) == config.KeySourceNone {
			printStatus("⚠", fmt.Sprintf("No %s API key set (you can set it later)", initProvider), color.FgYellow)
		} else {
			printStatus("✓", fmt.Sprintf("%s API key is set", initProvider), color.FgGreen)
		}
	}

	files := []struct {
		name    string
		content string
	}{
		{config.ProjectConfigFile, projectConfigTemplate(initProvider)},
	}
	if initProvider == config.ProviderOllama {
		files = append(files,
			struct{ name, content string }{lifecycle.DefaultManifestFile, manifestTemplate},
			struct{ name, content string }{"Language-Modelfile", decisionModelfile(initBaseModel)},
			struct{ name, content string }{"Task-Breaker-Modelfile", taskBreakerModelfile(initBaseModel)},
		)
	}

	for _, f := range files {
		written, err := writeFile(filepath.Join(absPath, f.name), f.content, initForce)
		if err != nil {
			return fmt.Errorf("creating %s: %w", f.name, err)
		}
		if written {
			printStatus("✓", fmt.Sprintf("Created %s", f.name), color.FgGreen)
		} else {
			printStatus("-", fmt.Sprintf("%s already exists (use --force to overwrite)", f.name), color.FgYellow)
		}
	}

	if err := updateGitignore(absPath); err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}
	printStatus("✓", "Updated .gitignore with triage entries", color.FgGreen)

	fmt.Println()
	if initProvider == config.ProviderOllama {
		fmt.Println("Next: run 'triage models sync' to build the models, then 'triage' to start.")
	} else {
		fmt.Println("Next: set models.decision, models.task_breaker and models.worker in .triage.yaml, then run 'triage'.")
	}
	return nil
}

// writeFile writes content to path unless the file exists and force is false.
// Reports whether the file was written.
func writeFile(path, content string, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return false, err
	}
	return true, nil
}

// updateGitignore adds triage entries to .gitignore if not present
func updateGitignore(repoPath string) error {
	gitignorePath := filepath.Join(repoPath, ".gitignore")

	var existingContent string
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existingContent = string(data)
	}

	entries := []string{
		".triage/logs/",
	}

	var missing []string
	for _, entry := range entries {
		if !strings.Contains(existingContent, entry) {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var newContent strings.Builder
	newContent.WriteString(existingContent)
	if len(existingContent) > 0 && !strings.HasSuffix(existingContent, "\n") {
		newContent.WriteString("\n")
	}
	newContent.WriteString("\n# triage\n")
	for _, entry := range missing {
		newContent.WriteString(entry + "\n")
	}

	return os.WriteFile(gitignorePath, []byte(newContent.String()), 0644)
}

func projectConfigTemplate(provider string) string {
	models := `models:
  decision: Language
  task_breaker: Task-Breaker
  worker: llama3`
	switch provider {
	case config.ProviderAnthropic:
		models = `models:
  decision: claude-haiku-4-5-20251001
  task_breaker: claude-haiku-4-5-20251001
  worker: claude-sonnet-4-5-20250929`
	case config.ProviderGemini:
		models = `models:
  decision: gemini-1.5-flash
  task_breaker: gemini-1.5-flash
  worker: gemini-1.5-pro`
	}

	return `# triage project configuration
# This file overrides defaults from ~/.config/triage/config.yaml

provider:
  kind: ` + provider + `

` + models + `

# routing:
#   strategy: single     # or recursive
#   max_depth: 3
#   strict_classification: false

# debug:
#   log_path: .triage/logs/router-debug.log
`
}

const manifestTemplate = `# Models built by 'triage models sync'.
models:
  - name: Language
    modelfile: ./Language-Modelfile
    role: decision
  - name: Task-Breaker
    modelfile: ./Task-Breaker-Modelfile
    role: task_breaker
`

func decisionModelfile(base string) string {
	return `FROM ` + base + `
PARAMETER temperature 0
SYSTEM """
You label requests. If the request can be answered directly in one step, reply
with the single word simple. If it needs several distinct steps, reply with the
single word complex. Reply with nothing else.
"""
`
}

func taskBreakerModelfile(base string) string {
	return `FROM ` + base + `
SYSTEM """
You break a request into the steps needed to complete it. Write one step per
line with no numbering, bullets or commentary.
"""
`
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
