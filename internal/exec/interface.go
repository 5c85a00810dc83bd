// Package exec runs external model-management commands.
package exec

import (
	"context"
)

// CommandRunner runs external commands such as the ollama CLI.
// Tests substitute a fake to avoid touching the host.
type CommandRunner interface {
	// Run executes name with args and returns its stdout.
	// A non-zero exit is reported as *CommandError carrying stderr.
	Run(ctx context.Context, name string, args ...string) (output []byte, err error)

	// LookPath reports the resolved path of an executable.
	LookPath(name string) (string, error)
}
