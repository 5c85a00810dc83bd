// Package shell implements the interactive prompt loop shared by the plain
// REPL and the terminal UI.
package shell

import "strings"

// CommandKind identifies what a line of input asks for.
type CommandKind int

const (
	// CommandPrompt routes the line as a prompt.
	CommandPrompt CommandKind = iota
	// CommandEmpty is a blank line.
	CommandEmpty
	// CommandExit ends the session.
	CommandExit
	// CommandChange switches the worker model.
	CommandChange
	// CommandLoad reads a prompt from a file.
	CommandLoad
	// CommandModels lists hosted models.
	CommandModels
	// CommandHelp prints usage.
	CommandHelp
)

// Command is one parsed input line.
type Command struct {
	Kind CommandKind
	// Arg is the model name for change, the path for load, or the prompt text.
	Arg string
}

// exitWords end the loop. Matching ignores case and surrounding space.
var exitWords = map[string]bool{
	"exit": true,
	"quit": true,
	"/bye": true,
}

// Parse interprets one line of user input. Prompt text is returned verbatim.
func Parse(line string) Command {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Command{Kind: CommandEmpty}
	}

	lower := strings.ToLower(trimmed)
	if exitWords[lower] {
		return Command{Kind: CommandExit}
	}

	word, rest, _ := strings.Cut(trimmed, " ")
	rest = strings.TrimSpace(rest)
	// change and load take one argument; longer lines are ordinary prompts.
	single := !strings.ContainsAny(rest, " \t")
	switch strings.ToLower(word) {
	case "change":
		if single {
			return Command{Kind: CommandChange, Arg: rest}
		}
	case "load":
		if single {
			return Command{Kind: CommandLoad, Arg: rest}
		}
	case "models":
		if rest == "" {
			return Command{Kind: CommandModels}
		}
	case "help", "/help", "?":
		if rest == "" {
			return Command{Kind: CommandHelp}
		}
	}

	return Command{Kind: CommandPrompt, Arg: line}
}

// HelpText describes the input grammar.
const HelpText = `Commands:
  change <model>   switch the worker model
  load <path>      route the contents of a file as the prompt
  models           list models hosted by ollama
  help             show this message
  exit, quit, /bye leave
Anything else is routed as a prompt.`
