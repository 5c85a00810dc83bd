package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// InputPrompt is shown before each line is read.
const InputPrompt = "Enter your prompt: "

// Run reads lines from in until EOF, an exit word, or ctx is cancelled.
func Run(ctx context.Context, s *Session, in io.Reader, out io.Writer) error {
	printer := NewWriterPrinter(out)
	printBanner(out, s)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprint(out, InputPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if s.Handle(ctx, scanner.Text(), printer) {
			return nil
		}
	}
}

func printBanner(out io.Writer, s *Session) {
	bold := color.New(color.Bold)
	bold.Fprintln(out, "triage")
	fmt.Fprintf(out, "worker model: %s (type 'help' for commands, 'exit' to leave)\n\n", s.Worker)
}
