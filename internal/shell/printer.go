package shell

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ShayCichocki/triage/pkg/models"
)

// Printer presents session output.
type Printer interface {
	// Result shows one worker reply as soon as it arrives.
	Result(res models.TaskResult)
	// Info shows a status line.
	Info(format string, args ...any)
	// Error reports a failure that did not end the session.
	Error(err error)
}

// WriterPrinter prints to a terminal stream with colored headers.
type WriterPrinter struct {
	w       io.Writer
	heading *color.Color
	info    *color.Color
	failure *color.Color
}

// NewWriterPrinter creates a Printer for w.
func NewWriterPrinter(w io.Writer) *WriterPrinter {
	return &WriterPrinter{
		w:       w,
		heading: color.New(color.FgCyan, color.Bold),
		info:    color.New(color.Faint),
		failure: color.New(color.FgRed),
	}
}

// Result prints a reply. Decomposed subtasks get a heading with their message.
func (p *WriterPrinter) Result(res models.TaskResult) {
	if res.Depth > 0 {
		indent := strings.Repeat("  ", res.Depth-1)
		p.heading.Fprintf(p.w, "%s%d. %s\n", indent, res.Seq+1, res.Message)
	}
	fmt.Fprintln(p.w, strings.TrimRight(res.Output, "\n"))
	fmt.Fprintln(p.w)
}

// Info prints a dimmed status line.
func (p *WriterPrinter) Info(format string, args ...any) {
	p.info.Fprintf(p.w, format+"\n", args...)
}

// Error prints an error line.
func (p *WriterPrinter) Error(err error) {
	p.failure.Fprintf(p.w, "Error: %v\n", err)
}
