package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/triage/internal/shell"
	"github.com/ShayCichocki/triage/pkg/models"
)

// ResultMsg carries one worker reply.
type ResultMsg struct {
	Result models.TaskResult
}

// InfoMsg carries a status line.
type InfoMsg struct {
	Text string
}

// ErrorMsg carries a reported failure.
type ErrorMsg struct {
	Err error
}

// InputDoneMsg marks the end of handling one input.
type InputDoneMsg struct {
	// Exit ends the program.
	Exit bool
	// Worker is the worker model after the input, which change may have altered.
	Worker string
}

// Printer forwards session output to a running program.
type Printer struct {
	send func(tea.Msg)
}

// NewPrinter creates a Printer. Pass (*tea.Program).Send.
func NewPrinter(send func(tea.Msg)) *Printer {
	return &Printer{send: send}
}

// Result forwards a worker reply.
func (p *Printer) Result(res models.TaskResult) {
	p.send(ResultMsg{Result: res})
}

// Info forwards a status line.
func (p *Printer) Info(format string, args ...any) {
	p.send(InfoMsg{Text: fmt.Sprintf(format, args...)})
}

// Error forwards a failure.
func (p *Printer) Error(err error) {
	p.send(ErrorMsg{Err: err})
}

var _ shell.Printer = (*Printer)(nil)
