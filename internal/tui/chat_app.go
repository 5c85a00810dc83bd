package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	promptLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	headingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4")).Bold(true)
	infoStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

// ChatApp is the Bubble Tea model for an interactive triage session.
type ChatApp struct {
	header     *Header
	input      *InputField
	transcript viewport.Model
	spinner    spinner.Model
	lines      []string
	width      int
	height     int
	busy       bool
	quitting   bool
	onSubmit   func(string)
}

// NewChatApp creates a ChatApp.
func NewChatApp(worker, strategy string) *ChatApp {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &ChatApp{
		header:     NewHeader(worker, strategy),
		input:      NewInputField(),
		transcript: viewport.New(80, 20),
		spinner:    sp,
		width:      80,
		height:     24,
	}
}

// SetSubmitHandler sets the callback invoked for each submitted line.
// The handler runs on the UI goroutine and must not block.
func (a *ChatApp) SetSubmitHandler(handler func(string)) {
	a.onSubmit = handler
}

// Init initializes the app.
func (a *ChatApp) Init() tea.Cmd {
	return tea.Batch(a.input.Focus(), a.spinner.Tick)
}

// Update handles messages.
func (a *ChatApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		case "pgup", "pgdown":
			var cmd tea.Cmd
			a.transcript, cmd = a.transcript.Update(msg)
			return a, cmd
		}
		if a.busy {
			return a, nil
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.header.SetWidth(msg.Width)
		a.input.SetWidth(msg.Width)
		a.transcript.Width = msg.Width
		a.transcript.Height = a.transcriptHeight()
		a.refresh()
		return a, nil

	case PromptSubmittedMsg:
		a.appendLine(promptLineStyle.Render("> ") + msg.Input)
		if a.onSubmit != nil {
			a.busy = true
			a.input.Blur()
			a.onSubmit(msg.Input)
		}
		return a, nil

	case ResultMsg:
		res := msg.Result
		if res.Depth > 0 {
			indent := strings.Repeat("  ", res.Depth-1)
			a.appendLine(headingStyle.Render(fmt.Sprintf("%s%d. %s", indent, res.Seq+1, res.Message)))
		}
		a.appendLine(strings.TrimRight(res.Output, "\n"))
		a.appendLine("")
		return a, nil

	case InfoMsg:
		a.appendLine(infoStyle.Render(msg.Text))
		return a, nil

	case ErrorMsg:
		a.appendLine(errorStyle.Render("Error: " + msg.Err.Error()))
		return a, nil

	case InputDoneMsg:
		a.busy = false
		if msg.Exit {
			a.quitting = true
			return a, tea.Quit
		}
		if msg.Worker != "" {
			a.header.SetWorker(msg.Worker)
		}
		return a, a.input.Focus()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// View renders the app.
func (a *ChatApp) View() string {
	if a.quitting {
		return ""
	}

	status := ""
	if a.busy {
		status = a.spinner.View() + infoStyle.Render(" working...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.header.View(),
		a.transcript.View(),
		status,
		a.input.View(),
	)
}

// Transcript returns the transcript lines.
func (a *ChatApp) Transcript() []string {
	return a.lines
}

// Busy reports whether an input is being handled.
func (a *ChatApp) Busy() bool {
	return a.busy
}

func (a *ChatApp) appendLine(line string) {
	a.lines = append(a.lines, line)
	a.refresh()
}

func (a *ChatApp) refresh() {
	a.transcript.SetContent(strings.Join(a.lines, "\n"))
	a.transcript.GotoBottom()
}

// transcriptHeight is what remains after the header, status line and input box.
func (a *ChatApp) transcriptHeight() int {
	h := a.height - a.header.Height() - 1 - 3
	if h < 1 {
		h = 1
	}
	return h
}

// NewChatProgram creates a full-screen program around a new ChatApp.
func NewChatProgram(worker, strategy string) (*tea.Program, *ChatApp) {
	app := NewChatApp(worker, strategy)
	return tea.NewProgram(app, tea.WithAltScreen()), app
}
