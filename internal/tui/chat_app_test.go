package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/triage/pkg/models"
)

func transcriptContains(app *ChatApp, want string) bool {
	return strings.Contains(strings.Join(app.Transcript(), "\n"), want)
}

func TestChatApp_CtrlCQuits(t *testing.T) {
	app := NewChatApp("llama3", "single")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !app.quitting {
		t.Error("expected quitting after ctrl+c")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
	if app.View() != "" {
		t.Error("expected empty view when quitting")
	}
}

func TestChatApp_SubmitCallsHandler(t *testing.T) {
	app := NewChatApp("llama3", "single")
	var got []string
	app.SetSubmitHandler(func(s string) { got = append(got, s) })

	app.Update(PromptSubmittedMsg{Input: "hello"})

	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("handler got %v", got)
	}
	if !app.Busy() {
		t.Error("expected busy while input is handled")
	}
	if !transcriptContains(app, "hello") {
		t.Error("submitted input missing from transcript")
	}
}

func TestChatApp_KeysIgnoredWhileBusy(t *testing.T) {
	app := NewChatApp("llama3", "single")
	app.SetSubmitHandler(func(string) {})
	app.Update(PromptSubmittedMsg{Input: "first"})

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if app.input.Value() != "" {
		t.Errorf("typing while busy changed input to %q", app.input.Value())
	}
}

func TestChatApp_Results(t *testing.T) {
	app := NewChatApp("llama3", "single")
	app.Update(ResultMsg{Result: models.TaskResult{Seq: 0, Depth: 1, Message: "How to: pack", Output: "bring socks\n"}})
	app.Update(InfoMsg{Text: "all done"})
	app.Update(ErrorMsg{Err: errors.New("worker offline")})

	for _, want := range []string{"1. How to: pack", "bring socks", "all done", "Error: worker offline"} {
		if !transcriptContains(app, want) {
			t.Errorf("transcript missing %q", want)
		}
	}
}

func TestChatApp_InputDone(t *testing.T) {
	app := NewChatApp("llama3", "single")
	app.SetSubmitHandler(func(string) {})
	app.Update(PromptSubmittedMsg{Input: "change mistral"})

	app.Update(InputDoneMsg{Worker: "mistral"})
	if app.Busy() {
		t.Error("expected idle after InputDoneMsg")
	}
	if app.header.worker != "mistral" {
		t.Errorf("header worker = %q, want mistral", app.header.worker)
	}

	_, cmd := app.Update(InputDoneMsg{Exit: true})
	if !app.quitting || cmd == nil {
		t.Error("expected quit on exit")
	}
}

func TestChatApp_WindowSize(t *testing.T) {
	app := NewChatApp("llama3", "recursive")
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if app.transcript.Width != 120 {
		t.Errorf("transcript width = %d", app.transcript.Width)
	}
	if app.transcript.Height != 40-2-1-3 {
		t.Errorf("transcript height = %d", app.transcript.Height)
	}
	if !strings.Contains(app.View(), "triage") {
		t.Error("view should include the header")
	}
}

func TestPrinterSends(t *testing.T) {
	var msgs []tea.Msg
	p := NewPrinter(func(m tea.Msg) { msgs = append(msgs, m) })
	p.Result(models.TaskResult{Output: "x"})
	p.Info("%d done", 2)
	p.Error(errors.New("boom"))

	if len(msgs) != 3 {
		t.Fatalf("sent %d messages, want 3", len(msgs))
	}
	if info, ok := msgs[1].(InfoMsg); !ok || info.Text != "2 done" {
		t.Errorf("info = %#v", msgs[1])
	}
}
