package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeText(f *InputField, text string) *InputField {
	for _, r := range text {
		f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return f
}

func TestNewInputField(t *testing.T) {
	f := NewInputField()
	if f == nil {
		t.Fatal("NewInputField returned nil")
	}
	if f.width != 80 {
		t.Errorf("default width = %d, want 80", f.width)
	}
}

func TestInputField_SetWidth(t *testing.T) {
	f := NewInputField()
	f.SetWidth(100)
	if f.width != 100 {
		t.Errorf("width = %d, want 100", f.width)
	}
	if f.input.Width != 96 {
		t.Errorf("input width = %d, want 96", f.input.Width)
	}
}

func TestInputField_EnterEmpty(t *testing.T) {
	f := NewInputField()
	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("expected no command for empty input")
	}
}

func TestInputField_EnterSubmits(t *testing.T) {
	f := NewInputField()
	f = typeText(f, "plan a trip")

	f, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on enter")
	}
	msg, ok := cmd().(PromptSubmittedMsg)
	if !ok {
		t.Fatalf("expected PromptSubmittedMsg, got %T", cmd())
	}
	if msg.Input != "plan a trip" {
		t.Errorf("Input = %q", msg.Input)
	}
	if f.Value() != "" {
		t.Errorf("input not cleared, got %q", f.Value())
	}
}

func TestInputField_History(t *testing.T) {
	f := NewInputField()
	for _, line := range []string{"first", "second"} {
		f = typeText(f, line)
		f, _ = f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	}

	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyUp})
	if f.Value() != "second" {
		t.Errorf("after up = %q, want second", f.Value())
	}
	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyUp})
	if f.Value() != "first" {
		t.Errorf("after up up = %q, want first", f.Value())
	}
	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyUp})
	if f.Value() != "first" {
		t.Errorf("up past oldest = %q, want first", f.Value())
	}
	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyDown})
	if f.Value() != "second" {
		t.Errorf("after down = %q, want second", f.Value())
	}
	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyDown})
	if f.Value() != "" {
		t.Errorf("down past newest = %q, want empty", f.Value())
	}
}

func TestInputField_FocusBlur(t *testing.T) {
	f := NewInputField()
	f.Blur()
	if f.input.Focused() {
		t.Error("expected blurred input")
	}
	f.Focus()
	if !f.input.Focused() {
		t.Error("expected focused input")
	}
}

func TestInputField_View(t *testing.T) {
	f := NewInputField()
	if !strings.Contains(f.View(), ">") {
		t.Error("view should contain the prompt marker")
	}
}
