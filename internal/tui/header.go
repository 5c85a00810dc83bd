package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Header renders the title bar with the active worker model.
type Header struct {
	width    int
	worker   string
	strategy string
}

// NewHeader creates a new Header.
func NewHeader(worker, strategy string) *Header {
	return &Header{
		width:    80,
		worker:   worker,
		strategy: strategy,
	}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// SetWorker updates the displayed worker model.
func (h *Header) SetWorker(worker string) {
	h.worker = worker
}

// View renders the header.
func (h *Header) View() string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4ECDC4")).
		Bold(true).
		Render("triage")

	meta := lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Render("  worker: " + h.worker + "  strategy: " + h.strategy)

	return lipgloss.NewStyle().
		Width(h.width).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("240")).
		Render(title + meta)
}

// Height returns the header height in lines.
func (h *Header) Height() int {
	return 2 // title + border
}
