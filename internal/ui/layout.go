package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskmaster/internal/theme"
)

// Layout manages the terminal layout dimensions: a header, the assistant
// line with the live transcript, the content area and the status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	AssistantHeight int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// Every fixed bar is one line high.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		AssistantHeight: 1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.AssistantHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the top bar with the title on the left and the
// task counts on the right.
func (l Layout) RenderHeader(title string, stats string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	statsRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(stats)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(statsRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statsRendered,
	)
}

// RenderAssistant renders the voice status indicator followed by the live
// transcript preview.
func (l Layout) RenderAssistant(status, text, preview string) string {
	indicator := theme.AssistantStyle(status).Render("● " + text)
	if preview == "" {
		return indicator
	}
	room := l.Width - lipgloss.Width(indicator) - 1
	if room <= 0 {
		return indicator
	}
	if r := []rune(preview); len(r) > room {
		preview = string(r[:room])
	}
	return indicator + " " + theme.PreviewStyle.Render(preview)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining the
// bars and the content area.
func (l Layout) RenderWithFrame(
	header string,
	assistant string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		assistant,
		content,
		statusBar,
	)
}
