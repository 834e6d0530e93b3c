package reminderpopup

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskmaster/internal/model"
	"github.com/nhle/taskmaster/internal/theme"
)

// SnoozeMsg asks for the shown reminder to be snoozed.
type SnoozeMsg struct {
	ID int64
}

// DismissMsg closes the popup.
type DismissMsg struct{}

// Model is the in-app popup shown when a reminder fires. Reminders that
// fire while one is shown queue up behind it.
type Model struct {
	queue  []model.Task
	to     string
	width  int
	height int
}

// New creates an empty popup.
func New(width, height int) Model {
	return Model{width: width, height: height}
}

// Push queues a fired reminder. defaultTo is shown when the task has no
// recipient of its own.
func (m *Model) Push(t model.Task, defaultTo string) {
	m.queue = append(m.queue, t)
	if defaultTo != "" {
		m.to = defaultTo
	}
}

// Active reports whether a reminder is shown.
func (m Model) Active() bool {
	return len(m.queue) > 0
}

// Current returns the shown reminder.
func (m Model) Current() (model.Task, bool) {
	if len(m.queue) == 0 {
		return model.Task{}, false
	}
	return m.queue[0], true
}

// Update handles key presses while a reminder is shown.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || len(m.queue) == 0 {
		return m, nil
	}

	cur := m.queue[0]
	switch km.String() {
	case "s":
		m.queue = m.queue[1:]
		return m, func() tea.Msg { return SnoozeMsg{ID: cur.ID} }
	case "enter", "esc", "d":
		m.queue = m.queue[1:]
		return m, func() tea.Msg { return DismissMsg{} }
	}
	return m, nil
}

// View renders the popup.
func (m Model) View() string {
	t, ok := m.Current()
	if !ok {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorYellow).
		MarginBottom(1)

	when := "Now"
	if t.ReminderAt != nil && !t.ReminderAt.IsZero() {
		when = t.ReminderAt.Local().Format("Jan 2, 2006, 3:04 PM")
	}
	meta := "When: " + when
	to := t.ReminderTo
	if to == "" {
		to = m.to
	}
	if to != "" && t.ReminderEmail {
		meta += " • Email: " + to
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Reminder: %s", t.Text)))
	b.WriteString("\n")
	b.WriteString(t.Text)
	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render(meta))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).
		Render("s snooze 10 min | enter dismiss"))
	if n := len(m.queue) - 1; n > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).
			Render(fmt.Sprintf("  (%d more)", n)))
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		theme.PanelStyle.Width(min(m.width-4, 70)).Render(b.String()))
}

// SetSize updates the popup dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
