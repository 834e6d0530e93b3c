package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskmaster/internal/model"
	"github.com/nhle/taskmaster/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Text }

// Title returns the task text for the list.
func (i TaskItem) Title() string { return i.Task.Text }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{
		string(i.Task.Priority),
		relativeTime(i.Task.CreatedAt.Time, time.Now()),
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering task rows. Each
// row starts with its 1-based ordinal, the number voice commands refer to.
type ItemDelegate struct {
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	fmt.Fprint(w, d.renderLine(ti.Task, index+1, index == m.Index()))
}

func (d ItemDelegate) renderLine(t model.Task, ordinal int, isSelected bool) string {
	now := time.Now
	if d.now != nil {
		now = d.now
	}

	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}

	pri := theme.PriorityStyle(string(t.Priority)).Render(priorityLabel(t.Priority))

	text := t.Text
	if t.Completed {
		text = theme.DimmedStyle.Render(text)
	}

	reminder := ""
	if t.ReminderAt != nil && !t.ReminderAt.IsZero() {
		reminder = lipgloss.NewStyle().
			Foreground(theme.ColorMagenta).
			Render(" ⏰ " + reminderLabel(t, now()))
	}

	age := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(t.CreatedAt.Time, now()))

	line := fmt.Sprintf("%2d. %s %s %s%s  %s", ordinal, check, pri, text, reminder, age)

	if isSelected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// reminderLabel describes a reminder's state.
func reminderLabel(t model.Task, now time.Time) string {
	at := t.ReminderAt.Local().Format("Jan 02 15:04")
	switch {
	case t.ReminderSent:
		return at + " (sent)"
	case t.ReminderAt.Before(now):
		return at + " (due)"
	default:
		return at
	}
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}

// priorityLabel returns a short label for the given priority.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "HIGH"
	case model.PriorityLow:
		return "LOW "
	default:
		return "MED "
	}
}
