package reminderpopup

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskmaster/internal/model"
)

func key(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSnoozeAndDismissWalkTheQueue(t *testing.T) {
	m := New(80, 24)
	assert.False(t, m.Active())

	m.Push(model.Task{ID: 1, Text: "stretch"}, "")
	m.Push(model.Task{ID: 2, Text: "water plants"}, "")
	assert.Contains(t, m.View(), "Reminder: stretch")
	assert.Contains(t, m.View(), "(1 more)")

	m, cmd := m.Update(key("s"))
	require.NotNil(t, cmd)
	assert.Equal(t, SnoozeMsg{ID: 1}, cmd())

	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, int64(2), cur.ID)

	m, cmd = m.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, DismissMsg{}, cmd())
	assert.False(t, m.Active())
}

func TestViewShowsRecipientForEmailReminders(t *testing.T) {
	m := New(100, 24)
	m.Push(model.Task{ID: 1, Text: "pay rent", ReminderEmail: true}, "me@example.com")
	assert.Contains(t, m.View(), "Email: me@example.com")
}
