package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypingThenEnterEmitsCommand(t *testing.T) {
	m := New(80, 24)
	m.Focus()

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("add milk")})
	assert.Equal(t, "add milk", m.input.Value())

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg("add milk"), cmd())
	assert.Empty(t, m.input.Value())
}

func TestInterimOnlyOnChange(t *testing.T) {
	assert.Nil(t, interimCmd("add", "add"))

	cmd := interimCmd("add", "add m")
	require.NotNil(t, cmd)
	assert.Equal(t, InterimMsg("add m"), cmd())
}

func TestEnterOnBlankDoesNothing(t *testing.T) {
	m := New(80, 24)
	m.Focus()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
