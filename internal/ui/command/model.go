package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskmaster/internal/theme"
)

// CommandMsg is emitted when the user commits a typed utterance.
type CommandMsg string

// InterimMsg carries the utterance while it is still being typed, the
// keyboard equivalent of a provisional speech hypothesis.
type InterimMsg string

// Model is the typed voice command input.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command input model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "say something, e.g. add buy milk high"
	ti.Prompt = "🎤 "
	ti.CharLimit = 500
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		text := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if text == "" {
			return m, nil
		}
		return m, func() tea.Msg { return CommandMsg(text) }
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, tea.Batch(cmd, interimCmd(before, m.input.Value()))
}

// interimCmd reports the input when it changed.
func interimCmd(before, after string) tea.Cmd {
	if after == before {
		return nil
	}
	return func() tea.Msg { return InterimMsg(after) }
}

// View renders the command input.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Voice Command")
	hint := theme.HelpStyle.Render("enter to send, esc to close")

	content := lipgloss.JoinVertical(lipgloss.Left, title, m.input.View(), "", hint)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command input dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Blur releases keyboard focus and clears the input.
func (m *Model) Blur() {
	m.input.Blur()
	m.input.Reset()
}
