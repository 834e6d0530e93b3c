package confirm

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// ResultMsg reports the user's answer to the confirmation with the given id.
type ResultMsg struct {
	ID int
	OK bool
}

// Model is a yes/no confirmation dialog for destructive actions.
type Model struct {
	form   *huh.Form
	id     int
	answer *bool
	width  int
	height int
}

// New creates an idle dialog.
func New(width, height int) Model {
	return Model{answer: new(bool), width: width, height: height}
}

// Ask opens the dialog for prompt. The answer is reported as a ResultMsg
// carrying id.
func (m *Model) Ask(id int, prompt, detail string) tea.Cmd {
	m.id = id
	*m.answer = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(prompt).
				Description(detail).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(m.answer),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// Update handles messages for the dialog.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.finish(*m.answer)
	case huh.StateAborted:
		return m.finish(false)
	}
	return m, cmd
}

func (m Model) finish(ok bool) (Model, tea.Cmd) {
	id := m.id
	m.form = nil
	return m, func() tea.Msg { return ResultMsg{ID: id, OK: ok} }
}

// View renders the dialog.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(m.form.View())
}

// SetSize updates the dialog dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}
