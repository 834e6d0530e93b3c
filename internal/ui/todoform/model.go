package todoform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/taskmaster/internal/model"
	"github.com/nhle/taskmaster/internal/theme"
)

// TaskSubmittedMsg is dispatched when a new task is submitted via the form.
type TaskSubmittedMsg struct {
	Text     string
	Priority model.Priority
	Reminder *model.Reminder
}

// TaskEditedMsg is dispatched when an existing task's text is changed.
type TaskEditedMsg struct {
	ID   int64
	Text string
}

// FormCancelMsg is dispatched when the user cancels the form.
type FormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	text          string
	priority      string
	reminderAt    string
	reminderEmail bool
	reminderTo    string
}

// Model is the Bubble Tea model for the add/edit task form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	editID   int64
	now      func() time.Time
	width    int
	height   int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{priority: string(model.PriorityMedium)},
		now:    time.Now,
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for a new task.
func (m *Model) StartCreate() tea.Cmd {
	m.editMode = false
	m.editID = 0
	*m.fb = formBindings{priority: string(model.PriorityMedium)}
	m.form = m.buildCreateForm()
	return m.form.Init()
}

// StartEdit initializes the form for editing a task's text.
func (m *Model) StartEdit(t model.Task) tea.Cmd {
	m.editMode = true
	m.editID = t.ID
	*m.fb = formBindings{text: t.Text, priority: string(t.Priority)}
	m.form = m.buildEditForm()
	return m.form.Init()
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return FormCancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editMode {
		titleText = "Edit Task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildCreateForm() *huh.Form {
	opts := make([]huh.Option[string], 0, len(model.Priorities))
	for _, p := range model.Priorities {
		opts = append(opts, huh.NewOption(strings.ToUpper(string(p[:1]))+string(p[1:]), string(p)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Task").
				Placeholder("What needs to be done?").
				Value(&m.fb.text).
				Validate(validateRequired("Task")),
			huh.NewSelect[string]().
				Title("Priority").
				Options(opts...).
				Value(&m.fb.priority),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Reminder").
				Description("Local time, YYYY-MM-DD HH:MM").
				Placeholder("optional").
				Value(&m.fb.reminderAt).
				Validate(validateOptionalDateTime),
			huh.NewConfirm().
				Title("Email reminder").
				Affirmative("Yes").
				Negative("No").
				Value(&m.fb.reminderEmail),
			huh.NewInput().
				Title("Send to").
				Description("Leave empty for the default recipient").
				Placeholder("optional").
				Value(&m.fb.reminderTo).
				Validate(validateOptionalEmail),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) buildEditForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Task").
				Value(&m.fb.text).
				Validate(validateRequired("Task")),
		),
	).WithWidth(m.formWidth())
}

func (m Model) handleSubmit() tea.Cmd {
	text := strings.TrimSpace(m.fb.text)

	if m.editMode {
		id := m.editID
		return func() tea.Msg { return TaskEditedMsg{ID: id, Text: text} }
	}

	msg := TaskSubmittedMsg{
		Text:     text,
		Priority: model.ParsePriority(m.fb.priority),
	}
	if at, err := model.ParseDateTimeInput(strings.TrimSpace(m.fb.reminderAt)); err == nil && !at.IsZero() {
		msg.Reminder = &model.Reminder{
			At:    at,
			Email: m.fb.reminderEmail,
			To:    strings.TrimSpace(m.fb.reminderTo),
		}
	}
	return func() tea.Msg { return msg }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDateTime(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := model.ParseDateTimeInput(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("invalid time, use YYYY-MM-DD HH:MM")
	}
	return nil
}

func validateOptionalEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("invalid email address")
	}
	return nil
}
