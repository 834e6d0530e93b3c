package tasklist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskmaster/internal/keys"
	"github.com/nhle/taskmaster/internal/model"
	"github.com/nhle/taskmaster/internal/theme"
)

// SearchMsg is sent when the user commits or clears a search.
type SearchMsg struct {
	Query string
}

// Model renders an ordered task list. The main list and the deleted tray
// are both instances of it.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	searchable  bool
	searchMode  bool
	searchInput textinput.Model
	emptyText   string
	width       int
	height      int
}

// New creates a task list with the given title. A searchable list opens
// an inline search box on the search key.
func New(k *keys.KeyMap, title string, searchable bool, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = title
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search tasks..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		searchable:  searchable,
		searchInput: si,
		emptyText:   "No tasks yet.",
		width:       width,
		height:      height,
	}
}

// SetEmptyText sets the guidance shown when the list is empty.
func (m *Model) SetEmptyText(s string) {
	m.emptyText = s
}

// SetTitle replaces the list title.
func (m *Model) SetTitle(s string) {
	m.list.Title = s
}

// SetTasks replaces the rows, keeping the cursor in range.
func (m *Model) SetTasks(tasks []model.Task) tea.Cmd {
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		items[i] = TaskItem{Task: t}
	}
	idx := m.list.Index()
	cmd := m.list.SetItems(items)
	if idx >= len(items) && len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
	return cmd
}

// SelectedTask returns the task under the cursor.
func (m Model) SelectedTask() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

// Len returns the number of rows.
func (m Model) Len() int {
	return len(m.list.Items())
}

// Searching reports whether the search box has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		if m.searchable && key.Matches(msg, m.keys.Search) {
			m.searchMode = true
			return m, m.searchInput.Focus()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		query := m.searchInput.Value()
		return m, func() tea.Msg { return SearchMsg{Query: query} }

	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		return m, func() tea.Msg { return SearchMsg{} }
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// View renders the task list view.
func (m Model) View() string {
	body := m.list.View()
	if len(m.list.Items()) == 0 {
		body = m.renderEmptyState()
	}

	if m.searchMode || m.searchInput.Value() != "" {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, body)
	}
	return body
}

// renderEmptyState shows guidance text when no tasks are visible.
func (m Model) renderEmptyState() string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(m.emptyText)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
