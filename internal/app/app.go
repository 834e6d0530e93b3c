package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskmaster/internal/keys"
	"github.com/nhle/taskmaster/internal/mailer"
	"github.com/nhle/taskmaster/internal/reminder"
	"github.com/nhle/taskmaster/internal/store"
	"github.com/nhle/taskmaster/internal/tasks"
	"github.com/nhle/taskmaster/internal/ui"
	"github.com/nhle/taskmaster/internal/ui/command"
	configview "github.com/nhle/taskmaster/internal/ui/config"
	"github.com/nhle/taskmaster/internal/ui/confirm"
	helpview "github.com/nhle/taskmaster/internal/ui/help"
	"github.com/nhle/taskmaster/internal/ui/reminderpopup"
	"github.com/nhle/taskmaster/internal/ui/tasklist"
	"github.com/nhle/taskmaster/internal/ui/todoform"
	"github.com/nhle/taskmaster/internal/view"
	"github.com/nhle/taskmaster/internal/voice"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewTrash
	ViewHelp
	ViewCommand
	ViewTaskCreate
	ViewTaskEdit
	ViewSettings
	ViewConfirm
	ViewReminder
)

// Deps are the services the root model drives.
type Deps struct {
	KV          store.Store
	Tasks       *tasks.Store
	View        *view.State
	Prefs       *voice.Prefs
	Announcer   *voice.Announcer
	Interpreter *voice.Interpreter
	Session     *voice.Session
	Recognizer  *voice.TextRecognizer
	Scheduler   *reminder.Scheduler
	Sender      mailer.Sender
	Composer    mailer.Composer
	SetPassword configview.PasswordSetter
	Display     *Display

	// ExportDir receives exported task files. Empty means the working
	// directory.
	ExportDir string
}

// Model is the root Bubble Tea model that manages view routing, layout
// and the voice assistant line.
type Model struct {
	currentView ViewState
	layout      ui.Layout
	deps        Deps
	keys        *keys.KeyMap

	taskList     tasklist.Model
	trashList    tasklist.Model
	helpView     helpview.Model
	commandView  command.Model
	configView   configview.Model
	todoFormView todoform.Model
	confirmView  confirm.Model
	popup        reminderpopup.Model

	// Overlays remember the view they cover.
	confirmReturn ViewState
	popupReturn   ViewState

	confirms      map[int]func(bool)
	nextConfirmID int

	status     string
	statusKind voice.Status
	preview    string
	liveRegion string
	stats      view.Stats

	ready bool
	now   func() time.Time
}

// New creates the root model and subscribes it to store, view and
// session changes.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()

	d.Tasks.SetOnChange(d.Display.TasksChanged)
	d.View.SetOnChange(d.Display.TasksChanged)
	d.Session.SetOnStateChange(d.Display.SessionChanged)

	trash := tasklist.New(k, "Deleted Tasks", false, 80, 24)
	trash.SetEmptyText("No deleted tasks.")

	main := tasklist.New(k, "Tasks", true, 80, 24)
	main.SetEmptyText("No tasks yet. Press n to add one or : to say a command.")

	m := Model{
		currentView:  ViewList,
		deps:         d,
		keys:         k,
		taskList:     main,
		trashList:    trash,
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
		configView:   configview.New(d.KV, d.Sender, d.Composer, d.SetPassword, k, 80, 24),
		todoFormView: todoform.New(80, 24),
		confirmView:  confirm.New(80, 24),
		popup:        reminderpopup.New(80, 24),
		confirms:     make(map[int]func(bool)),
		status:       "Ready",
		now:          time.Now,
	}
	m.refresh()
	return m
}

// Init starts the event bridge and the reminder scheduler.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.deps.Display.waitForEvent(),
		m.deps.Scheduler.Start(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.taskList.SetSize(w, h)
		m.trashList.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.configView.SetSize(w, h)
		m.todoFormView.SetSize(w, h)
		m.confirmView.SetSize(w, h)
		m.popup.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	// Events from the display bridge. Each one re-arms the wait.
	case statusMsg:
		m.status, m.statusKind = msg.text, msg.status
		return m, m.deps.Display.waitForEvent()

	case screenReaderMsg:
		m.liveRegion = string(msg)
		return m, m.deps.Display.waitForEvent()

	case previewMsg:
		m.preview = string(msg)
		return m, m.deps.Display.waitForEvent()

	case sessionStateMsg:
		if voice.State(msg) == voice.StateIdle {
			m.preview = ""
		}
		return m, m.deps.Display.waitForEvent()

	case tasksChangedMsg:
		return m, tea.Batch(m.refresh(), m.deps.Display.waitForEvent())

	case confirmRequestMsg:
		return m, tea.Batch(
			m.askConfirm(msg.prompt, msg.detail, msg.done),
			m.deps.Display.waitForEvent(),
		)

	case confirm.ResultMsg:
		done := m.confirms[msg.ID]
		delete(m.confirms, msg.ID)
		m.currentView = m.confirmReturn
		if done != nil {
			done(msg.OK)
		}
		return m, m.refresh()

	case reminder.FiredMsg:
		settings, err := store.LoadEmailSettings(context.Background(), m.deps.KV)
		if err != nil {
			log.Printf("app: loading email settings: %v", err)
		}
		m.popup.Push(msg.Task, settings.To)
		if m.currentView != ViewReminder {
			m.popupReturn = m.currentView
			m.currentView = ViewReminder
		}
		return m, tea.Batch(m.refresh(), m.deps.Scheduler.WaitForFired())

	case reminderpopup.SnoozeMsg:
		if err := m.deps.Scheduler.Snooze(msg.ID); err != nil {
			log.Printf("app: %v", err)
			m.announceError("Reminder could not be snoozed.")
		}
		m.closePopupIfDone()
		return m, m.refresh()

	case reminderpopup.DismissMsg:
		m.closePopupIfDone()
		return m, nil

	case todoform.TaskSubmittedMsg:
		m.currentView = m.homeView()
		return m, m.addTask(msg)

	case todoform.TaskEditedMsg:
		m.currentView = m.homeView()
		return m, m.editTask(msg.ID, msg.Text)

	case todoform.FormCancelMsg:
		m.currentView = m.homeView()
		return m, nil

	case command.CommandMsg:
		m.commandView.Blur()
		m.currentView = m.homeView()
		return m, m.runCommand(string(msg))

	case command.InterimMsg:
		if m.deps.Session.Listening() {
			m.deps.Recognizer.Interim(string(msg))
		}
		return m, nil

	case tasklist.SearchMsg:
		m.deps.View.SetSearch(msg.Query)
		return m, m.refresh()

	case configview.ConfigDoneMsg:
		m.currentView = m.homeView()
		return m, nil

	case configview.SettingsSavedMsg:
		m.deps.Announcer.Announce("Email settings saved.", voice.StatusReady, voice.HintScreenReader)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleKey routes key presses. Global shortcuts only apply to the task
// lists; forms and dialogs own the keyboard while open.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, m.quit()
	}

	switch m.currentView {
	case ViewList, ViewTrash:
		if m.currentView == ViewList && m.taskList.Searching() {
			return m.updateActiveView(msg)
		}
		return m.handleListKey(msg)

	case ViewHelp:
		if key.Matches(msg, m.keys.Help, m.keys.Back) {
			m.currentView = m.homeView()
		}
		return m, nil

	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.commandView.Blur()
			m.currentView = m.homeView()
			return m, nil
		}
	}

	return m.updateActiveView(msg)
}

// handleListKey processes shortcuts on the task list and the deleted tray.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	inTrash := m.currentView == ViewTrash

	switch {
	case key.Matches(msg, k.Quit):
		return m, m.quit()

	case key.Matches(msg, k.Help):
		m.currentView = ViewHelp
		return m, nil

	case key.Matches(msg, k.Command):
		m.currentView = ViewCommand
		return m, m.commandView.Focus()

	case key.Matches(msg, k.Settings):
		m.currentView = ViewSettings
		return m, m.configView.Init()

	case key.Matches(msg, k.Add):
		m.currentView = ViewTaskCreate
		return m, m.todoFormView.StartCreate()

	case key.Matches(msg, k.Edit) && !inTrash:
		t, ok := m.taskList.SelectedTask()
		if !ok {
			return m, nil
		}
		m.currentView = ViewTaskEdit
		return m, m.todoFormView.StartEdit(t)

	case key.Matches(msg, k.Toggle) && !inTrash:
		return m, m.toggleSelected()

	case key.Matches(msg, k.Delete, k.Purge) && inTrash:
		return m, m.purgeSelected()

	case key.Matches(msg, k.Delete):
		return m, m.deleteSelected()

	case key.Matches(msg, k.Restore) && inTrash:
		return m, m.restoreSelected()

	case key.Matches(msg, k.Trash):
		m.deps.View.SetTrashOpen(!m.deps.View.TrashOpen())
		return m, m.refresh()

	case key.Matches(msg, k.Back) && inTrash:
		m.deps.View.SetTrashOpen(false)
		return m, m.refresh()

	case key.Matches(msg, k.ClearCompleted):
		return m, m.clearCompleted()

	case key.Matches(msg, k.EmptyTrash):
		return m, m.emptyTrash()

	case key.Matches(msg, k.ClearAll):
		return m, m.clearAll()

	case key.Matches(msg, k.CycleStatus):
		m.deps.View.CycleStatus()
		return m, m.refresh()

	case key.Matches(msg, k.CyclePriority):
		m.deps.View.CyclePriority()
		return m, m.refresh()

	case key.Matches(msg, k.CycleSort):
		m.deps.View.CycleSort()
		return m, m.refresh()

	case key.Matches(msg, k.Listen):
		if err := m.deps.Session.Toggle(); err != nil {
			log.Printf("app: toggling listening: %v", err)
		}
		return m, nil

	case key.Matches(msg, k.AutoStop):
		if err := m.deps.Session.ToggleAutoStop(context.Background()); err != nil {
			log.Printf("app: saving auto-stop: %v", err)
		}
		return m, nil

	case key.Matches(msg, k.Voice):
		if err := m.deps.Announcer.ToggleVoice(context.Background()); err != nil {
			log.Printf("app: saving voice preference: %v", err)
		}
		return m, nil

	case key.Matches(msg, k.SpeakLast):
		m.deps.Announcer.SpeakLast()
		return m, nil

	case key.Matches(msg, k.Export):
		m.exportTasks()
		return m, nil
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewTrash:
		m.trashList, cmd = m.trashList.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewTaskCreate, ViewTaskEdit:
		m.todoFormView, cmd = m.todoFormView.Update(msg)
	case ViewSettings:
		m.configView, cmd = m.configView.Update(msg)
	case ViewConfirm:
		m.confirmView, cmd = m.confirmView.Update(msg)
	case ViewReminder:
		m.popup, cmd = m.popup.Update(msg)
	}

	return m, cmd
}

// homeView is the list the overlays return to.
func (m Model) homeView() ViewState {
	if m.deps.View.TrashOpen() {
		return ViewTrash
	}
	return ViewList
}

func (m *Model) closePopupIfDone() {
	if !m.popup.Active() && m.currentView == ViewReminder {
		m.currentView = m.popupReturn
	}
}

// askConfirm opens the confirmation dialog; done receives the answer. A
// request made while another confirmation is open is declined.
func (m *Model) askConfirm(prompt, detail string, done func(bool)) tea.Cmd {
	if m.currentView == ViewConfirm {
		done(false)
		return nil
	}
	m.nextConfirmID++
	id := m.nextConfirmID
	m.confirms[id] = done
	m.confirmReturn = m.currentView
	m.currentView = ViewConfirm
	return m.confirmView.Ask(id, prompt, detail)
}

// refresh recomputes both lists from the store and keeps the visible list
// in step with the deleted-tray toggle.
func (m *Model) refresh() tea.Cmd {
	snapshot := m.deps.Tasks.Snapshot()
	q := m.deps.View.Query()
	m.stats = view.Count(snapshot)

	m.taskList.SetTitle(listTitle(q))
	listCmd := m.taskList.SetTasks(view.Apply(snapshot, q))
	trashCmd := m.trashList.SetTasks(view.Deleted(snapshot))

	switch {
	case m.deps.View.TrashOpen() && m.currentView == ViewList:
		m.currentView = ViewTrash
	case !m.deps.View.TrashOpen() && m.currentView == ViewTrash:
		m.currentView = ViewList
	}
	return tea.Batch(listCmd, trashCmd)
}

func (m Model) quit() tea.Cmd {
	m.deps.Scheduler.Stop()
	if m.deps.Session.Listening() {
		m.deps.Session.Stop()
	}
	return tea.Quit
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Task Master", m.headerStats())
	preview := m.preview
	if preview == "" && m.liveRegion != m.status {
		preview = m.liveRegion
	}
	assistant := m.layout.RenderAssistant(m.statusKind.String(), m.status, preview)
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, assistant, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.taskList.View()
	case ViewTrash:
		return m.trashList.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewTaskCreate, ViewTaskEdit:
		return m.todoFormView.View()
	case ViewSettings:
		return m.configView.View()
	case ViewConfirm:
		return m.confirmView.View()
	case ViewReminder:
		return m.popup.View()
	default:
		return ""
	}
}

// headerStats summarizes the counts and the voice preferences.
func (m Model) headerStats() string {
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	return fmt.Sprintf("%d active • %d done • %d deleted | voice %s | auto-stop %s",
		m.stats.Active, m.stats.Completed, m.stats.Deleted,
		onOff(m.deps.Prefs.VoiceEnabled()), onOff(m.deps.Prefs.AutoStop()))
}

// listTitle describes the filters in effect.
func listTitle(q view.Query) string {
	title := fmt.Sprintf("Tasks · %s · %s · by %s", q.Status, q.Priority, q.Sort)
	if q.Search != "" {
		title += fmt.Sprintf(" · “%s”", q.Search)
	}
	return title
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter send | esc back"
	case ViewTaskCreate, ViewTaskEdit:
		return "enter submit | esc cancel"
	case ViewSettings:
		return "e edit | t send test | esc back"
	case ViewConfirm:
		return "←/→ choose | enter confirm | esc cancel"
	case ViewReminder:
		return "s snooze | enter dismiss"
	case ViewTrash:
		return "r restore | d delete forever | E empty trash | t/esc close"
	default:
		listen := "v listen"
		if m.deps.Session.Listening() {
			listen = "v stop listening"
		}
		return "q quit | ? help | n new | x done | d delete | : say | " + listen
	}
}
