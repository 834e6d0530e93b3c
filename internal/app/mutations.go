package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskmaster/internal/tasks"
	"github.com/nhle/taskmaster/internal/ui/todoform"
	"github.com/nhle/taskmaster/internal/view"
	"github.com/nhle/taskmaster/internal/voice"
)

func (m *Model) announce(msg string) {
	m.deps.Announcer.Announce(msg, voice.StatusReady, voice.HintAll)
}

func (m *Model) announceError(msg string) {
	m.deps.Announcer.Announce(msg, voice.StatusError, voice.HintAll)
}

// failed announces a mutation error in words the user can act on.
func (m *Model) failed(op string, err error) {
	switch {
	case errors.Is(err, tasks.ErrEmptyText):
		m.announceError("Task text cannot be empty.")
	case errors.Is(err, tasks.ErrNotFound):
		m.announceError("Task not found.")
	default:
		log.Printf("app: %s: %v", op, err)
		m.announceError(fmt.Sprintf("Could not %s.", op))
	}
}

// addTask persists a task from the form. A task with a reminder triggers
// an immediate scan so a past reminder time fires at once.
func (m *Model) addTask(msg todoform.TaskSubmittedMsg) tea.Cmd {
	t, err := m.deps.Tasks.Add(msg.Text, msg.Priority, msg.Reminder)
	if err != nil {
		m.failed("add task", err)
		return nil
	}
	m.announce(fmt.Sprintf("Added task: %s", t.Text))
	if msg.Reminder != nil {
		return tea.Batch(m.refresh(), m.deps.Scheduler.CheckNow())
	}
	return m.refresh()
}

func (m *Model) editTask(id int64, text string) tea.Cmd {
	t, err := m.deps.Tasks.EditText(id, text)
	if err != nil {
		m.failed("update task", err)
		return nil
	}
	m.announce(fmt.Sprintf("Task updated: %s", t.Text))
	return m.refresh()
}

func (m *Model) toggleSelected() tea.Cmd {
	sel, ok := m.taskList.SelectedTask()
	if !ok {
		return nil
	}
	t, err := m.deps.Tasks.ToggleComplete(sel.ID)
	if err != nil {
		m.failed("update task", err)
		return nil
	}
	if t.Completed {
		m.announce(fmt.Sprintf("Completed: %s", t.Text))
	} else {
		m.announce(fmt.Sprintf("Marked active: %s", t.Text))
	}
	return m.refresh()
}

func (m *Model) deleteSelected() tea.Cmd {
	sel, ok := m.taskList.SelectedTask()
	if !ok {
		return nil
	}
	t, err := m.deps.Tasks.SoftDelete(sel.ID)
	if err != nil {
		m.failed("delete task", err)
		return nil
	}
	m.announce(fmt.Sprintf("Deleted: %s", t.Text))
	return m.refresh()
}

func (m *Model) restoreSelected() tea.Cmd {
	sel, ok := m.trashList.SelectedTask()
	if !ok {
		return nil
	}
	t, err := m.deps.Tasks.Restore(sel.ID)
	if err != nil {
		m.failed("restore task", err)
		return nil
	}
	m.announce(fmt.Sprintf("Restored: %s", t.Text))
	return m.refresh()
}

func (m *Model) purgeSelected() tea.Cmd {
	sel, ok := m.trashList.SelectedTask()
	if !ok {
		return nil
	}
	ts, ann := m.deps.Tasks, m.deps.Announcer
	return m.askConfirm("Permanently delete this task?", sel.Text, func(ok bool) {
		if !ok {
			return
		}
		if _, err := ts.PermanentlyDelete(sel.ID); err != nil {
			log.Printf("app: purging task %d: %v", sel.ID, err)
			ann.Announce("Task not found.", voice.StatusError, voice.HintAll)
			return
		}
		ann.Announce("Task permanently deleted.", voice.StatusReady, voice.HintAll)
	})
}

func (m *Model) clearCompleted() tea.Cmd {
	n := view.Count(m.deps.Tasks.Snapshot()).Completed
	if n == 0 {
		m.announce("No completed tasks to clear.")
		return nil
	}
	ts, ann := m.deps.Tasks, m.deps.Announcer
	return m.askConfirm(fmt.Sprintf("Delete %d completed task(s)?", n), "This cannot be undone.", func(ok bool) {
		if !ok {
			return
		}
		if _, err := ts.ClearCompleted(); err != nil {
			ann.Announce("No completed tasks to clear.", voice.StatusError, voice.HintAll)
			return
		}
		ann.Announce("Cleared completed tasks.", voice.StatusReady, voice.HintAll)
	})
}

func (m *Model) emptyTrash() tea.Cmd {
	n := len(view.Deleted(m.deps.Tasks.Snapshot()))
	if n == 0 {
		m.announce("Trash is already empty.")
		return nil
	}
	ts, ann := m.deps.Tasks, m.deps.Announcer
	return m.askConfirm(fmt.Sprintf("Permanently delete %d task(s) from trash?", n), "This cannot be undone.", func(ok bool) {
		if !ok {
			return
		}
		if _, err := ts.EmptyTrash(); err != nil {
			ann.Announce("Trash is already empty.", voice.StatusError, voice.HintAll)
			return
		}
		ann.Announce("Trash emptied.", voice.StatusReady, voice.HintAll)
	})
}

func (m *Model) clearAll() tea.Cmd {
	if len(m.deps.Tasks.Snapshot()) == 0 {
		m.announce("No tasks to delete.")
		return nil
	}
	ts, ann := m.deps.Tasks, m.deps.Announcer
	return m.askConfirm("Delete ALL tasks? This cannot be undone.", "", func(ok bool) {
		if !ok {
			return
		}
		if _, err := ts.ClearAll(); err != nil {
			ann.Announce("No tasks to delete.", voice.StatusError, voice.HintAll)
			return
		}
		ann.Announce("All tasks deleted.", voice.StatusReady, voice.HintAll)
	})
}

// runCommand handles a typed utterance. While a session is listening the
// text goes through the recognizer like speech would; otherwise it is
// interpreted directly.
func (m *Model) runCommand(text string) tea.Cmd {
	if m.deps.Session.Listening() && m.deps.Recognizer.Running() {
		m.deps.Recognizer.Final(text)
		return m.refresh()
	}
	out := m.deps.Interpreter.Interpret(text)
	if out.Stop {
		m.deps.Session.Stop()
	}
	return m.refresh()
}

// exportTasks writes the whole collection as tasks_YYYY-MM-DD.json.
func (m *Model) exportTasks() {
	path := filepath.Join(m.deps.ExportDir, tasks.ExportFileName(m.now(), tasks.FormatJSON))
	if err := writeExport(m.deps.Tasks, path); err != nil {
		log.Printf("app: %v", err)
		m.announceError("Export failed.")
		return
	}
	m.announce(fmt.Sprintf("Exported tasks to %s.", path))
}

func writeExport(ts *tasks.Store, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing export file: %w", cerr)
		}
	}()
	return ts.Export(f, tasks.FormatJSON)
}
