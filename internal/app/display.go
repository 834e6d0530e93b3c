package app

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskmaster/internal/voice"
)

// eventBuffer bounds the queue between background producers and the UI.
const eventBuffer = 64

// statusMsg updates the assistant line.
type statusMsg struct {
	text   string
	status voice.Status
}

// screenReaderMsg carries text for the assistive live region.
type screenReaderMsg string

// previewMsg carries the live transcript.
type previewMsg string

// confirmRequestMsg asks the root model to open the confirmation dialog.
type confirmRequestMsg struct {
	prompt string
	detail string
	done   func(ok bool)
}

// tasksChangedMsg signals that the store or the view query changed.
type tasksChangedMsg struct{}

// sessionStateMsg reports a speech session transition.
type sessionStateMsg voice.State

// Display forwards announcements from any goroutine into the Bubble Tea
// event loop. It implements voice.Display and voice.Confirmer.
type Display struct {
	events chan tea.Msg
}

// NewDisplay creates a display with a buffered event queue.
func NewDisplay() *Display {
	return &Display{events: make(chan tea.Msg, eventBuffer)}
}

// send enqueues msg without blocking the producer. It reports whether the
// message was queued.
func (d *Display) send(msg tea.Msg) bool {
	select {
	case d.events <- msg:
		return true
	default:
		log.Printf("app: event queue full, dropping %T", msg)
		return false
	}
}

// SetStatus implements voice.Display.
func (d *Display) SetStatus(text string, status voice.Status) {
	d.send(statusMsg{text: text, status: status})
}

// ScreenReader implements voice.Display.
func (d *Display) ScreenReader(text string) {
	d.send(screenReaderMsg(text))
}

// SetPreview implements voice.Display.
func (d *Display) SetPreview(text string) {
	d.send(previewMsg(text))
}

// Confirm implements voice.Confirmer. A request that cannot be queued is
// declined.
func (d *Display) Confirm(prompt string, done func(ok bool)) {
	if !d.send(confirmRequestMsg{prompt: prompt, done: done}) {
		done(false)
	}
}

// TasksChanged queues a list refresh.
func (d *Display) TasksChanged() {
	d.send(tasksChangedMsg{})
}

// SessionChanged queues a session state update.
func (d *Display) SessionChanged(s voice.State) {
	d.send(sessionStateMsg(s))
}

// waitForEvent returns a command that blocks until the next event.
func (d *Display) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-d.events
	}
}
