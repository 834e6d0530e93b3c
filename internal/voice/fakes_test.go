package voice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nhle/taskmaster/internal/tasks"
	"github.com/nhle/taskmaster/internal/testutil"
	"github.com/nhle/taskmaster/internal/view"
)

type statusLine struct {
	text   string
	status Status
}

// recordingDisplay captures everything the announcer emits.
type recordingDisplay struct {
	mu       sync.Mutex
	statuses []statusLine
	reader   []string
	previews []string
}

func (d *recordingDisplay) SetStatus(text string, st Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses = append(d.statuses, statusLine{text, st})
}

func (d *recordingDisplay) ScreenReader(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reader = append(d.reader, text)
}

func (d *recordingDisplay) SetPreview(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.previews = append(d.previews, text)
}

func (d *recordingDisplay) lastStatus() statusLine {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.statuses) == 0 {
		return statusLine{}
	}
	return d.statuses[len(d.statuses)-1]
}

func (d *recordingDisplay) lastReader() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.reader) == 0 {
		return ""
	}
	return d.reader[len(d.reader)-1]
}

type recordingSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (s *recordingSpeaker) Speak(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return nil
}

func (s *recordingSpeaker) said() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

// harness wires a real task store and view state behind an interpreter.
type harness struct {
	store   *tasks.Store
	view    *view.State
	display *recordingDisplay
	speaker *recordingSpeaker
	prefs   *Prefs
	ann     *Announcer
	interp  *Interpreter

	confirmPrompt string
	confirmAnswer bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	kv := testutil.NewTestStore(t)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ts, err := tasks.Load(context.Background(), kv, tasks.WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	}))
	require.NoError(t, err)

	h := &harness{
		store:         ts,
		view:          view.NewState(),
		display:       &recordingDisplay{},
		speaker:       &recordingSpeaker{},
		prefs:         LoadPrefs(context.Background(), kv),
		confirmAnswer: true,
	}
	h.ann = NewAnnouncer(h.display, h.speaker, h.prefs)
	h.interp = NewInterpreter(ts, h.view, h.ann, ConfirmFunc(func(prompt string, done func(bool)) {
		h.confirmPrompt = prompt
		done(h.confirmAnswer)
	}))
	return h
}

// seed adds texts so that the first one ends up oldest.
func (h *harness) seed(t *testing.T, texts ...string) {
	t.Helper()
	for _, text := range texts {
		_, err := h.store.Add(text, "", nil)
		require.NoError(t, err)
	}
}

// fakeTimer fires only when told to.
type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *fakeTimer) fire() {
	if !t.stopped {
		t.stopped = true
		t.f()
	}
}
