package voice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRecognizer records calls and lets the test drive events.
type scriptedRecognizer struct {
	mu       sync.Mutex
	listener Listener
	running  bool
	starts   int
	stops    int
	failNext int

	// onRunning runs after the recognizer is up but before it reports
	// OnStart.
	onRunning func()
}

func (r *scriptedRecognizer) Start(l Listener) error {
	r.mu.Lock()
	r.starts++
	if r.failNext > 0 {
		r.failNext--
		r.mu.Unlock()
		return errors.New("already started")
	}
	r.listener = l
	r.running = true
	hook := r.onRunning
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	l.OnStart()
	return nil
}

func (r *scriptedRecognizer) isRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *scriptedRecognizer) Stop() error {
	r.mu.Lock()
	r.stops++
	wasRunning := r.running
	r.running = false
	l := r.listener
	r.mu.Unlock()
	if wasRunning {
		l.OnEnd()
	}
	return nil
}

// timeout simulates the platform ending a session on its own.
func (r *scriptedRecognizer) timeout() {
	r.mu.Lock()
	r.running = false
	l := r.listener
	r.mu.Unlock()
	l.OnEnd()
}

func (r *scriptedRecognizer) final(text string) {
	r.listener.OnResult(Result{Segments: []Segment{{Transcript: text, Final: true}}})
}

type sessionHarness struct {
	*harness
	rec     *scriptedRecognizer
	session *Session
	clock   time.Time
	timers  []*fakeTimer
	states  []State
}

func newSessionHarness(t *testing.T) *sessionHarness {
	t.Helper()
	sh := &sessionHarness{
		harness: newHarness(t),
		rec:     &scriptedRecognizer{},
		clock:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	sh.session = NewSession(sh.rec, sh.interp, sh.ann, sh.prefs, SessionConfig{
		Debounce:      100 * time.Millisecond,
		AutoStopDelay: 500 * time.Millisecond,
	})
	sh.session.now = func() time.Time { return sh.clock }
	sh.session.afterFunc = func(d time.Duration, f func()) stopper {
		ft := &fakeTimer{d: d, f: f}
		sh.timers = append(sh.timers, ft)
		return ft
	}
	sh.session.SetOnStateChange(func(s State) { sh.states = append(sh.states, s) })
	return sh
}

func TestStartStop(t *testing.T) {
	sh := newSessionHarness(t)

	require.NoError(t, sh.session.Start())
	assert.Equal(t, StateListening, sh.session.State())
	assert.Equal(t, statusLine{"Listening...", StatusListening}, sh.display.lastStatus())

	sh.session.Stop()
	assert.Equal(t, StateIdle, sh.session.State())
	assert.False(t, sh.session.Listening())
	assert.Equal(t, "Session ended.", sh.display.lastReader())
	assert.Equal(t, 1, sh.rec.starts, "ending after an explicit stop must not restart")
}

func TestUnsupportedRecognizer(t *testing.T) {
	h := newHarness(t)
	s := NewSession(nil, h.interp, h.ann, h.prefs, SessionConfig{})

	assert.ErrorIs(t, s.Start(), ErrUnsupported)
	assert.Equal(t, StateError, s.State())
	assert.Equal(t, statusLine{"Speech recognition not supported", StatusError}, h.display.lastStatus())
}

func TestUnexpectedEndRestarts(t *testing.T) {
	sh := newSessionHarness(t)
	require.NoError(t, sh.session.Start())

	sh.rec.timeout()

	assert.Equal(t, 2, sh.rec.starts)
	assert.Equal(t, StateListening, sh.session.State())
	assert.Equal(t, []State{StateListening, StateRestarting, StateListening}, sh.states)
}

func TestStopWhileRestartingCancelsRestart(t *testing.T) {
	sh := newSessionHarness(t)
	require.NoError(t, sh.session.Start())
	sh.session.SetOnStateChange(func(s State) {
		sh.states = append(sh.states, s)
		if s == StateRestarting {
			sh.session.Stop()
		}
	})

	sh.rec.timeout()

	assert.Equal(t, StateIdle, sh.session.State())
	assert.False(t, sh.session.Listening())
	assert.False(t, sh.rec.isRunning())
	assert.Equal(t, 1, sh.rec.starts)
	assert.Equal(t, []State{StateListening, StateRestarting, StateIdle}, sh.states)
}

func TestStopBeforeRestartReportsStartShutsItDown(t *testing.T) {
	sh := newSessionHarness(t)
	require.NoError(t, sh.session.Start())
	sh.rec.onRunning = func() {
		sh.rec.onRunning = nil
		sh.session.Stop()
	}

	sh.rec.timeout()

	assert.Equal(t, 2, sh.rec.starts)
	assert.Equal(t, StateIdle, sh.session.State())
	assert.False(t, sh.session.Listening())
	assert.False(t, sh.rec.isRunning())
	assert.NotContains(t, sh.states[1:], StateListening)
}

func TestStartRetriesOnce(t *testing.T) {
	sh := newSessionHarness(t)
	sh.rec.failNext = 1

	require.NoError(t, sh.session.Start())
	assert.Equal(t, 2, sh.rec.starts)
	assert.Equal(t, 1, sh.rec.stops)
	assert.Equal(t, StateListening, sh.session.State())
}

func TestStartFailsTwiceGoesToError(t *testing.T) {
	sh := newSessionHarness(t)
	sh.rec.failNext = 2

	assert.Error(t, sh.session.Start())
	assert.Equal(t, StateError, sh.session.State())
	assert.False(t, sh.session.Listening())
}

func TestErrorDoesNotAutoRecover(t *testing.T) {
	sh := newSessionHarness(t)
	require.NoError(t, sh.session.Start())

	sh.rec.listener.OnError(errors.New("network"))
	sh.rec.timeout()

	assert.Equal(t, StateError, sh.session.State())
	assert.Equal(t, 1, sh.rec.starts)
	assert.Equal(t, "Voice recognition error.", sh.display.lastReader())

	require.NoError(t, sh.session.Start())
	assert.Equal(t, StateListening, sh.session.State())
}

func TestToggle(t *testing.T) {
	sh := newSessionHarness(t)

	require.NoError(t, sh.session.Toggle())
	assert.True(t, sh.session.Listening())
	require.NoError(t, sh.session.Toggle())
	assert.False(t, sh.session.Listening())
}

func TestFinalResultIsInterpreted(t *testing.T) {
	sh := newSessionHarness(t)
	require.NoError(t, sh.prefs.SetAutoStop(context.Background(), false))
	require.NoError(t, sh.session.Start())

	sh.rec.listener.OnResult(Result{Segments: []Segment{{Transcript: "add bu", Final: false}}})
	assert.Empty(t, sh.store.Snapshot())
	assert.Equal(t, []string{"add bu"}, sh.display.previews)

	sh.rec.final("Hey, add buy milk.")
	require.Len(t, sh.store.Snapshot(), 1)
	assert.Equal(t, "buy milk", sh.store.Snapshot()[0].Text)
	assert.Equal(t, "add buy milk", sh.display.previews[len(sh.display.previews)-1])
}

func TestResultIndexSkipsEarlierSegments(t *testing.T) {
	sh := newSessionHarness(t)
	require.NoError(t, sh.prefs.SetAutoStop(context.Background(), false))
	require.NoError(t, sh.session.Start())

	sh.rec.listener.OnResult(Result{
		Index: 1,
		Segments: []Segment{
			{Transcript: "add old", Final: true},
			{Transcript: "add new", Final: true},
		},
	})
	snap := sh.store.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "new", snap[0].Text)
}

func TestDebounceDropsRapidDuplicate(t *testing.T) {
	sh := newSessionHarness(t)
	require.NoError(t, sh.prefs.SetAutoStop(context.Background(), false))
	require.NoError(t, sh.session.Start())

	sh.rec.final("add milk")
	sh.clock = sh.clock.Add(50 * time.Millisecond)
	sh.rec.final("add milk")
	assert.Len(t, sh.store.Snapshot(), 1)

	sh.clock = sh.clock.Add(100 * time.Millisecond)
	sh.rec.final("add milk")
	assert.Len(t, sh.store.Snapshot(), 2, "outside the window the repeat is a new command")

	sh.rec.final("add bread")
	assert.Len(t, sh.store.Snapshot(), 3, "different text is never debounced")
}

func TestStopCommandStopsSession(t *testing.T) {
	sh := newSessionHarness(t)
	require.NoError(t, sh.session.Start())

	sh.rec.final("stop")
	assert.Equal(t, StateIdle, sh.session.State())

	// A second "stop" arriving later must not start listening again.
	sh.clock = sh.clock.Add(time.Second)
	sh.session.OnResult(Result{Segments: []Segment{{Transcript: "stop", Final: true}}})
	assert.False(t, sh.session.Listening())
}

func TestAutoStopAfterMutation(t *testing.T) {
	sh := newSessionHarness(t)
	require.NoError(t, sh.session.Start())

	sh.rec.final("list")
	assert.Empty(t, sh.timers, "informational commands do not auto-stop")

	sh.rec.final("add milk")
	require.Len(t, sh.timers, 1)
	assert.Equal(t, 500*time.Millisecond, sh.timers[0].d)
	assert.True(t, sh.session.Listening())

	sh.timers[0].fire()
	assert.False(t, sh.session.Listening())
	assert.Equal(t, StateIdle, sh.session.State())
}

func TestAutoStopSkippedWhenAlreadyStopped(t *testing.T) {
	sh := newSessionHarness(t)
	require.NoError(t, sh.session.Start())

	sh.rec.final("add milk")
	require.Len(t, sh.timers, 1)
	sh.session.Stop()
	assert.True(t, sh.timers[0].stopped, "stop cancels the pending auto-stop")

	require.NoError(t, sh.session.Start())
	sh.timers[0].fire()
	assert.True(t, sh.session.Listening())
}

func TestAutoStopDisabled(t *testing.T) {
	sh := newSessionHarness(t)
	require.NoError(t, sh.session.SetAutoStop(context.Background(), false))
	assert.Equal(t, statusLine{"Auto-stop OFF", StatusReady}, sh.display.lastStatus())
	require.NoError(t, sh.session.Start())

	sh.rec.final("add milk")
	assert.Empty(t, sh.timers)
}

func TestVoiceToggleSpeaksLastMessage(t *testing.T) {
	sh := newSessionHarness(t)
	ctx := context.Background()

	sh.interp.Interpret("help")
	require.NoError(t, sh.ann.ToggleVoice(ctx))
	assert.True(t, sh.prefs.VoiceEnabled())

	said := sh.speaker.said()
	require.Len(t, said, 1)
	assert.Equal(t, HelpMessage, said[0])

	require.NoError(t, sh.ann.ToggleVoice(ctx))
	assert.Equal(t, statusLine{"Voice muted", StatusReady}, sh.display.lastStatus())

	sh.ann.SpeakLast()
	assert.Len(t, sh.speaker.said(), 1, "muted voice stays silent")
}

func TestVoiceReplayIsTruncated(t *testing.T) {
	h := newHarness(t)
	long := make([]rune, 300)
	for i := range long {
		long[i] = 'x'
	}
	h.ann.Announce(string(long), StatusReady, HintScreenReader)

	require.NoError(t, h.ann.SetVoiceEnabled(context.Background(), true))
	said := h.speaker.said()
	require.Len(t, said, 1)
	assert.Len(t, said[0], 240)
}
