package voice

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrUnsupported is returned when no speech recognizer is available.
	ErrUnsupported = errors.New("speech recognition not supported")

	// ErrAlreadyStarted is returned by Start on a running recognizer.
	ErrAlreadyStarted = errors.New("recognizer already started")
)

// Segment is one transcript hypothesis within a session.
type Segment struct {
	Transcript string
	Final      bool
}

// Result is delivered on every recognition event. Segments holds the whole
// session so far; Index is the first segment that changed.
type Result struct {
	Index    int
	Segments []Segment
}

// Listener receives recognition events. Callbacks may arrive on any
// goroutine, and OnEnd may fire without a preceding Stop when the
// underlying session times out.
type Listener interface {
	OnStart()
	OnResult(r Result)
	OnError(err error)
	OnEnd()
}

// Recognizer is a continuous speech-to-text session.
type Recognizer interface {
	Start(l Listener) error
	Stop() error
}

// TextRecognizer stands in for a speech engine by accepting typed text:
// Interim updates the live hypothesis and Final commits it. A session
// ends on its own after the idle timeout, like a platform recognizer does.
type TextRecognizer struct {
	mu       sync.Mutex
	timeout  time.Duration
	listener Listener
	running  bool
	timer    *time.Timer
	gen      int
	segments []Segment
}

// NewTextRecognizer returns a recognizer whose sessions end after timeout
// without input. A zero timeout disables the limit.
func NewTextRecognizer(timeout time.Duration) *TextRecognizer {
	return &TextRecognizer{timeout: timeout}
}

// Start opens a session.
func (r *TextRecognizer) Start(l Listener) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.running = true
	r.listener = l
	r.segments = nil
	r.armLocked()
	r.mu.Unlock()

	l.OnStart()
	return nil
}

// Stop ends the session. Stopping an idle recognizer is a no-op.
func (r *TextRecognizer) Stop() error {
	r.end(nil)
	return nil
}

// Running reports whether a session is open.
func (r *TextRecognizer) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Interim replaces the current provisional hypothesis.
func (r *TextRecognizer) Interim(text string) {
	r.emit(text, false)
}

// Final commits text as a finished utterance.
func (r *TextRecognizer) Final(text string) {
	r.emit(text, true)
}

// Fail reports a recognition error and ends the session.
func (r *TextRecognizer) Fail(err error) {
	r.end(err)
}

func (r *TextRecognizer) emit(text string, final bool) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.armLocked()

	idx := len(r.segments)
	if idx > 0 && !r.segments[idx-1].Final {
		idx--
		r.segments = r.segments[:idx]
	}
	r.segments = append(r.segments, Segment{Transcript: text, Final: final})
	res := Result{Index: idx, Segments: append([]Segment(nil), r.segments...)}
	l := r.listener
	r.mu.Unlock()

	l.OnResult(res)
}

// end closes the session, reporting err first when non-nil.
func (r *TextRecognizer) end(err error) {
	r.endIf(err, func() bool { return true })
}

// endIf is end guarded by a check evaluated under the lock.
func (r *TextRecognizer) endIf(err error, check func() bool) {
	r.mu.Lock()
	if !r.running || !check() {
		r.mu.Unlock()
		return
	}
	r.running = false
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	l := r.listener
	r.mu.Unlock()

	if err != nil {
		l.OnError(err)
	}
	l.OnEnd()
}

func (r *TextRecognizer) armLocked() {
	if r.timeout <= 0 {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.gen++
	gen := r.gen
	r.timer = time.AfterFunc(r.timeout, func() { r.expire(gen) })
}

// expire ends the session unless input re-armed the timer since gen.
func (r *TextRecognizer) expire(gen int) {
	r.endIf(nil, func() bool { return gen == r.gen })
}
