package voice

import (
	"bufio"
	"io"
	"sync"
)

// LineRecognizer treats each line of a reader as one final utterance, for
// piping transcripts from an external speech-to-text tool.
//
// The reader is drained by a single goroutine for the recognizer's life.
// Lines that arrive while no session is open are dropped.
type LineRecognizer struct {
	mu       sync.Mutex
	listener Listener
	running  bool
	started  bool
	closed   bool
	in       io.Reader
	done     chan struct{}
}

// NewLineRecognizer reads utterances from in.
func NewLineRecognizer(in io.Reader) *LineRecognizer {
	return &LineRecognizer{in: in, done: make(chan struct{})}
}

// Done is closed when the input is exhausted.
func (r *LineRecognizer) Done() <-chan struct{} {
	return r.done
}

// Start opens a session.
func (r *LineRecognizer) Start(l Listener) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	if r.closed {
		r.mu.Unlock()
		return io.ErrUnexpectedEOF
	}
	r.running = true
	r.listener = l
	if !r.started {
		r.started = true
		go r.read()
	}
	r.mu.Unlock()

	l.OnStart()
	return nil
}

// Stop ends the session.
func (r *LineRecognizer) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	l := r.listener
	r.mu.Unlock()

	l.OnEnd()
	return nil
}

func (r *LineRecognizer) read() {
	sc := bufio.NewScanner(r.in)
	for sc.Scan() {
		line := sc.Text()
		r.mu.Lock()
		if !r.running {
			r.mu.Unlock()
			continue
		}
		l := r.listener
		r.mu.Unlock()

		l.OnResult(Result{Segments: []Segment{{Transcript: line, Final: true}}})
	}

	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	close(r.done)
}
