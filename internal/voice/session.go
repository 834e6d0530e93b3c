package voice

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateListening
	StateRestarting
	StateError
)

func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateRestarting:
		return "restarting"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// stopper is the part of *time.Timer a Session needs.
type stopper interface {
	Stop() bool
}

// SessionConfig tunes a Session.
type SessionConfig struct {
	// Debounce drops a final transcript identical to the previous one when
	// it arrives within this window.
	Debounce time.Duration

	// AutoStopDelay is the pause between a mutating command and the
	// automatic stop.
	AutoStopDelay time.Duration
}

// Session owns a continuous recognition session. It restarts the
// recognizer whenever it ends on its own while listening is still desired,
// and forwards debounced final transcripts to the interpreter.
type Session struct {
	id     string
	rec    Recognizer
	interp *Interpreter
	ann    *Announcer
	prefs  *Prefs
	cfg    SessionConfig

	now       func() time.Time
	afterFunc func(time.Duration, func()) stopper

	mu       sync.Mutex
	state    State
	desired  bool
	stopGen  int // bumped by Stop; a restart begun under an older value is abandoned
	lastCmd  string
	lastAt   time.Time
	autoStop stopper
	onState  func(State)
}

// NewSession wires a session. A nil recognizer leaves the session unable
// to start, which is reported as an unsupported capability.
func NewSession(rec Recognizer, interp *Interpreter, ann *Announcer, prefs *Prefs, cfg SessionConfig) *Session {
	s := &Session{
		id:     uuid.NewString(),
		rec:    rec,
		interp: interp,
		ann:    ann,
		prefs:  prefs,
		cfg:    cfg,
		now:    time.Now,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
	interp.SetAfterMutation(s.maybeAutoStop)
	if rec == nil {
		ann.Status("Speech recognition not supported", StatusError)
	} else {
		ann.Status("Ready", StatusReady)
	}
	return s
}

// SetOnStateChange registers a callback fired on every state transition.
func (s *Session) SetOnStateChange(fn func(State)) {
	s.mu.Lock()
	s.onState = fn
	s.mu.Unlock()
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Listening reports whether the user wants the session running.
func (s *Session) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desired
}

// setState must be called without s.mu held.
func (s *Session) setState(st State) {
	s.mu.Lock()
	changed := s.state != st
	s.state = st
	fn := s.onState
	s.mu.Unlock()
	if changed && fn != nil {
		fn(st)
	}
}

// Start begins listening. A failed start is retried once after a stop,
// since some recognizers refuse to start until the previous session has
// fully ended.
func (s *Session) Start() error {
	if s.rec == nil {
		s.setState(StateError)
		s.ann.Status("Speech recognition not supported", StatusError)
		return ErrUnsupported
	}

	s.mu.Lock()
	if s.desired {
		s.mu.Unlock()
		return nil
	}
	s.desired = true
	s.mu.Unlock()

	err := s.rec.Start(s)
	if err != nil {
		// Clear the intent while stopping so the end event does not
		// trigger a restart of its own.
		s.mu.Lock()
		s.desired = false
		s.mu.Unlock()
		if stopErr := s.rec.Stop(); stopErr != nil {
			log.Printf("voice[%s]: stopping before retry: %v", s.id, stopErr)
		}
		s.mu.Lock()
		s.desired = true
		s.mu.Unlock()
		err = s.rec.Start(s)
	}
	if err != nil {
		s.fail(fmt.Errorf("starting recognizer: %w", err))
		return err
	}
	return nil
}

// Stop ends listening and cancels any pending restart or auto-stop.
func (s *Session) Stop() {
	s.mu.Lock()
	wasActive := s.desired || s.state == StateListening || s.state == StateRestarting
	s.desired = false
	s.stopGen++
	if s.autoStop != nil {
		s.autoStop.Stop()
		s.autoStop = nil
	}
	s.mu.Unlock()

	// Announce before the state change so observers waiting for idle see
	// the final message.
	s.ann.Status("Ready", StatusReady)
	if wasActive {
		s.ann.Announce("Session ended.", StatusReady, HintScreenReader|HintSpeech)
	}
	if s.rec != nil {
		if err := s.rec.Stop(); err != nil {
			log.Printf("voice[%s]: stopping recognizer: %v", s.id, err)
		}
	}
	s.setState(StateIdle)
}

// Toggle starts an idle session and stops a running one.
func (s *Session) Toggle() error {
	if s.Listening() {
		s.Stop()
		return nil
	}
	return s.Start()
}

// SetAutoStop persists the auto-stop preference.
func (s *Session) SetAutoStop(ctx context.Context, v bool) error {
	if err := s.prefs.SetAutoStop(ctx, v); err != nil {
		return err
	}
	if v {
		s.ann.Status("Auto-stop ON", StatusReady)
	} else {
		s.ann.Status("Auto-stop OFF", StatusReady)
	}
	return nil
}

// ToggleAutoStop flips the auto-stop preference.
func (s *Session) ToggleAutoStop(ctx context.Context) error {
	return s.SetAutoStop(ctx, !s.prefs.AutoStop())
}

// OnStart implements Listener. A recognizer that comes up after the user
// stopped is shut down again instead of listening unseen.
func (s *Session) OnStart() {
	s.mu.Lock()
	desired := s.desired
	s.mu.Unlock()
	if !desired {
		if err := s.rec.Stop(); err != nil {
			log.Printf("voice[%s]: stopping stale recognizer: %v", s.id, err)
		}
		s.setState(StateIdle)
		return
	}
	s.setState(StateListening)
	s.ann.Status("Listening...", StatusListening)
}

// OnEnd implements Listener. An end while listening is still desired is
// treated as a platform timeout and the recognizer is restarted at once.
func (s *Session) OnEnd() {
	s.mu.Lock()
	if !s.desired {
		inError := s.state == StateError
		s.mu.Unlock()
		if !inError {
			s.setState(StateIdle)
		}
		return
	}
	gen := s.stopGen
	s.mu.Unlock()

	s.setState(StateRestarting)
	if !s.stillWanted(gen) {
		s.setState(StateIdle)
		return
	}
	if err := s.rec.Start(s); err != nil {
		if !s.stillWanted(gen) {
			s.setState(StateIdle)
			return
		}
		s.fail(fmt.Errorf("restarting recognizer: %w", err))
	}
}

// stillWanted reports whether listening is desired and no Stop happened
// since gen was taken.
func (s *Session) stillWanted(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desired && s.stopGen == gen
}

// OnError implements Listener. Errors are terminal for the session until
// the user starts it again.
func (s *Session) OnError(err error) {
	log.Printf("voice[%s]: recognition error: %v", s.id, err)
	s.mu.Lock()
	s.desired = false
	s.mu.Unlock()
	s.setState(StateError)
	s.ann.Status("Recognition error", StatusError)
	s.ann.Announce("Voice recognition error.", StatusError, HintScreenReader)
}

func (s *Session) fail(err error) {
	log.Printf("voice[%s]: %v", s.id, err)
	s.mu.Lock()
	s.desired = false
	s.mu.Unlock()
	s.setState(StateError)
	s.ann.Status("Recognition error", StatusError)
}

// OnResult implements Listener. Interim text feeds the preview; final text
// is normalized, debounced and interpreted.
func (s *Session) OnResult(r Result) {
	var interim, final strings.Builder
	for i := r.Index; i < len(r.Segments); i++ {
		if i < 0 {
			continue
		}
		if r.Segments[i].Final {
			final.WriteString(r.Segments[i].Transcript)
		} else {
			interim.WriteString(r.Segments[i].Transcript)
		}
	}

	if t := strings.TrimSpace(interim.String()); t != "" {
		s.ann.Preview(t)
	}

	f := strings.TrimSpace(final.String())
	if f == "" {
		return
	}
	norm := Normalize(f)
	s.ann.Preview(norm)
	s.submit(norm)
}

// submit runs norm through the debounce guard and the interpreter.
func (s *Session) submit(norm string) {
	now := s.now()
	s.mu.Lock()
	if norm == s.lastCmd && now.Sub(s.lastAt) < s.cfg.Debounce {
		s.mu.Unlock()
		return
	}
	s.lastCmd = norm
	s.lastAt = now
	s.mu.Unlock()

	out := s.interp.Execute(norm)
	if out.Stop {
		s.Stop()
	}
}

// maybeAutoStop schedules a stop after a mutating command. The stop only
// happens if the session is still listening when the delay elapses.
func (s *Session) maybeAutoStop() {
	if !s.prefs.AutoStop() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.desired {
		return
	}
	if s.autoStop != nil {
		s.autoStop.Stop()
	}
	s.autoStop = s.afterFunc(s.cfg.AutoStopDelay, func() {
		s.mu.Lock()
		listening := s.desired
		s.autoStop = nil
		s.mu.Unlock()
		if listening {
			s.Stop()
		}
	})
}
