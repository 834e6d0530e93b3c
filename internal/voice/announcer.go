package voice

import (
	"context"
	"log"
	"sync"

	"github.com/nhle/taskmaster/internal/store"
)

// Status is the assistant indicator shown next to the status text.
type Status int

const (
	StatusReady Status = iota
	StatusListening
	StatusProcessing
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusListening:
		return "listening"
	case StatusProcessing:
		return "processing"
	case StatusError:
		return "error"
	default:
		return "ready"
	}
}

// Hint selects the channels an announcement goes out on.
type Hint uint8

const (
	// HintStatus shows the message on the status line.
	HintStatus Hint = 1 << iota
	// HintScreenReader sends the message to the assistive live region.
	HintScreenReader
	// HintSpeech speaks the message, but only while voice output is on.
	HintSpeech

	HintAll = HintStatus | HintScreenReader | HintSpeech
)

// Display is the non-spoken output surface.
type Display interface {
	SetStatus(text string, status Status)
	ScreenReader(text string)
	SetPreview(text string)
}

// Speaker renders text as audio. Speak must not block for the duration
// of the utterance, and a new call cancels any ongoing speech.
type Speaker interface {
	Speak(text string) error
}

// lastMessageLimit caps the replay when voice output is switched on.
const lastMessageLimit = 240

// Announcer fans a message out to the status line, the screen reader and,
// when the voice preference is on, the speaker.
type Announcer struct {
	mu      sync.Mutex
	display Display
	speaker Speaker
	prefs   *Prefs
	last    string
}

// NewAnnouncer wires the output channels. A nil speaker disables speech.
func NewAnnouncer(display Display, speaker Speaker, prefs *Prefs) *Announcer {
	if display == nil {
		display = nopDisplay{}
	}
	return &Announcer{display: display, speaker: speaker, prefs: prefs}
}

// Announce publishes msg on the channels named by hints.
func (a *Announcer) Announce(msg string, status Status, hints Hint) {
	if msg == "" {
		return
	}
	if hints&HintStatus != 0 {
		a.display.SetStatus(msg, status)
	}
	if hints&HintScreenReader != 0 {
		a.mu.Lock()
		a.last = msg
		a.mu.Unlock()
		a.display.ScreenReader(msg)
	}
	if hints&HintSpeech != 0 && a.prefs.VoiceEnabled() {
		a.speak(msg)
	}
}

// Status updates only the status line.
func (a *Announcer) Status(text string, status Status) {
	a.display.SetStatus(text, status)
}

// Preview shows a live transcript.
func (a *Announcer) Preview(text string) {
	a.display.SetPreview(text)
}

// LastMessage returns the most recent screen-reader message.
func (a *Announcer) LastMessage() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// SpeakLast repeats the last message aloud when voice output is on.
func (a *Announcer) SpeakLast() {
	if msg := a.LastMessage(); msg != "" && a.prefs.VoiceEnabled() {
		a.speak(msg)
	}
}

// SetVoiceEnabled persists the voice preference. Enabling it replays a
// shortened copy of the last message for context.
func (a *Announcer) SetVoiceEnabled(ctx context.Context, enabled bool) error {
	if err := a.prefs.SetVoiceEnabled(ctx, enabled); err != nil {
		return err
	}
	if !enabled {
		a.Status("Voice muted", StatusReady)
		return nil
	}
	a.Status("Voice enabled", StatusReady)
	if msg := a.LastMessage(); msg != "" {
		if r := []rune(msg); len(r) > lastMessageLimit {
			msg = string(r[:lastMessageLimit])
		}
		a.speak(msg)
	}
	return nil
}

// ToggleVoice flips the voice preference.
func (a *Announcer) ToggleVoice(ctx context.Context) error {
	return a.SetVoiceEnabled(ctx, !a.prefs.VoiceEnabled())
}

func (a *Announcer) speak(msg string) {
	if a.speaker == nil {
		log.Printf("voice: speech synthesis not available, dropping %q", msg)
		return
	}
	if err := a.speaker.Speak(msg); err != nil {
		log.Printf("voice: speaking: %v", err)
		a.display.SetStatus("Speech error", StatusError)
	}
}

type nopDisplay struct{}

func (nopDisplay) SetStatus(string, Status) {}
func (nopDisplay) ScreenReader(string)      {}
func (nopDisplay) SetPreview(string)        {}

// Prefs are the persisted voice preferences.
type Prefs struct {
	mu       sync.RWMutex
	kv       store.Store
	voice    bool
	autoStop bool
}

// LoadPrefs reads the preferences, defaulting to voice off and auto-stop on.
func LoadPrefs(ctx context.Context, kv store.Store) *Prefs {
	return &Prefs{
		kv:       kv,
		voice:    store.LoadBool(ctx, kv, store.KeyVoiceEnabled, false),
		autoStop: store.LoadBool(ctx, kv, store.KeyAutoStop, true),
	}
}

// VoiceEnabled reports whether announcements are spoken.
func (p *Prefs) VoiceEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.voice
}

// AutoStop reports whether a session ends after a mutating command.
func (p *Prefs) AutoStop() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.autoStop
}

// SetVoiceEnabled updates and persists the voice preference.
func (p *Prefs) SetVoiceEnabled(ctx context.Context, v bool) error {
	p.mu.Lock()
	p.voice = v
	p.mu.Unlock()
	return store.SaveBool(ctx, p.kv, store.KeyVoiceEnabled, v)
}

// SetAutoStop updates and persists the auto-stop preference.
func (p *Prefs) SetAutoStop(ctx context.Context, v bool) error {
	p.mu.Lock()
	p.autoStop = v
	p.mu.Unlock()
	return store.SaveBool(ctx, p.kv, store.KeyAutoStop, v)
}
