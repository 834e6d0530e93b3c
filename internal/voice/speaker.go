package voice

import (
	"fmt"
	"log"
	"os/exec"
	"sync"
)

// CommandSpeaker speaks by running an external text-to-speech program with
// the message as its final argument, e.g. "espeak" or "say".
type CommandSpeaker struct {
	name string
	args []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewCommandSpeaker returns nil when name is empty or not on PATH, which
// leaves speech disabled.
func NewCommandSpeaker(name string, args ...string) *CommandSpeaker {
	if name == "" {
		return nil
	}
	if _, err := exec.LookPath(name); err != nil {
		log.Printf("voice: speech command %q not found: %v", name, err)
		return nil
	}
	return &CommandSpeaker{name: name, args: args}
}

// Speak cancels any ongoing utterance and starts a new one.
func (s *CommandSpeaker) Speak(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}

	args := append(append([]string(nil), s.args...), text)
	cmd := exec.Command(s.name, args...)
	if err := cmd.Start(); err != nil {
		s.cmd = nil
		return fmt.Errorf("starting %s: %w", s.name, err)
	}
	s.cmd = cmd
	go func() {
		// Reap the process; a kill from a newer utterance is expected.
		_ = cmd.Wait()
		s.mu.Lock()
		if s.cmd == cmd {
			s.cmd = nil
		}
		s.mu.Unlock()
	}()
	return nil
}
