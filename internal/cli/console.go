package cli

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/charmbracelet/huh"

	"github.com/nhle/taskmaster/internal/voice"
)

// consoleDisplay prints announcements line by line. Status and preview
// updates are only shown in verbose mode since they repeat what the
// screen reader line says.
type consoleDisplay struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
}

func (d *consoleDisplay) println(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.w, s)
}

func (d *consoleDisplay) SetStatus(text string, status voice.Status) {
	if d.verbose {
		d.println(fmt.Sprintf("[%s] %s", status, text))
	}
}

func (d *consoleDisplay) ScreenReader(text string) {
	d.println(text)
}

func (d *consoleDisplay) SetPreview(text string) {
	if d.verbose {
		d.println("… " + text)
	}
}

// confirmer returns the bulk-deletion policy for one-shot commands: --yes
// approves, interactive asks through a prompt, anything else declines.
func confirmer(yes, interactive bool) voice.Confirmer {
	switch {
	case yes:
		return voice.ConfirmFunc(func(_ string, done func(bool)) { done(true) })
	case interactive:
		return voice.ConfirmFunc(promptConfirm)
	default:
		return nil
	}
}

func promptConfirm(prompt string, done func(bool)) {
	ok := false
	err := huh.NewConfirm().
		Title(prompt).
		Affirmative("Yes, delete").
		Negative("Cancel").
		Value(&ok).
		Run()
	if err != nil {
		log.Printf("confirm prompt: %v", err)
		ok = false
	}
	done(ok)
}
