// Package reminder polls the task store for due reminders and delivers each
// one exactly once: a desktop notification, a screen-reader announcement, an
// in-app modal and, when the task asks for it, an email.
package reminder

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskmaster/internal/mailer"
	"github.com/nhle/taskmaster/internal/model"
	"github.com/nhle/taskmaster/internal/store"
	"github.com/nhle/taskmaster/internal/voice"
)

// sendTimeout bounds a single email delivery attempt.
const sendTimeout = 30 * time.Second

// FiredMsg is a tea.Msg sent when a reminder fires. It drives the in-app
// reminder modal.
type FiredMsg struct {
	Task model.Task
}

// TaskStore is the part of the mutation API the scheduler needs.
type TaskStore interface {
	Snapshot() []model.Task
	MarkReminderSent(id int64) error
	Snooze(id int64, d time.Duration) (model.Task, error)
}

// Config tunes a Scheduler.
type Config struct {
	PollInterval time.Duration
	Snooze       time.Duration

	// Location renders timestamps in reminder emails.
	Location *time.Location
}

// Scheduler runs the reminder poll loop.
type Scheduler struct {
	tasks    TaskStore
	kv       store.Store
	ann      *voice.Announcer
	notifier Notifier
	sender   mailer.Sender
	composer mailer.Composer
	cfg      Config
	now      func() time.Time

	firedCh chan FiredMsg
	stopCh  chan struct{}

	mu      sync.Mutex
	running bool

	// pollMu serializes polls so a reminder is never delivered twice by
	// overlapping ticks.
	pollMu sync.Mutex
}

// New creates a scheduler. notifier, sender and composer may be nil to
// disable that delivery channel.
func New(ts TaskStore, kv store.Store, ann *voice.Announcer, notifier Notifier, sender mailer.Sender, composer mailer.Composer, cfg Config) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 20 * time.Second
	}
	if cfg.Snooze <= 0 {
		cfg.Snooze = 10 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Scheduler{
		tasks:    ts,
		kv:       kv,
		ann:      ann,
		notifier: notifier,
		sender:   sender,
		composer: composer,
		cfg:      cfg,
		now:      time.Now,
		firedCh:  make(chan FiredMsg, 16),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the poll loop and returns a command that waits for the
// first fired reminder.
func (s *Scheduler) Start() tea.Cmd {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	go s.loop()

	return s.waitForFired()
}

// Stop halts the poll loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	close(s.stopCh)
	s.running = false
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.Poll(context.Background())

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Poll(context.Background())
		}
	}
}

// CheckNow runs a poll off the caller's goroutine, e.g. right after a task
// with a reminder is added.
func (s *Scheduler) CheckNow() tea.Cmd {
	go s.Poll(context.Background())
	return nil
}

// Poll delivers every due reminder and returns the tasks it fired.
func (s *Scheduler) Poll(ctx context.Context) []model.Task {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	now := s.now()
	var fired []model.Task
	for _, t := range s.tasks.Snapshot() {
		if !t.ReminderDue(now) {
			continue
		}
		s.deliver(ctx, t)
		// At most once: the reminder counts as sent whatever the delivery
		// outcome was.
		if err := s.tasks.MarkReminderSent(t.ID); err != nil {
			log.Printf("reminder: marking %d sent: %v", t.ID, err)
		}
		fired = append(fired, t)
	}
	return fired
}

func (s *Scheduler) deliver(ctx context.Context, t model.Task) {
	s.notify(fmt.Sprintf("Reminder: %s", t.Text), fmt.Sprintf("Task due: %s", t.Text))
	s.ann.Announce(fmt.Sprintf("Reminder: %s", t.Text), voice.StatusReady, voice.HintScreenReader)
	s.sendFired(FiredMsg{Task: t})

	if t.ReminderEmail {
		s.email(ctx, t)
	}
}

func (s *Scheduler) notify(title, body string) {
	if s.notifier == nil {
		return
	}
	show := func() {
		if err := s.notifier.Notify(title, body); err != nil {
			log.Printf("reminder: notification failed: %v", err)
		}
	}
	switch s.notifier.Permission() {
	case model.NotifyGranted:
		show()
	case model.NotifyDenied:
	default:
		s.notifier.RequestPermission(func(p string) {
			if p == model.NotifyGranted {
				show()
			}
		})
	}
}

func (s *Scheduler) email(ctx context.Context, t model.Task) {
	settings, err := store.LoadEmailSettings(ctx, s.kv)
	if err != nil {
		log.Printf("reminder: loading email settings: %v", err)
	}

	msg := mailer.ReminderMessage(t, settings, s.cfg.Location)
	outcome, err := mailer.Deliver(ctx, s.sender, s.composer, settings, msg, sendTimeout)
	switch outcome {
	case mailer.Sent:
		s.ann.Announce("Reminder email sent.", voice.StatusReady, voice.HintStatus|voice.HintScreenReader)
	case mailer.Failed:
		log.Printf("reminder: email for task %d not delivered: %v", t.ID, err)
	}
}

// Snooze pushes a fired reminder out by the snooze interval so it fires
// once more.
func (s *Scheduler) Snooze(id int64) error {
	if _, err := s.tasks.Snooze(id, s.cfg.Snooze); err != nil {
		return fmt.Errorf("snoozing reminder: %w", err)
	}
	s.ann.Announce(fmt.Sprintf("Reminder snoozed %d minutes.", int(s.cfg.Snooze/time.Minute)),
		voice.StatusReady, voice.HintScreenReader)
	return nil
}

// sendFired sends a FiredMsg without blocking the poll.
func (s *Scheduler) sendFired(msg FiredMsg) {
	select {
	case s.firedCh <- msg:
	default:
		// Drop if channel is full; the reminder is still marked sent
	}
}

func (s *Scheduler) waitForFired() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-s.firedCh
		if !ok {
			return nil
		}
		return msg
	}
}

// WaitForFired returns a tea.Cmd that waits for the next fired reminder.
// Call it again after handling each FiredMsg.
func (s *Scheduler) WaitForFired() tea.Cmd {
	return s.waitForFired()
}
