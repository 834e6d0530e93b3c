package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/nhle/taskmaster/internal/credential"
	"github.com/nhle/taskmaster/internal/mailer"
	"github.com/nhle/taskmaster/internal/model"
	"github.com/nhle/taskmaster/internal/reminder"
	"github.com/nhle/taskmaster/internal/store"
	"github.com/nhle/taskmaster/internal/tasks"
	"github.com/nhle/taskmaster/internal/theme"
	"github.com/nhle/taskmaster/internal/view"
	"github.com/nhle/taskmaster/internal/voice"
)

// coreOptions select the surfaces a command runs the core with.
type coreOptions struct {
	display voice.Display
	confirm voice.Confirmer

	// recognizer is nil for commands that never listen; they get no session.
	recognizer voice.Recognizer

	// composer overrides the desktop mail composer.
	composer mailer.Composer
}

// core is every service behind the UI and the one-shot commands.
type core struct {
	cfg       *model.AppConfig
	kv        *store.SQLiteStore
	tasks     *tasks.Store
	view      *view.State
	prefs     *voice.Prefs
	ann       *voice.Announcer
	interp    *voice.Interpreter
	session   *voice.Session
	scheduler *reminder.Scheduler
	sender    mailer.Sender
	composer  mailer.Composer
}

// openCore opens the database and wires the services for cfg.
func openCore(ctx context.Context, cfg *model.AppConfig, opts coreOptions) (*core, error) {
	theme.Apply(cfg.Display.Theme)

	if dir := filepath.Dir(cfg.Storage.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	kv, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	ts, err := tasks.Load(ctx, kv)
	if err != nil {
		kv.Close()
		return nil, err
	}

	c := &core{
		cfg:   cfg,
		kv:    kv,
		tasks: ts,
		view:  view.NewState(),
		prefs: voice.LoadPrefs(ctx, kv),
	}

	var speaker voice.Speaker
	if sp := voice.NewCommandSpeaker(cfg.Voice.SpeechCommand); sp != nil {
		speaker = sp
	}
	c.ann = voice.NewAnnouncer(opts.display, speaker, c.prefs)
	c.interp = voice.NewInterpreter(ts, c.view, c.ann, opts.confirm)
	if opts.recognizer != nil {
		c.session = voice.NewSession(opts.recognizer, c.interp, c.ann, c.prefs, voice.SessionConfig{
			Debounce:      cfg.Voice.Debounce(),
			AutoStopDelay: cfg.Voice.AutoStopDelay(),
		})
	}

	c.sender = mailer.NewSMTPSender(credential.SMTPPassword,
		mailer.NewSentCopier(cfg.Email.IMAPAddr, cfg.Email.SentMailbox))
	c.composer = opts.composer
	if c.composer == nil {
		c.composer = mailer.SystemComposer{}
	}

	c.scheduler = reminder.New(ts, kv, c.ann,
		reminder.NewDesktopNotifier(cfg.Reminders.Notifications),
		c.sender, c.composer,
		reminder.Config{
			PollInterval: cfg.Reminders.PollInterval(),
			Snooze:       cfg.Reminders.Snooze(),
		})

	return c, nil
}

// Close stops background work and closes the database.
func (c *core) Close() {
	c.scheduler.Stop()
	if c.session != nil && c.session.Listening() {
		c.session.Stop()
	}
	if err := c.kv.Close(); err != nil {
		log.Printf("closing store: %v", err)
	}
}
