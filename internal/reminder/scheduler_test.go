package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskmaster/internal/mailer"
	"github.com/nhle/taskmaster/internal/model"
	"github.com/nhle/taskmaster/internal/store"
	"github.com/nhle/taskmaster/internal/tasks"
	"github.com/nhle/taskmaster/internal/testutil"
	"github.com/nhle/taskmaster/internal/voice"
)

type screenReader struct {
	messages []string
}

func (d *screenReader) SetStatus(string, voice.Status) {}
func (d *screenReader) ScreenReader(text string)       { d.messages = append(d.messages, text) }
func (d *screenReader) SetPreview(string)              {}

type fakeNotifier struct {
	permission string
	answer     string
	shown      []string
}

func (n *fakeNotifier) Permission() string { return n.permission }

func (n *fakeNotifier) RequestPermission(done func(string)) {
	n.permission = n.answer
	done(n.answer)
}

func (n *fakeNotifier) Notify(title, body string) error {
	n.shown = append(n.shown, title+"|"+body)
	return nil
}

type fakeSender struct {
	sent []mailer.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, _ model.EmailSettings, msg mailer.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

type fakeComposer struct {
	links []string
}

func (c *fakeComposer) Compose(link string) error {
	c.links = append(c.links, link)
	return nil
}

type harness struct {
	sched    *Scheduler
	tasks    *tasks.Store
	kv       store.Store
	display  *screenReader
	notifier *fakeNotifier
	sender   *fakeSender
	composer *fakeComposer
	advance  func(time.Duration)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	kv := testutil.NewTestStore(t)

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	ts, err := tasks.Load(ctx, kv, tasks.WithClock(clock))
	require.NoError(t, err)

	h := &harness{
		tasks:    ts,
		kv:       kv,
		display:  &screenReader{},
		notifier: &fakeNotifier{permission: model.NotifyGranted},
		sender:   &fakeSender{},
		composer: &fakeComposer{},
		advance:  func(d time.Duration) { now = now.Add(d) },
	}
	ann := voice.NewAnnouncer(h.display, nil, voice.LoadPrefs(ctx, kv))
	h.sched = New(ts, kv, ann, h.notifier, h.sender, h.composer, Config{Location: time.UTC})
	h.sched.now = clock
	return h
}

func (h *harness) addDue(t *testing.T, text string, email bool) model.Task {
	t.Helper()
	at := h.sched.now().Add(-time.Second)
	task, err := h.tasks.Add(text, model.PriorityMedium, &model.Reminder{At: at, Email: email})
	require.NoError(t, err)
	return task
}

func TestPollDeliversDueReminderOnce(t *testing.T) {
	h := newHarness(t)
	task := h.addDue(t, "stretch", false)

	fired := h.sched.Poll(context.Background())
	require.Len(t, fired, 1)
	assert.Equal(t, task.ID, fired[0].ID)

	got, ok := h.tasks.Get(task.ID)
	require.True(t, ok)
	assert.True(t, got.ReminderSent)

	assert.Equal(t, []string{"Reminder: stretch|Task due: stretch"}, h.notifier.shown)
	assert.Contains(t, h.display.messages, "Reminder: stretch")

	select {
	case msg := <-h.sched.firedCh:
		assert.Equal(t, task.ID, msg.Task.ID)
	default:
		t.Fatal("expected a fired message")
	}

	assert.Empty(t, h.sched.Poll(context.Background()), "second poll must not re-deliver")
	assert.Len(t, h.notifier.shown, 1)
}

func TestPollSkipsFutureAndDeleted(t *testing.T) {
	h := newHarness(t)
	future, err := h.tasks.Add("later", model.PriorityLow, &model.Reminder{At: h.sched.now().Add(time.Hour)})
	require.NoError(t, err)
	gone := h.addDue(t, "gone", false)
	_, err = h.tasks.SoftDelete(gone.ID)
	require.NoError(t, err)

	assert.Empty(t, h.sched.Poll(context.Background()))

	got, _ := h.tasks.Get(future.ID)
	assert.False(t, got.ReminderSent)
}

func TestSnoozeAllowsOneMoreFire(t *testing.T) {
	h := newHarness(t)
	task := h.addDue(t, "water plants", false)
	require.Len(t, h.sched.Poll(context.Background()), 1)

	require.NoError(t, h.sched.Snooze(task.ID))
	got, _ := h.tasks.Get(task.ID)
	assert.False(t, got.ReminderSent)
	assert.True(t, got.ReminderAt.Equal(h.sched.now().Add(10*time.Minute)))
	assert.Contains(t, h.display.messages, "Reminder snoozed 10 minutes.")

	assert.Empty(t, h.sched.Poll(context.Background()), "snoozed reminder is not due yet")

	h.advance(10 * time.Minute)
	assert.Len(t, h.sched.Poll(context.Background()), 1)
	assert.Empty(t, h.sched.Poll(context.Background()))
}

func TestSnoozeUnknownTask(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.sched.Snooze(42), tasks.ErrNotFound)
}

func configureEmail(t *testing.T, kv store.Store) {
	t.Helper()
	require.NoError(t, store.SaveEmailSettings(context.Background(), kv, model.EmailSettings{
		ServiceID:  "smtp.example.com:587",
		TemplateID: "plain",
		UserID:     "me@example.com",
		To:         "me@example.com",
	}))
}

func TestEmailReminderSent(t *testing.T) {
	h := newHarness(t)
	configureEmail(t, h.kv)
	h.addDue(t, "file taxes", true)

	h.sched.Poll(context.Background())

	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "Reminder: file taxes", h.sender.sent[0].Subject)
	assert.Equal(t, "me@example.com", h.sender.sent[0].To)
	assert.Empty(t, h.composer.links)
	assert.Contains(t, h.display.messages, "Reminder email sent.")
}

func TestEmailReminderFallsBackAndStillMarksSent(t *testing.T) {
	h := newHarness(t)
	configureEmail(t, h.kv)
	h.sender.err = errors.New("rejected")
	task := h.addDue(t, "file taxes", true)

	h.sched.Poll(context.Background())

	assert.Len(t, h.sender.sent, 1)
	require.Len(t, h.composer.links, 1)
	assert.Contains(t, h.composer.links[0], "subject=Reminder%3A%20file%20taxes")

	got, _ := h.tasks.Get(task.ID)
	assert.True(t, got.ReminderSent)
	assert.Empty(t, h.sched.Poll(context.Background()))
	assert.Len(t, h.composer.links, 1)
}

func TestEmailReminderUnconfiguredUsesDraft(t *testing.T) {
	h := newHarness(t)
	h.addDue(t, "call bank", true)

	h.sched.Poll(context.Background())

	assert.Empty(t, h.sender.sent)
	assert.Len(t, h.composer.links, 1)
}

func TestNotificationPermission(t *testing.T) {
	h := newHarness(t)
	h.notifier.permission = model.NotifyDenied
	h.addDue(t, "a", false)
	h.sched.Poll(context.Background())
	assert.Empty(t, h.notifier.shown)

	h = newHarness(t)
	h.notifier.permission = model.NotifyDefault
	h.notifier.answer = model.NotifyGranted
	h.addDue(t, "b", false)
	h.sched.Poll(context.Background())
	assert.Len(t, h.notifier.shown, 1)
	assert.Equal(t, model.NotifyGranted, h.notifier.Permission())
}

func TestDesktopNotifierPermission(t *testing.T) {
	var shown []string
	n := NewDesktopNotifier("")
	n.show = func(title, body string) error {
		shown = append(shown, title+": "+body)
		return nil
	}
	assert.Equal(t, model.NotifyDefault, n.Permission())

	var got string
	n.RequestPermission(func(p string) { got = p })
	assert.Equal(t, model.NotifyGranted, got)
	require.NoError(t, n.Notify("Reminder", "water plants"))
	assert.Equal(t, []string{"Reminder: water plants"}, shown)

	n.show = func(string, string) error { return errors.New("no notification service") }
	assert.Error(t, n.Notify("Reminder", "again"))
	assert.Equal(t, model.NotifyDenied, n.Permission())

	n = NewDesktopNotifier(model.NotifyDenied)
	n.RequestPermission(func(p string) { got = p })
	assert.Equal(t, model.NotifyDenied, got)
}
