// Package tasks owns the in-memory task collection and the mutation API
// that is the only writer to it. Every effective mutation rewrites the
// persisted array and then fires the change callback.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nhle/taskmaster/internal/model"
	"github.com/nhle/taskmaster/internal/store"
)

var (
	// ErrNotFound is returned when no task has the requested id.
	ErrNotFound = errors.New("task not found")

	// ErrEmptyText is returned when task text trims to nothing.
	ErrEmptyText = errors.New("task text is empty")

	// ErrNothingToClear is returned by bulk operations with nothing to remove.
	ErrNothingToClear = errors.New("nothing to clear")
)

const persistTimeout = 5 * time.Second

// Store is the ordered task collection. Index 0 is the newest task.
type Store struct {
	mu       sync.Mutex
	kv       store.Store
	tasks    []model.Task
	lastID   int64
	now      func() time.Time
	onChange func()
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Load reads the persisted task array from kv. A missing or corrupt array
// yields an empty store; corruption is logged, not returned.
func Load(ctx context.Context, kv store.Store, opts ...Option) (*Store, error) {
	s := &Store{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := kv.Get(ctx, store.KeyTasks)
	if errors.Is(err, store.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	loaded, err := Decode([]byte(raw))
	if err != nil {
		log.Printf("tasks: ignoring unreadable task array: %v", err)
		return s, nil
	}
	s.tasks = loaded
	for _, t := range loaded {
		if t.ID > s.lastID {
			s.lastID = t.ID
		}
	}
	return s, nil
}

// Decode parses a persisted task array, normalizing missing priorities.
func Decode(data []byte) ([]model.Task, error) {
	var out []model.Task
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding tasks: %w", err)
	}
	for i := range out {
		out[i].Priority = model.ParsePriority(string(out[i].Priority))
	}
	return out, nil
}

// Encode serializes tasks in the persisted layout. A nil slice encodes as [].
func Encode(tasks []model.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	return json.Marshal(tasks)
}

// SetOnChange registers the callback fired after every effective mutation.
// It runs after the store lock is released.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Snapshot returns a copy of the collection in store order.
func (s *Store) Snapshot() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Len returns the number of tasks, deleted ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Get returns the task with id.
func (s *Store) Get(id int64) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i], true
	}
	return model.Task{}, false
}

func (s *Store) indexOf(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID is time-based but strictly increasing, so a burst of adds inside
// one millisecond still yields distinct ids.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// commit persists the collection and fires the change callback.
// It must be called with s.mu held and releases it before the callback, so
// writes land in mutation order and the callback may read the store.
func (s *Store) commit() {
	data, err := Encode(s.tasks)
	if err != nil {
		log.Printf("tasks: encoding task array: %v", err)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := s.kv.Set(ctx, store.KeyTasks, string(data)); err != nil {
			// In-memory state stays authoritative for this session.
			log.Printf("tasks: persisting task array: %v", err)
		}
		cancel()
	}

	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// update applies fn to the task with id and commits when fn reports a change.
func (s *Store) update(id int64, fn func(t *model.Task) bool) (model.Task, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return model.Task{}, ErrNotFound
	}
	changed := fn(&s.tasks[i])
	t := s.tasks[i]
	if !changed {
		s.mu.Unlock()
		return t, nil
	}
	s.commit()
	return t, nil
}

// removeWhere drops every task for which drop returns true and commits when
// any were removed. It returns the number removed.
func (s *Store) removeWhere(drop func(t model.Task) bool) int {
	s.mu.Lock()
	kept := s.tasks[:0:0]
	for _, t := range s.tasks {
		if !drop(t) {
			kept = append(kept, t)
		}
	}
	n := len(s.tasks) - len(kept)
	if n == 0 {
		s.mu.Unlock()
		return 0
	}
	s.tasks = kept
	s.commit()
	return n
}

// Add creates a task at the front of the collection.
// Text is trimmed; empty text returns ErrEmptyText and changes nothing.
func (s *Store) Add(text string, priority model.Priority, reminder *model.Reminder) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, ErrEmptyText
	}

	s.mu.Lock()
	t := model.Task{
		ID:        s.nextID(),
		Text:      text,
		Priority:  model.ParsePriority(string(priority)),
		CreatedAt: model.NewTimestamp(s.now()),
	}
	if reminder != nil && !reminder.At.IsZero() {
		t.ReminderAt = model.TimestampPtr(reminder.At)
		t.ReminderEmail = reminder.Email
		t.ReminderTo = strings.TrimSpace(reminder.To)
	}
	s.tasks = append([]model.Task{t}, s.tasks...)
	s.commit()
	return t, nil
}

// ToggleComplete flips the completed flag.
func (s *Store) ToggleComplete(id int64) (model.Task, error) {
	return s.update(id, func(t *model.Task) bool {
		t.Completed = !t.Completed
		return true
	})
}

// SoftDelete marks the task deleted. Deleting a deleted task is a no-op.
func (s *Store) SoftDelete(id int64) (model.Task, error) {
	return s.update(id, func(t *model.Task) bool {
		if t.Deleted {
			return false
		}
		t.Deleted = true
		return true
	})
}

// Restore clears the deleted flag. Restoring a live task is a no-op.
func (s *Store) Restore(id int64) (model.Task, error) {
	return s.update(id, func(t *model.Task) bool {
		if !t.Deleted {
			return false
		}
		t.Deleted = false
		return true
	})
}

// PermanentlyDelete removes the task from the collection.
func (s *Store) PermanentlyDelete(id int64) (model.Task, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return model.Task{}, ErrNotFound
	}
	t := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.commit()
	return t, nil
}

// EditText replaces the task text. Empty text is rejected with ErrEmptyText.
func (s *Store) EditText(id int64, text string) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, ErrEmptyText
	}
	return s.update(id, func(t *model.Task) bool {
		if t.Text == text {
			return false
		}
		t.Text = text
		return true
	})
}

// ClearCompleted removes completed tasks that are not in the trash.
func (s *Store) ClearCompleted() (int, error) {
	n := s.removeWhere(func(t model.Task) bool { return t.Completed && !t.Deleted })
	if n == 0 {
		return 0, ErrNothingToClear
	}
	return n, nil
}

// EmptyTrash removes every soft-deleted task.
func (s *Store) EmptyTrash() (int, error) {
	n := s.removeWhere(func(t model.Task) bool { return t.Deleted })
	if n == 0 {
		return 0, ErrNothingToClear
	}
	return n, nil
}

// ClearAll removes every task.
func (s *Store) ClearAll() (int, error) {
	n := s.removeWhere(func(model.Task) bool { return true })
	if n == 0 {
		return 0, ErrNothingToClear
	}
	return n, nil
}

// MarkReminderSent sets the reminder guard. It never clears it.
func (s *Store) MarkReminderSent(id int64) error {
	_, err := s.update(id, func(t *model.Task) bool {
		if t.ReminderSent {
			return false
		}
		t.ReminderSent = true
		return true
	})
	return err
}

// Snooze re-arms the reminder d from now.
func (s *Store) Snooze(id int64, d time.Duration) (model.Task, error) {
	return s.update(id, func(t *model.Task) bool {
		t.ReminderAt = model.TimestampPtr(s.now().Add(d))
		t.ReminderSent = false
		return true
	})
}
