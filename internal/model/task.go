package model

import (
	"strings"
	"time"
)

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority maps a free-form string to a Priority, defaulting to medium.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// Rank orders priorities so that high sorts before medium before low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// Task is the sole persisted entity: one entry in the user's list.
//
// The JSON layout matches the stored "tasks" array exactly, so an export
// file can be loaded back as a store snapshot.
type Task struct {
	// ID is unique for the task's whole lifetime and never reused.
	ID int64 `json:"id"`

	// Text is the non-empty display string.
	Text string `json:"text"`

	Priority  Priority `json:"priority"`
	Completed bool     `json:"completed"`

	// Deleted marks a soft-deleted task. It stays enumerable in the
	// deleted view until permanently removed.
	Deleted bool `json:"deleted"`

	CreatedAt Timestamp `json:"createdAt"`

	// ReminderAt is when the reminder fires; nil means no reminder.
	ReminderAt *Timestamp `json:"reminderAt"`

	// ReminderEmail requests an email alongside the local notification.
	ReminderEmail bool `json:"reminderEmail"`

	// ReminderTo overrides the default recipient for the reminder email.
	ReminderTo string `json:"reminderTo"`

	// ReminderSent is the idempotence guard for reminder delivery.
	ReminderSent bool `json:"reminderSent"`
}

// Active reports whether the task is neither completed nor deleted.
func (t Task) Active() bool {
	return !t.Completed && !t.Deleted
}

// ReminderDue reports whether the task's reminder should fire at now.
func (t Task) ReminderDue(now time.Time) bool {
	if t.ReminderAt == nil || t.ReminderAt.IsZero() {
		return false
	}
	return !t.ReminderSent && !t.Deleted && !t.ReminderAt.After(now)
}

// Reminder carries the optional reminder fields supplied on add.
type Reminder struct {
	At    time.Time
	Email bool
	To    string
}
