// Package mailer delivers reminder emails through an SMTP relay and builds
// the mailto fallback used when automated delivery is unavailable.
package mailer

import (
	"errors"
	"fmt"
	"time"

	"github.com/nhle/taskmaster/internal/model"
)

var (
	// ErrNotConfigured is returned when the relay settings are incomplete.
	ErrNotConfigured = errors.New("email relay not configured")

	// ErrNoRecipient is returned when neither the task nor the settings
	// name a recipient.
	ErrNoRecipient = errors.New("no email recipient")
)

// Message is a plain-text email before template rendering.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Params exposes the message as template parameters.
func (m Message) Params() map[string]string {
	return map[string]string{
		"from_email": m.From,
		"to_email":   m.To,
		"subject":    m.Subject,
		"message":    m.Body,
	}
}

// ReminderMessage builds the reminder email for t. The creation time is
// rendered in loc.
func ReminderMessage(t model.Task, s model.EmailSettings, loc *time.Location) Message {
	created := "unknown"
	if !t.CreatedAt.IsZero() {
		created = t.CreatedAt.In(loc).Format("Jan 2, 2006, 3:04:05 PM")
	}
	return Message{
		From:    s.From,
		To:      s.Recipient(t.ReminderTo),
		Subject: fmt.Sprintf("Reminder: %s", t.Text),
		Body:    fmt.Sprintf("Reminder for task: %s\nCreated: %s", t.Text, created),
	}
}

// TestMessage builds the message sent to verify the settings.
func TestMessage(s model.EmailSettings) Message {
	return Message{
		From:    s.From,
		To:      s.To,
		Subject: "Task Master test",
		Body:    "This is a test email from Task Master.",
	}
}
