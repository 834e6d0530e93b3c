package store

import (
	"context"
	"errors"
)

// Fixed keys of the persisted state.
const (
	KeyTasks = "tasks"

	KeyEmailServiceID  = "emailServiceId"
	KeyEmailTemplateID = "emailTemplateId"
	KeyEmailUserID     = "emailUserId"
	KeyEmailFrom       = "emailFrom"
	KeyEmailTo         = "emailTo"

	KeyVoiceEnabled = "aiVoiceEnabled"
	KeyAutoStop     = "aiAutoStop"
)

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("key not found")

// Store is a string key-value store. Every value is rewritten wholesale;
// there are no partial updates.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
