package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the ISO-8601 form used in the persisted task array:
// UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// DateTimeInputLayout is the local wall-clock form accepted from users.
const DateTimeInputLayout = "2006-01-02 15:04"

// Timestamp is a time.Time that serializes as an ISO-8601 string.
// Unparseable input decodes to the zero time instead of failing, so a
// single malformed record never prevents the store from loading.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// TimestampPtr wraps t and returns a pointer, for optional fields.
func TimestampPtr(t time.Time) *Timestamp {
	ts := NewTimestamp(t)
	return &ts
}

// String returns the persisted representation.
func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(TimestampLayout)
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		ts.Time = time.Time{}
		return nil
	}
	ts.Time = parseTimestamp(s)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (ts Timestamp) MarshalYAML() (interface{}, error) {
	return ts.String(), nil
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	// Form inputs carry wall-clock time without a zone.
	if t, err := time.ParseInLocation(DateTimeInputLayout, s, time.Local); err == nil {
		return t
	}
	return time.Time{}
}

// ParseDateTimeInput parses a user-entered reminder time, either in
// DateTimeInputLayout (local time) or RFC 3339.
func ParseDateTimeInput(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(DateTimeInputLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, want YYYY-MM-DD HH:MM", s)
	}
	return t, nil
}
