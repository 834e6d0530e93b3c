package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/nhle/taskmaster/internal/model"
)

// LoadEmailSettings reads the email integration keys. Missing keys are empty.
func LoadEmailSettings(ctx context.Context, s Store) (model.EmailSettings, error) {
	var out model.EmailSettings
	fields := []struct {
		key string
		dst *string
	}{
		{KeyEmailServiceID, &out.ServiceID},
		{KeyEmailTemplateID, &out.TemplateID},
		{KeyEmailUserID, &out.UserID},
		{KeyEmailFrom, &out.From},
		{KeyEmailTo, &out.To},
	}
	for _, f := range fields {
		v, err := s.Get(ctx, f.key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return model.EmailSettings{}, fmt.Errorf("loading email settings: %w", err)
		}
		*f.dst = v
	}
	return out, nil
}

// SaveEmailSettings writes every email integration key.
func SaveEmailSettings(ctx context.Context, s Store, settings model.EmailSettings) error {
	pairs := [][2]string{
		{KeyEmailServiceID, settings.ServiceID},
		{KeyEmailTemplateID, settings.TemplateID},
		{KeyEmailUserID, settings.UserID},
		{KeyEmailFrom, settings.From},
		{KeyEmailTo, settings.To},
	}
	for _, p := range pairs {
		if err := s.Set(ctx, p[0], p[1]); err != nil {
			return fmt.Errorf("saving email settings: %w", err)
		}
	}
	return nil
}

// LoadBool reads a boolean preference, returning def when unset or unparseable.
func LoadBool(ctx context.Context, s Store, key string, def bool) bool {
	v, err := s.Get(ctx, key)
	if err != nil {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// SaveBool writes a boolean preference.
func SaveBool(ctx context.Context, s Store, key string, value bool) error {
	return s.Set(ctx, key, strconv.FormatBool(value))
}
