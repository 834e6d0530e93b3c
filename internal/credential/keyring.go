// Package credential keeps the email relay password in the system keyring.
package credential

import (
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

const serviceName = "taskmaster"

// PasswordEnv overrides the keyring lookup when set.
const PasswordEnv = "TASKMASTER_SMTP_PASSWORD"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/taskmaster/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("taskmaster-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

func smtpKey(user string) string {
	return "smtp:" + user
}

// SMTPPassword returns the relay password for user, preferring the
// environment over the keyring.
func SMTPPassword(user string) (string, error) {
	if v := os.Getenv(PasswordEnv); v != "" {
		return v, nil
	}
	return Get(smtpKey(user))
}

// SetSMTPPassword stores the relay password for user.
func SetSMTPPassword(user, password string) error {
	return Set(smtpKey(user), password)
}

// DeleteSMTPPassword forgets the relay password for user.
func DeleteSMTPPassword(user string) error {
	return Delete(smtpKey(user))
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "Task Master SMTP password",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
