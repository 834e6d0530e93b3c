package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Notification permission states, mirroring what a desktop host reports.
const (
	NotifyDefault = "default"
	NotifyGranted = "granted"
	NotifyDenied  = "denied"
)

// StorageConfig locates the persisted key-value database.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// VoiceConfig tunes the speech session and command interpreter.
type VoiceConfig struct {
	Lang string `mapstructure:"lang" yaml:"lang"`

	// DebounceMs is the window in which an identical final transcript
	// is dropped as a duplicate.
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms"`

	// AutoStopDelayMs is how long to wait after a mutating command
	// before ending the session when auto-stop is on.
	AutoStopDelayMs int `mapstructure:"auto_stop_delay_ms" yaml:"auto_stop_delay_ms"`

	// SessionTimeoutSec ends an idle recognition session, after which
	// the session manager restarts it while listening is still desired.
	SessionTimeoutSec int `mapstructure:"session_timeout_sec" yaml:"session_timeout_sec"`

	// SpeechCommand is an optional text-to-speech executable that reads
	// the message from its arguments (e.g. "espeak").
	SpeechCommand string `mapstructure:"speech_command" yaml:"speech_command"`
}

// ReminderConfig tunes the reminder scheduler.
type ReminderConfig struct {
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	SnoozeMinutes   int    `mapstructure:"snooze_minutes" yaml:"snooze_minutes"`
	Notifications   string `mapstructure:"notifications" yaml:"notifications"`
}

// MailConfig holds optional transport settings beyond the persisted
// EmailSettings.
type MailConfig struct {
	// IMAPAddr, when set, receives a copy of every sent reminder.
	IMAPAddr    string `mapstructure:"imap_addr" yaml:"imap_addr"`
	SentMailbox string `mapstructure:"sent_mailbox" yaml:"sent_mailbox"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage   StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Voice     VoiceConfig    `mapstructure:"voice" yaml:"voice"`
	Reminders ReminderConfig `mapstructure:"reminders" yaml:"reminders"`
	Email     MailConfig     `mapstructure:"email" yaml:"email"`
	Display   DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// Debounce returns the duplicate-transcript window.
func (c VoiceConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// AutoStopDelay returns the delay before an automatic stop.
func (c VoiceConfig) AutoStopDelay() time.Duration {
	return time.Duration(c.AutoStopDelayMs) * time.Millisecond
}

// SessionTimeout returns the idle limit of a single recognition session.
func (c VoiceConfig) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutSec) * time.Second
}

// PollInterval returns the reminder scan interval.
func (c ReminderConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// Snooze returns how far a snoozed reminder is pushed out.
func (c ReminderConfig) Snooze() time.Duration {
	return time.Duration(c.SnoozeMinutes) * time.Minute
}

// ConfigDir returns ~/.config/taskmaster.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskmaster")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskmaster/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Storage: StorageConfig{
			Path: filepath.Join(ConfigDir(), "taskmaster.db"),
		},
		Voice: VoiceConfig{
			Lang:              "en-US",
			DebounceMs:        100,
			AutoStopDelayMs:   500,
			SessionTimeoutSec: 60,
		},
		Reminders: ReminderConfig{
			PollIntervalSec: 20,
			SnoozeMinutes:   10,
			Notifications:   NotifyDefault,
		},
		Email: MailConfig{
			SentMailbox: "Sent",
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	def := DefaultAppConfig()
	v.SetDefault("storage.path", def.Storage.Path)
	v.SetDefault("voice.lang", def.Voice.Lang)
	v.SetDefault("voice.debounce_ms", def.Voice.DebounceMs)
	v.SetDefault("voice.auto_stop_delay_ms", def.Voice.AutoStopDelayMs)
	v.SetDefault("voice.session_timeout_sec", def.Voice.SessionTimeoutSec)
	v.SetDefault("reminders.poll_interval_sec", def.Reminders.PollIntervalSec)
	v.SetDefault("reminders.snooze_minutes", def.Reminders.SnoozeMinutes)
	v.SetDefault("reminders.notifications", def.Reminders.Notifications)
	v.SetDefault("email.sent_mailbox", def.Email.SentMailbox)
	v.SetDefault("display.theme", def.Display.Theme)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return def, nil
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	switch cfg.Reminders.Notifications {
	case NotifyDefault, NotifyGranted, NotifyDenied:
	default:
		return nil, fmt.Errorf("parsing config %s: unknown notifications value %q",
			path, cfg.Reminders.Notifications)
	}
	if cfg.Reminders.PollIntervalSec <= 0 {
		cfg.Reminders.PollIntervalSec = def.Reminders.PollIntervalSec
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage", cfg.Storage)
	v.Set("voice", cfg.Voice)
	v.Set("reminders", cfg.Reminders)
	v.Set("email", cfg.Email)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
