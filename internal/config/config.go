// Package config provides configuration management for deckysend.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// Config is the client-side configuration.
//
// Config file location: ~/.config/deckysend/deckysend.conf
//
// INI format:
//
//	[backend]
//	base_url = http://127.0.0.1:53317
//	notify_socket = /tmp/localsend-notify.sock
//
//	[send]
//	safety_timeout_seconds = 15
//
//	[notifications]
//	enabled = true
type Config struct {
	Backend       BackendConfig
	Send          SendConfig
	Notifications NotificationConfig
}

// BackendConfig locates the LocalSend backend.
type BackendConfig struct {
	// BaseURL is the backend's self API address.
	// Default: http://127.0.0.1:53317
	BaseURL string `ini:"base_url"`

	// NotifySocket is the unix socket the backend pushes events to.
	// Default: /tmp/localsend-notify.sock
	NotifySocket string `ini:"notify_socket"`
}

// SendConfig tunes outbound transfer behavior.
type SendConfig struct {
	// SafetyTimeoutSeconds bounds how long a send waits for the backend's
	// terminal progress event before finishing on its own.
	// Minimum: 1, Maximum: 300, Default: 15
	SafetyTimeoutSeconds int `ini:"safety_timeout_seconds"`
}

// NotificationConfig controls desktop notifications.
type NotificationConfig struct {
	// Enabled determines if notifications are sent.
	// Default: true
	Enabled bool `ini:"enabled"`
}

// Validation errors
var (
	ErrMissingBaseURL       = errors.New("base_url is required")
	ErrInvalidSafetyTimeout = errors.New("safety_timeout_seconds must be between 1 and 300")
)

// DefaultPath returns the default config file path,
// ~/.config/deckysend/deckysend.conf.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "deckysend", "deckysend.conf"), nil
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:      "http://127.0.0.1:53317",
			NotifySocket: "/tmp/localsend-notify.sock",
		},
		Send: SendConfig{
			SafetyTimeoutSeconds: 15,
		},
		Notifications: NotificationConfig{
			Enabled: true,
		},
	}
}

// Load reads configuration from path. If path is empty, the default path is
// used. A missing file returns defaults with no error; an invalid file
// returns an error.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	backendSection := iniFile.Section("backend")
	cfg.Backend.BaseURL = backendSection.Key("base_url").MustString(cfg.Backend.BaseURL)
	cfg.Backend.NotifySocket = backendSection.Key("notify_socket").MustString(cfg.Backend.NotifySocket)

	sendSection := iniFile.Section("send")
	cfg.Send.SafetyTimeoutSeconds = sendSection.Key("safety_timeout_seconds").MustInt(cfg.Send.SafetyTimeoutSeconds)

	notifySection := iniFile.Section("notifications")
	cfg.Notifications.Enabled = notifySection.Key("enabled").MustBool(true)

	return cfg, nil
}

// Save writes the configuration to path. If path is empty, the default path
// is used. Parent directories are created as needed; the write is atomic.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	backendSection, err := iniFile.NewSection("backend")
	if err != nil {
		return fmt.Errorf("failed to create backend section: %w", err)
	}
	backendSection.Key("base_url").SetValue(cfg.Backend.BaseURL)
	backendSection.Key("notify_socket").SetValue(cfg.Backend.NotifySocket)

	sendSection, err := iniFile.NewSection("send")
	if err != nil {
		return fmt.Errorf("failed to create send section: %w", err)
	}
	sendSection.Key("safety_timeout_seconds").SetValue(fmt.Sprintf("%d", cfg.Send.SafetyTimeoutSeconds))

	notifySection, err := iniFile.NewSection("notifications")
	if err != nil {
		return fmt.Errorf("failed to create notifications section: %w", err)
	}
	notifySection.Key("enabled").SetValue(fmt.Sprintf("%t", cfg.Notifications.Enabled))

	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks the configuration for consistency.
func (cfg *Config) Validate() error {
	if cfg.Backend.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if cfg.Send.SafetyTimeoutSeconds < 1 || cfg.Send.SafetyTimeoutSeconds > 300 {
		return ErrInvalidSafetyTimeout
	}
	return nil
}
