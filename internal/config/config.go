// Package config handles revdesk configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure for revdesk.
type Config struct {
	// API settings for the remote marketplace.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Inbox settings for the refresh engine.
	Inbox InboxConfig `yaml:"inbox" mapstructure:"inbox"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// APIConfig contains remote API client settings.
//
// The bearer token is deliberately absent: it is supplied per session via
// the REVDESK_API_TOKEN environment variable or an interactive prompt and
// is never written to a config file.
type APIConfig struct {
	// BaseURL is the API root, including the path prefix.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// MaxAttempts caps rate-limit retries per call (initial try included).
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`

	// RetryBackoff is the base backoff after a rate-limited response.
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`

	// PageSize is the per_page value used on list endpoints.
	PageSize int `yaml:"page_size" mapstructure:"page_size"`

	// CacheTTL is how long read responses may be served from cache.
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`

	// DisplayCurrency, when set, asks the API to render money fields in
	// that currency (e.g. "USD").
	DisplayCurrency string `yaml:"display_currency" mapstructure:"display_currency"`
}

// InboxConfig contains refresh-engine settings.
type InboxConfig struct {
	// PollInterval is how often the shell triggers a refresh tick.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// PreviewLength bounds the conversation list preview text.
	PreviewLength int `yaml:"preview_length" mapstructure:"preview_length"`

	// UnreadOnly asks the server for unread conversations only.
	UnreadOnly bool `yaml:"unread_only" mapstructure:"unread_only"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path (used while the TUI runs).
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// ShowTimestamps shows message timestamps in the thread view.
	ShowTimestamps bool `yaml:"show_timestamps" mapstructure:"show_timestamps"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:      "https://api.reverb.com/api",
			Timeout:      10 * time.Second,
			MaxAttempts:  3,
			RetryBackoff: 500 * time.Millisecond,
			PageSize:     50,
			CacheTTL:     5 * time.Second,
		},
		Inbox: InboxConfig{
			PollInterval:  15 * time.Second,
			PreviewLength: 100,
			UnreadOnly:    false,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		TUI: TUIConfig{
			Theme:          "default",
			ShowTimestamps: true,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Timeout < time.Second {
		return fmt.Errorf("api.timeout must be at least 1s")
	}
	if c.API.MaxAttempts < 1 {
		return fmt.Errorf("api.max_attempts must be at least 1")
	}
	if c.API.PageSize < 1 || c.API.PageSize > 100 {
		return fmt.Errorf("api.page_size must be between 1 and 100")
	}
	if c.Inbox.PollInterval < time.Second {
		return fmt.Errorf("inbox.poll_interval must be at least 1s")
	}
	if c.Inbox.PreviewLength < 10 {
		return fmt.Errorf("inbox.preview_length must be at least 10")
	}
	switch c.TUI.Theme {
	case "default", "high-contrast":
	default:
		return fmt.Errorf("tui.theme must be one of default, high-contrast")
	}
	return nil
}

// LogFilePath returns the log file path, defaulting under the user cache dir.
func (c *Config) LogFilePath() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "revdesk.log"
	}
	return filepath.Join(cacheDir, "revdesk", "revdesk.log")
}
