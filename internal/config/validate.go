package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks the config for structural problems. It is used both on
// startup and as the watch validator, so a bad edit never reaches the
// running services.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}

	if c.Status.URL == "" {
		return fmt.Errorf("status.url is required")
	}
	u, err := url.Parse(c.Status.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("status.url: not an http(s) URL: %q", c.Status.URL)
	}
	iv, err := Duration("status.check_interval", c.Status.CheckInterval)
	if err != nil {
		return err
	}
	if iv < time.Second {
		return fmt.Errorf("status.check_interval: must be at least 1s, got %q", c.Status.CheckInterval)
	}
	if c.Status.PageTimezone != "" {
		if _, err := time.LoadLocation(c.Status.PageTimezone); err != nil {
			return fmt.Errorf("status.page_timezone: %w", err)
		}
	}

	to, err := Duration("fetch.timeout", c.Fetch.Timeout)
	if err != nil {
		return err
	}
	if to <= 0 {
		return fmt.Errorf("fetch.timeout: must be positive")
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries: must be >= 0")
	}
	if _, err := Duration("fetch.base_backoff", c.Fetch.BaseBackoff); err != nil {
		return err
	}
	if _, err := Duration("fetch.max_backoff", c.Fetch.MaxBackoff); err != nil {
		return err
	}
	if c.Fetch.Jitter < 0 || c.Fetch.Jitter >= 1 {
		return fmt.Errorf("fetch.jitter: must be in [0, 1), got %v", c.Fetch.Jitter)
	}

	if _, err := Duration("dedup.expiry_window", c.Dedup.ExpiryWindow); err != nil {
		return err
	}
	if c.Dedup.MaxEntries < 0 {
		return fmt.Errorf("dedup.max_entries: must be >= 0")
	}

	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if _, err := Duration("telegram.request_timeout", c.Telegram.RequestTimeout); err != nil {
		return err
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	if c.Logging.File.Enabled && c.Logging.File.Path == "" {
		return fmt.Errorf("logging.file.path is required when file logging is enabled")
	}

	if n := c.Notifier; n != nil {
		if n.Workers < 0 || n.QueueSize < 0 || n.RatePerSec < 0 || n.RetryMax < 0 {
			return fmt.Errorf("notifier: counts must be >= 0")
		}
		if _, err := Duration("notifier.retry_base", n.RetryBase); err != nil {
			return err
		}
		if _, err := Duration("notifier.retry_max_delay", n.RetryMaxDelay); err != nil {
			return err
		}
	}

	if s := c.Storage; s != nil {
		switch s.Driver {
		case "file", "sqlite":
		default:
			return fmt.Errorf("storage.driver: unknown driver %q", s.Driver)
		}
		if s.Path == "" {
			return fmt.Errorf("storage.path is required")
		}
		if _, err := Duration("storage.busy_timeout", s.BusyTimeout); err != nil {
			return err
		}
	}

	return nil
}
