package config

// Config is the full on-disk configuration. Durations are Go duration
// strings (e.g. "500ms", "10s", "5m").
type Config struct {
	Status   StatusConfig   `json:"status"`
	Fetch    FetchConfig    `json:"fetch"`
	Dedup    DedupConfig    `json:"dedup"`
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`

	// Notifier tunes the outbound pipeline. If omitted, defaults apply.
	Notifier *NotifierConfig `json:"notifier,omitempty"`

	// Storage enables persistence of the dashboard ref and last snapshot.
	// If omitted, nothing is persisted.
	Storage *StorageConfig `json:"storage,omitempty"`
}

// StatusConfig describes the watched page and the poll cadence.
type StatusConfig struct {
	URL string `json:"url"`

	// Components filters parsed components by display name.
	// Empty means watch everything the page lists.
	Components []string `json:"components,omitempty"`

	CheckInterval string `json:"check_interval"`

	// PageTimezone is the IANA zone incident timestamps are rendered in by
	// the page (default UTC).
	PageTimezone string `json:"page_timezone,omitempty"`
}

type FetchConfig struct {
	Timeout     string  `json:"timeout"`
	MaxRetries  int     `json:"max_retries"`
	BaseBackoff string  `json:"base_backoff,omitempty"`
	MaxBackoff  string  `json:"max_backoff,omitempty"`
	Jitter      float64 `json:"jitter,omitempty"`
	UserAgent   string  `json:"user_agent,omitempty"`
}

type DedupConfig struct {
	// ExpiryWindow suppresses identical events inside this window.
	// "0s" disables dedup entirely.
	ExpiryWindow string `json:"expiry_window"`
	MaxEntries   int    `json:"max_entries,omitempty"`
}

type TelegramConfig struct {
	Token    string `json:"token"`
	ChatID   int64  `json:"chat_id"`
	ThreadID int    `json:"thread_id,omitempty"`
	// RequestTimeout bounds a single Bot API call.
	RequestTimeout string `json:"request_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type NotifierConfig struct {
	Enabled       bool   `json:"enabled"`
	Workers       int    `json:"workers,omitempty"`
	QueueSize     int    `json:"queue_size,omitempty"`
	RatePerSec    int    `json:"rate_per_sec,omitempty"`
	RetryMax      int    `json:"retry_max,omitempty"`
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`
}

type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

// Default returns the built-in configuration; the loaded file overrides it
// field by field.
func Default() Config {
	return Config{
		Status: StatusConfig{
			CheckInterval: "5m",
		},
		Fetch: FetchConfig{
			Timeout:     "10s",
			MaxRetries:  3,
			BaseBackoff: "1s",
			MaxBackoff:  "10s",
			Jitter:      0.2,
			UserAgent:   "statuswatch/1.0",
		},
		Dedup: DedupConfig{
			ExpiryWindow: "1m",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}
