package config

type Config struct {
	API     APIConfig     `json:"api"`
	Session SessionConfig `json:"session"`
	Logging LoggingConfig `json:"logging"`

	// Reminder controls the medication reminder loop.
	Reminder ReminderConfig `json:"reminder"`

	// Notify selects and tunes the notification channel.
	Notify NotifyConfig `json:"notify"`

	// Storage controls the backing of the per-session dedup store.
	// If omitted, dedup state lives in memory only.
	Storage *StorageConfig `json:"storage,omitempty"`

	// Debug controls the optional pprof HTTP server.
	Debug DebugConfig `json:"debug,omitempty"`
}

// DebugConfig exposes net/http/pprof on a loopback address. Off by
// default; hot-reloadable.
type DebugConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:6060"
}

// APIConfig points the agent at the health-assistant backend.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type APIConfig struct {
	BaseURL string `json:"base_url"`
	Timeout string `json:"timeout,omitempty"` // default: "10s"
}

// SessionConfig tells the agent where the user's API token lives.
//
// Exactly one of Token / TokenFile should be set. TokenFile is re-read on
// every poll tick, so logging in or out in the web client takes effect
// without restarting the agent.
type SessionConfig struct {
	Token     string `json:"token,omitempty"` // inline token (do not log)
	TokenFile string `json:"token_file,omitempty"`
}

// ReminderConfig controls the poll loop.
type ReminderConfig struct {
	Enabled bool `json:"enabled"`

	// PollInterval is a Go duration string. Default: "10s".
	// The loop re-arms only after the previous tick settles, so this is
	// a lower bound on tick spacing, not a wall-clock grid.
	PollInterval string `json:"poll_interval,omitempty"`
}

// NotifyConfig selects the notification channel.
//
// Driver values:
//   - "desktop": org.freedesktop.Notifications on the session bus
//   - "telegram": Telegram bot message to a fixed chat
//   - "none": suppress all notifications (reminder loop still runs)
type NotifyConfig struct {
	Driver string `json:"driver"`

	// RatePerMin caps dispatches per minute so a machine waking from
	// suspend cannot flood the desktop. Default: 10.
	RatePerMin int `json:"rate_per_min,omitempty"`

	// OpenURL is opened when the user clicks a desktop notification.
	OpenURL string `json:"open_url,omitempty"`

	Telegram NotifyTelegram `json:"telegram,omitempty"`
}

type NotifyTelegram struct {
	Token  string `json:"token,omitempty"` // do not log
	ChatID int64  `json:"chat_id,omitempty"`
}

// StorageConfig controls the dedup store backing.
//
// Driver values:
//   - "memory": in-process only (cleared on restart)
//   - "sqlite": SQLite database file (survives an agent restart within
//     the same login session; pruned daily)
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
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
