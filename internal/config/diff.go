package config

import (
	"strings"

	logx "medagent/pkg/logx"
)

// SummarizeChange returns a compact list of changed sections plus safe
// structured attrs for logging. Secrets (tokens) are never included.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 12)

	if strings.TrimSpace(oldCfg.API.BaseURL) != strings.TrimSpace(newCfg.API.BaseURL) ||
		strings.TrimSpace(oldCfg.API.Timeout) != strings.TrimSpace(newCfg.API.Timeout) {
		changed = append(changed, "api")
		attrs = append(attrs,
			logx.String("api.base_url", strings.TrimSpace(newCfg.API.BaseURL)),
			logx.String("api.timeout", strings.TrimSpace(newCfg.API.Timeout)),
		)
	}

	// Session (never log the token itself)
	if strings.TrimSpace(oldCfg.Session.Token) != strings.TrimSpace(newCfg.Session.Token) ||
		strings.TrimSpace(oldCfg.Session.TokenFile) != strings.TrimSpace(newCfg.Session.TokenFile) {
		changed = append(changed, "session")
		attrs = append(attrs,
			logx.Bool("session.token_set", strings.TrimSpace(newCfg.Session.Token) != ""),
			logx.String("session.token_file", strings.TrimSpace(newCfg.Session.TokenFile)),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if oldCfg.Reminder != newCfg.Reminder {
		changed = append(changed, "reminder")
		attrs = append(attrs,
			logx.Bool("reminder.enabled", newCfg.Reminder.Enabled),
			logx.String("reminder.poll_interval", strings.TrimSpace(newCfg.Reminder.PollInterval)),
		)
	}

	// Notify (never log the telegram token)
	if strings.TrimSpace(oldCfg.Notify.Driver) != strings.TrimSpace(newCfg.Notify.Driver) ||
		oldCfg.Notify.RatePerMin != newCfg.Notify.RatePerMin ||
		strings.TrimSpace(oldCfg.Notify.OpenURL) != strings.TrimSpace(newCfg.Notify.OpenURL) ||
		oldCfg.Notify.Telegram.ChatID != newCfg.Notify.Telegram.ChatID ||
		strings.TrimSpace(oldCfg.Notify.Telegram.Token) != strings.TrimSpace(newCfg.Notify.Telegram.Token) {
		changed = append(changed, "notify")
		attrs = append(attrs,
			logx.String("notify.driver", strings.TrimSpace(newCfg.Notify.Driver)),
			logx.Int("notify.rate_per_min", newCfg.Notify.RatePerMin),
		)
	}

	if storageDriver(oldCfg) != storageDriver(newCfg) ||
		(oldCfg.Storage != nil && newCfg.Storage != nil && *oldCfg.Storage != *newCfg.Storage) {
		changed = append(changed, "storage")
		attrs = append(attrs, logx.String("storage.driver", storageDriver(newCfg)))
	}

	if oldCfg.Debug != newCfg.Debug {
		changed = append(changed, "debug")
		attrs = append(attrs,
			logx.Bool("debug.enabled", newCfg.Debug.Enabled),
			logx.String("debug.addr", strings.TrimSpace(newCfg.Debug.Addr)),
		)
	}

	return changed, attrs
}
