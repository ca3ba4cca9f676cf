package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks a parsed config for structural problems before it is
// committed. It never mutates cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if base := strings.TrimSpace(cfg.API.BaseURL); base == "" {
		return fmt.Errorf("api.base_url is required")
	} else if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url: invalid URL %q", base)
	}
	if _, err := ParseDurationField("api.timeout", cfg.API.Timeout); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Session.Token) != "" && strings.TrimSpace(cfg.Session.TokenFile) != "" {
		return fmt.Errorf("session: set token or token_file, not both")
	}

	if _, err := ParseDurationField("reminder.poll_interval", cfg.Reminder.PollInterval); err != nil {
		return err
	}

	switch driver := strings.ToLower(strings.TrimSpace(cfg.Notify.Driver)); driver {
	case "", "desktop", "none":
	case "telegram":
		if strings.TrimSpace(cfg.Notify.Telegram.Token) == "" {
			return fmt.Errorf("notify.telegram.token is required for the telegram driver")
		}
		if cfg.Notify.Telegram.ChatID == 0 {
			return fmt.Errorf("notify.telegram.chat_id is required for the telegram driver")
		}
	default:
		return fmt.Errorf("notify.driver: unknown driver %q", cfg.Notify.Driver)
	}
	if cfg.Notify.RatePerMin < 0 {
		return fmt.Errorf("notify.rate_per_min must be >= 0")
	}

	if cfg.Storage != nil {
		switch driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)); driver {
		case "", "none", "memory":
		case "sqlite", "sqlite3":
			if strings.TrimSpace(cfg.Storage.Path) == "" {
				return fmt.Errorf("storage.path is required for the sqlite driver")
			}
		default:
			return fmt.Errorf("storage.driver: unknown driver %q", cfg.Storage.Driver)
		}
		if _, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
			return err
		}
	}

	if cfg.Debug.Enabled {
		addr := strings.TrimSpace(cfg.Debug.Addr)
		if addr != "" && !strings.Contains(addr, ":") {
			return fmt.Errorf("debug.addr: missing port in %q", addr)
		}
	}

	return nil
}

// ValidateReload additionally rejects changes that cannot take effect
// without a restart (driver swaps). Used as the Watch() validator.
func ValidateReload(oldCfg, newCfg *Config) error {
	if err := Validate(newCfg); err != nil {
		return err
	}
	if oldCfg == nil {
		return nil
	}
	if !strings.EqualFold(strings.TrimSpace(oldCfg.Notify.Driver), strings.TrimSpace(newCfg.Notify.Driver)) {
		return fmt.Errorf("notify.driver cannot change on reload (restart required)")
	}
	oldStorage := storageDriver(oldCfg)
	newStorage := storageDriver(newCfg)
	if !strings.EqualFold(oldStorage, newStorage) {
		return fmt.Errorf("storage.driver cannot change on reload (restart required)")
	}
	return nil
}

func storageDriver(cfg *Config) string {
	if cfg == nil || cfg.Storage == nil {
		return ""
	}
	return strings.TrimSpace(cfg.Storage.Driver)
}
