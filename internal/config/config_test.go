package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, body string) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return NewManager(path)
}

const validYAML = `
api:
  base_url: https://assistant.example.com/api
  timeout: 5s
session:
  token_file: ~/.cache/medagent/token
reminder:
  enabled: true
  poll_interval: 10s
notify:
  driver: desktop
  rate_per_min: 6
  open_url: https://assistant.example.com
logging:
  level: info
  console: true
  file:
    enabled: false
    path: ""
storage:
  driver: sqlite
  path: /tmp/medagent.db
`

func TestLoadValidYAML(t *testing.T) {
	t.Parallel()
	m := writeConfig(t, "config.yaml", validYAML)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "https://assistant.example.com/api" {
		t.Fatalf("base_url = %q", cfg.API.BaseURL)
	}
	if !cfg.Reminder.Enabled || cfg.Reminder.PollInterval != "10s" {
		t.Fatalf("reminder = %+v", cfg.Reminder)
	}
	if cfg.Storage == nil || cfg.Storage.Driver != "sqlite" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if got := m.Get(); got != cfg {
		t.Fatalf("Get did not return the committed config")
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	m := writeConfig(t, "config.json",
		`{"api":{"base_url":"http://localhost:8000"},"reminder":{"enabled":true},"notify":{"driver":"none"},"logging":{"level":"debug","console":true,"file":{"enabled":false,"path":""}}}`)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notify.Driver != "none" {
		t.Fatalf("driver = %q", cfg.Notify.Driver)
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	t.Parallel()
	m := writeConfig(t, "config.yaml", validYAML+"\nbogus: true\n")
	if _, err := m.Load(); err == nil {
		t.Fatalf("unknown top-level field accepted")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	base := func() *Config {
		return &Config{
			API:      APIConfig{BaseURL: "http://localhost:8000"},
			Reminder: ReminderConfig{Enabled: true, PollInterval: "10s"},
			Notify:   NotifyConfig{Driver: "desktop"},
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"missing base url", func(c *Config) { c.API.BaseURL = "" }, "api.base_url"},
		{"relative base url", func(c *Config) { c.API.BaseURL = "localhost:8000" }, "api.base_url"},
		{"both token sources", func(c *Config) {
			c.Session.Token = "a"
			c.Session.TokenFile = "b"
		}, "not both"},
		{"bad poll interval", func(c *Config) { c.Reminder.PollInterval = "soon" }, "poll_interval"},
		{"unknown notify driver", func(c *Config) { c.Notify.Driver = "growl" }, "notify.driver"},
		{"telegram without token", func(c *Config) { c.Notify.Driver = "telegram" }, "telegram.token"},
		{"negative rate", func(c *Config) { c.Notify.RatePerMin = -1 }, "rate_per_min"},
		{"sqlite without path", func(c *Config) { c.Storage = &StorageConfig{Driver: "sqlite"} }, "storage.path"},
		{"debug addr without port", func(c *Config) { c.Debug = DebugConfig{Enabled: true, Addr: "localhost"} }, "debug.addr"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := Validate(cfg)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidateReloadRejectsDriverSwap(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{
		API:    APIConfig{BaseURL: "http://localhost:8000"},
		Notify: NotifyConfig{Driver: "desktop"},
	}
	newCfg := &Config{
		API:    APIConfig{BaseURL: "http://localhost:8000"},
		Notify: NotifyConfig{Driver: "none"},
	}
	if err := ValidateReload(oldCfg, newCfg); err == nil {
		t.Fatalf("notify driver swap accepted on reload")
	}

	newCfg.Notify.Driver = "desktop"
	newCfg.Storage = &StorageConfig{Driver: "sqlite", Path: "/tmp/x.db"}
	if err := ValidateReload(oldCfg, newCfg); err == nil {
		t.Fatalf("storage driver swap accepted on reload")
	}
}

func TestSummarizeChangeRedactsSecrets(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{}
	newCfg := &Config{
		Session: SessionConfig{Token: "super-secret"},
		Notify: NotifyConfig{
			Driver:   "telegram",
			Telegram: NotifyTelegram{Token: "bot-secret", ChatID: 42},
		},
	}
	sections, _ := SummarizeChange(oldCfg, newCfg)
	joined := strings.Join(sections, ",")
	if !strings.Contains(joined, "session") || !strings.Contains(joined, "notify") {
		t.Fatalf("sections = %v", sections)
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	d, err := ParseDurationOrDefault("x", "", 42)
	if err != nil || d != 42 {
		t.Fatalf("empty: d=%v err=%v", d, err)
	}
	d, err = ParseDurationOrDefault("x", "1m", 42)
	if err != nil || d.Minutes() != 1 {
		t.Fatalf("1m: d=%v err=%v", d, err)
	}
	if _, err = ParseDurationOrDefault("x", "nope", 42); err == nil {
		t.Fatalf("bad duration accepted")
	}
}
