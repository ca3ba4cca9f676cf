// Package app wires configuration, logging, the notification channel,
// the dedup store and the reminder loop into one runnable agent.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"medagent/internal/config"
	"medagent/internal/dedup"
	"medagent/internal/eventbus"
	"medagent/internal/medstore"
	"medagent/internal/notify"
	"medagent/internal/observability/pprof"
	"medagent/internal/reminder"
	"medagent/internal/runtime/supervisor"
	"medagent/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	bus        eventbus.Bus
	dedup      dedup.Store
	dispatcher *notify.Limited
	rem        *reminder.Service
	debug      *pprof.Service

	sup     *supervisor.Supervisor
	cfgCh   chan *config.Config
	lastCfg *config.Config

	firedTotal    atomic.Int64
	fetchErrTotal atomic.Int64
	badSlotTotal  atomic.Int64
}

// New loads and validates the config file and constructs every component.
// Nothing runs until Start.
func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	cfgm.SetLogger(log.With(logx.String("component", "config")))
	cfgm.SetValidator(func(ctx context.Context, next *config.Config) error {
		return config.ValidateReload(cfgm.Get(), next)
	})

	a := &App{cfgm: cfgm, logs: logs, log: log, lastCfg: cfg}

	apiTimeout, err := config.ParseDurationOrDefault("api.timeout", cfg.API.Timeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	meds, err := medstore.NewClient(medstore.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: apiTimeout,
	}, log.With(logx.String("component", "medstore")))
	if err != nil {
		return nil, err
	}

	a.dedup, err = openDedup(cfg, log.With(logx.String("component", "dedup")))
	if err != nil {
		return nil, err
	}

	base, err := buildDispatcher(cfg.Notify, log.With(logx.String("component", "notify")))
	if err != nil {
		return nil, err
	}
	a.dispatcher = notify.Limit(base, cfg.Notify.RatePerMin, log)

	a.bus = eventbus.New()

	a.debug = pprof.New(pprof.Config{
		Enabled: cfg.Debug.Enabled,
		Addr:    cfg.Debug.Addr,
	}, log.With(logx.String("component", "pprof")))

	pollInterval, err := config.ParseDurationOrDefault(
		"reminder.poll_interval", cfg.Reminder.PollInterval, reminder.DefaultPollInterval)
	if err != nil {
		return nil, err
	}
	a.rem = reminder.New(reminder.Config{
		Enabled:      cfg.Reminder.Enabled,
		PollInterval: pollInterval,
	}, reminder.Deps{
		Log:        log.With(logx.String("component", "reminder")),
		Meds:       meds,
		Session:    &sessionSource{cfgm: cfgm},
		Dedup:      a.dedup,
		Dispatcher: a.dispatcher,
		Bus:        a.bus,
	})

	return a, nil
}

// Start brings up the config watcher, the event tally loop and the
// reminder loop under one supervisor.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log))

	a.sup.GoRestart("config-watch", a.cfgm.Watch)

	a.cfgCh = a.cfgm.Subscribe(4)
	a.sup.Go0("config-reload", a.reloadLoop)

	events, cancel := a.bus.Subscribe(64)
	a.sup.Go0("event-tally", func(ctx context.Context) {
		defer cancel()
		a.tallyLoop(ctx, events)
	})

	a.debug.Start(ctx)
	a.rem.Start(a.sup.Context())
	a.log.Info("agent started")
	return nil
}

// Stop shuts everything down in reverse order and logs a session summary.
func (a *App) Stop(ctx context.Context) {
	a.rem.Stop(ctx)
	a.debug.Stop(ctx)
	if a.cfgCh != nil {
		a.cfgm.Unsubscribe(a.cfgCh)
	}
	if a.sup != nil {
		a.sup.Stop(ctx)
	}
	if err := a.dispatcher.Close(); err != nil {
		a.log.Warn("dispatcher close failed", logx.Err(err))
	}
	if err := a.dedup.Close(); err != nil {
		a.log.Warn("dedup close failed", logx.Err(err))
	}
	a.log.Info("agent stopped",
		logx.Int64("reminders_fired", a.firedTotal.Load()),
		logx.Int64("fetch_errors", a.fetchErrTotal.Load()),
		logx.Int64("bad_slots", a.badSlotTotal.Load()))
	a.logs.Close()
}

func (a *App) reloadLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-a.cfgCh:
			if !ok {
				return
			}
			a.applyConfig(ctx, cfg)
		}
	}
}

func (a *App) applyConfig(ctx context.Context, cfg *config.Config) {
	sections, fields := config.SummarizeChange(a.lastCfg, cfg)
	if len(sections) == 0 {
		return
	}
	a.log.Info("configuration reloaded", fields...)

	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	a.dispatcher.SetRate(cfg.Notify.RatePerMin)

	a.debug.Reconfigure(ctx, pprof.Config{
		Enabled: cfg.Debug.Enabled,
		Addr:    cfg.Debug.Addr,
	})

	pollInterval, err := config.ParseDurationOrDefault(
		"reminder.poll_interval", cfg.Reminder.PollInterval, reminder.DefaultPollInterval)
	if err != nil {
		a.log.Warn("bad poll interval after reload, using default", logx.Err(err))
		pollInterval = 0
	}
	remCfg := reminder.Config{Enabled: cfg.Reminder.Enabled, PollInterval: pollInterval}
	a.rem.Apply(remCfg)

	wasEnabled := a.lastCfg.Reminder.Enabled
	a.lastCfg = cfg
	switch {
	case cfg.Reminder.Enabled && !wasEnabled:
		a.rem.Start(a.sup.Context())
	case !cfg.Reminder.Enabled && wasEnabled:
		stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		a.rem.Stop(stopCtx)
		cancel()
	}
}

func (a *App) tallyLoop(ctx context.Context, events <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			switch e.Type {
			case reminder.EventFired:
				a.firedTotal.Add(1)
			case reminder.EventFetchError:
				a.fetchErrTotal.Add(1)
			case reminder.EventBadSlot:
				a.badSlotTotal.Add(1)
			}
		}
	}
}

func openDedup(cfg *config.Config, log logx.Logger) (dedup.Store, error) {
	dc := dedup.Config{}
	if cfg.Storage != nil {
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 0)
		if err != nil {
			return nil, err
		}
		dc = dedup.Config{
			Driver:      cfg.Storage.Driver,
			Path:        cfg.Storage.Path,
			BusyTimeout: busy,
		}
	}
	return dedup.Open(dc, log)
}

func buildDispatcher(nc config.NotifyConfig, log logx.Logger) (notify.Dispatcher, error) {
	switch strings.ToLower(strings.TrimSpace(nc.Driver)) {
	case "", "desktop":
		return notify.NewDesktop(notify.DesktopConfig{OpenURL: nc.OpenURL}, log)
	case "telegram":
		return notify.NewTelegram(notify.TelegramConfig{
			Token:  nc.Telegram.Token,
			ChatID: nc.Telegram.ChatID,
		}, log)
	case "none":
		return notify.NewNoop(notify.PermissionGranted, log), nil
	default:
		return nil, fmt.Errorf("notify.driver: unknown driver %q", nc.Driver)
	}
}
