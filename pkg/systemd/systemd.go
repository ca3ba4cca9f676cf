// Package systemd wraps sd_notify so the agent integrates with
// Type=notify units and the systemd watchdog. Every call is a no-op
// outside a systemd unit.
package systemd

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

func NotifyReady()    { daemon.SdNotify(false, daemon.SdNotifyReady) }
func NotifyStopping() { daemon.SdNotify(false, daemon.SdNotifyStopping) }

// WatchdogLoop pings WATCHDOG=1 at half the configured interval until ctx
// is cancelled. Returns immediately when the unit has no watchdog.
func WatchdogLoop(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}
	t := time.NewTicker(interval / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}
