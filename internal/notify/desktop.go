package notify

import (
	"context"
	"fmt"
	"hash/fnv"
	"os/exec"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"

	logx "medagent/pkg/logx"
)

const (
	appName      = "medagent"
	notifyName   = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = "org.freedesktop.Notifications.Notify"

	actionInvokedMember = "ActionInvoked"
	defaultAction       = "default"

	// Keep the click-tracking map bounded; a user realistically has a
	// handful of reminders on screen at once.
	maxPending = 64
)

// DesktopConfig configures the freedesktop notification backend.
type DesktopConfig struct {
	// OpenURL is opened (xdg-open) when the user clicks a notification,
	// bringing the web client into focus.
	OpenURL string
}

// Desktop posts reminders via org.freedesktop.Notifications on the
// session bus.
type Desktop struct {
	cfg  DesktopConfig
	log  logx.Logger
	conn *dbus.Conn

	signals chan *dbus.Signal
	done    chan struct{}

	mu      sync.Mutex
	pending map[uint32]string // platform notification id -> dedup key
}

func NewDesktop(cfg DesktopConfig, log logx.Logger) (*Desktop, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("notify: connect to session bus: %w", err)
	}

	d := &Desktop{
		cfg:     cfg,
		log:     log,
		conn:    conn,
		signals: make(chan *dbus.Signal, 16),
		done:    make(chan struct{}),
		pending: map[uint32]string{},
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(notifyPath),
		dbus.WithMatchInterface(notifyName),
		dbus.WithMatchMember(actionInvokedMember),
	); err != nil {
		return nil, fmt.Errorf("notify: subscribe to %s: %w", actionInvokedMember, err)
	}
	conn.Signal(d.signals)
	go d.clickLoop()

	return d, nil
}

// Permission maps bus state onto the tri-state flag: a notification
// daemon present (or bus-activatable) means granted, a reachable bus
// without one means denied, and a bus failure means undetermined.
func (d *Desktop) Permission(ctx context.Context) Permission {
	var has bool
	err := d.conn.BusObject().CallWithContext(
		ctx, "org.freedesktop.DBus.NameHasOwner", 0, notifyName,
	).Store(&has)
	if err != nil {
		return PermissionUndetermined
	}
	if has {
		return PermissionGranted
	}

	var activatable []string
	err = d.conn.BusObject().CallWithContext(
		ctx, "org.freedesktop.DBus.ListActivatableNames", 0,
	).Store(&activatable)
	if err != nil {
		return PermissionUndetermined
	}
	for _, name := range activatable {
		if name == notifyName {
			return PermissionGranted
		}
	}
	return PermissionDenied
}

func (d *Desktop) Dispatch(ctx context.Context, n Notification) error {
	obj := d.conn.Object(notifyName, notifyPath)

	// The freedesktop protocol has no notification tag; reusing a
	// replaces-id derived from the dedup key gets the same effect: a
	// second request for the same key replaces instead of stacking.
	replaceID := keyHash(n.Key)

	actions := []string{}
	if strings.TrimSpace(d.cfg.OpenURL) != "" {
		actions = []string{defaultAction, "Open"}
	}
	hints := map[string]dbus.Variant{
		"x-medagent-key": dbus.MakeVariant(n.Key),
	}

	var id uint32
	call := obj.CallWithContext(
		ctx,
		notifyMethod,
		0,
		appName,
		replaceID,
		"", // icon
		n.Title,
		n.Body,
		actions,
		hints,
		int32(-1), // server default expiry
	)
	if call.Err != nil {
		return fmt.Errorf("notify: %s: %w", notifyMethod, call.Err)
	}
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("notify: decode notification id: %w", err)
	}

	d.mu.Lock()
	if len(d.pending) >= maxPending {
		// Drop oldest-ish; exact order doesn't matter for click handling.
		for k := range d.pending {
			delete(d.pending, k)
			break
		}
	}
	d.pending[id] = n.Key
	d.mu.Unlock()

	return nil
}

func (d *Desktop) clickLoop() {
	for {
		select {
		case <-d.done:
			return
		case sig, ok := <-d.signals:
			if !ok {
				return
			}
			if sig == nil || sig.Name != notifyName+"."+actionInvokedMember || len(sig.Body) < 2 {
				continue
			}
			id, _ := sig.Body[0].(uint32)
			action, _ := sig.Body[1].(string)
			if action != defaultAction {
				continue
			}

			d.mu.Lock()
			key, mine := d.pending[id]
			delete(d.pending, id)
			d.mu.Unlock()
			if !mine {
				continue
			}
			d.openClient(key)
		}
	}
}

// openClient brings the web client into focus by handing the configured
// URL to the desktop's URL handler.
func (d *Desktop) openClient(key string) {
	url := strings.TrimSpace(d.cfg.OpenURL)
	if url == "" {
		return
	}
	if err := exec.Command("xdg-open", url).Start(); err != nil {
		d.log.Warn("failed to open client", logx.String("key", key), logx.Any("err", err))
		return
	}
	d.log.Debug("opened client from notification", logx.String("key", key))
}

func (d *Desktop) Close() error {
	select {
	case <-d.done:
		return nil
	default:
	}
	close(d.done)
	d.conn.RemoveSignal(d.signals)
	// The session bus connection is shared process-wide; it stays open.
	return nil
}

func keyHash(key string) uint32 {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32()
}
