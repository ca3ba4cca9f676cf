package notify

import (
	"context"

	logx "medagent/pkg/logx"
)

// Noop swallows every dispatch while reporting a fixed permission state.
// Used for the "none" driver and as the fallback when a real backend
// cannot be constructed.
type Noop struct {
	perm Permission
	log  logx.Logger
}

func NewNoop(perm Permission, log logx.Logger) *Noop {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Noop{perm: perm, log: log}
}

func (n *Noop) Permission(ctx context.Context) Permission { return n.perm }

func (n *Noop) Dispatch(ctx context.Context, notif Notification) error {
	n.log.Debug("notification suppressed", logx.String("key", notif.Key))
	return nil
}

func (n *Noop) Close() error { return nil }
