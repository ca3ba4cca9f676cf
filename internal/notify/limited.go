package notify

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	logx "medagent/pkg/logx"
)

const defaultRatePerMin = 10

// Limited caps dispatches per minute so a machine waking from suspend
// with many simultaneously-due slots cannot flood the channel. Drops are
// logged and otherwise silent; the key was already recorded by the loop,
// so a drop is final for the session.
type Limited struct {
	next Dispatcher
	log  logx.Logger

	mu  sync.Mutex
	lim *rate.Limiter
}

func Limit(next Dispatcher, perMin int, log logx.Logger) *Limited {
	if log.IsZero() {
		log = logx.Nop()
	}
	l := &Limited{next: next, log: log}
	l.SetRate(perMin)
	return l
}

// SetRate re-tunes the budget at runtime (config hot reload).
func (l *Limited) SetRate(perMin int) {
	if perMin <= 0 {
		perMin = defaultRatePerMin
	}
	l.mu.Lock()
	l.lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin)
	l.mu.Unlock()
}

func (l *Limited) Permission(ctx context.Context) Permission {
	return l.next.Permission(ctx)
}

func (l *Limited) Dispatch(ctx context.Context, n Notification) error {
	l.mu.Lock()
	lim := l.lim
	l.mu.Unlock()

	if !lim.Allow() {
		l.log.Warn("notification rate limit exceeded; dropping", logx.String("key", n.Key))
		return nil
	}
	return l.next.Dispatch(ctx, n)
}

func (l *Limited) Close() error { return l.next.Close() }
