package dedup

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "medagent/pkg/logx"
)

var ErrClosed = errors.New("dedup store closed")

// Store is the session-scoped key set backing the at-most-once guarantee.
type Store interface {
	// Seen reports whether key was already recorded.
	Seen(ctx context.Context, key string) (bool, error)
	// Mark records key for the given calendar day. Idempotent: marking an
	// existing key is a no-op, never an error.
	Mark(ctx context.Context, key string, day string) error
	// PruneBefore removes all records whose day sorts before the given
	// "YYYY-MM-DD" date. Keys embed their date, so old days can never
	// fire again; pruning only bounds store growth.
	PruneBefore(ctx context.Context, day string) error
	Close() error
}

// Config configures the dedup backing.
//
// Driver values:
//   - "" / "none" / "memory": in-process only
//   - "sqlite": SQLite database file
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Open initializes the configured store. An empty driver falls back to the
// in-memory backing.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver := strings.ToLower(strings.TrimSpace(cfg.Driver)); driver {
	case "", "none", "memory":
		return NewMemory(), nil
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown dedup driver: " + cfg.Driver)
	}
}
