// Package session answers "is a user signed in, and with what token?".
//
// The agent never performs a login itself: it borrows the token the web
// client obtained, either inlined in the config or from a token file the
// user's login flow maintains. An empty token means no session, which the
// reminder loop treats as "stay idle and re-check next tick".
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source yields the current session token. An empty token with a nil
// error means "no session right now" and is not a failure.
type Source interface {
	Token(ctx context.Context) (string, error)
}

// Static is a fixed token (config-inlined, or tests).
type Static string

func (s Static) Token(ctx context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// FileSource re-reads a token file on every call, so a login or logout in
// the web client takes effect on the next poll tick without restarting
// the agent. A missing file means no session.
type FileSource struct {
	path string
}

func NewFileSource(path string) (*FileSource, error) {
	p, err := expandHome(strings.TrimSpace(path))
	if err != nil {
		return nil, err
	}
	if p == "" {
		return nil, errors.New("session: token file path is empty")
	}
	return &FileSource{path: p}, nil
}

func (f *FileSource) Token(ctx context.Context) (string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: read token file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func expandHome(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("session: resolve home dir: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
	}
	return p, nil
}
