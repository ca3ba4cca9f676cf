package app

import (
	"context"

	"medagent/internal/config"
	"medagent/internal/session"
)

// sessionSource resolves the API token from the live config on every
// call, so a token_file path change or an inline token swap applied by
// the watcher takes effect on the next tick.
type sessionSource struct {
	cfgm *config.Manager
}

func (s *sessionSource) Token(ctx context.Context) (string, error) {
	sc := s.cfgm.Get().Session
	if sc.Token != "" {
		return session.Static(sc.Token).Token(ctx)
	}
	if sc.TokenFile == "" {
		return "", nil
	}
	fs, err := session.NewFileSource(sc.TokenFile)
	if err != nil {
		return "", err
	}
	return fs.Token(ctx)
}
