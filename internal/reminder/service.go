package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"medagent/internal/dedup"
	"medagent/internal/eventbus"
	"medagent/internal/medstore"
	"medagent/internal/notify"
	"medagent/internal/schedule"
	"medagent/internal/session"
	"medagent/pkg/logx"
)

// Deps are the collaborators the loop drives. All are required except Bus
// and Clock, which default to a no-op bus and the system clock.
type Deps struct {
	Log        logx.Logger
	Meds       medstore.Store
	Session    session.Source
	Dedup      dedup.Store
	Dispatcher notify.Dispatcher
	Bus        eventbus.Bus
	Clock      Clock
}

// Service owns the reminder loop goroutine and the nightly dedup prune
// job. Zero value is not usable; construct with New.
type Service struct {
	mu  sync.Mutex
	cfg Config
	d   Deps

	stopCh chan struct{}
	done   chan struct{}
	cron   *cron.Cron

	lastTickAt time.Time
	skipReason string
}

func New(cfg Config, d Deps) *Service {
	if d.Clock == nil {
		d.Clock = systemClock{}
	}
	return &Service{cfg: cfg, d: d}
}

// Start launches the loop. Calling Start on a running service is a no-op.
// A disabled service stays idle until re-enabled and started again.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		s.d.Log.Debug("reminder loop already running")
		return
	}
	if !s.cfg.Enabled {
		s.d.Log.Info("reminder loop disabled")
		return
	}
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})

	s.cron = cron.New()
	s.cron.AddFunc("0 0 * * *", func() { s.prune(context.Background()) })
	s.cron.Start()

	go s.loop(ctx, s.stopCh, s.done)
	s.d.Log.Info("reminder loop started",
		logx.Duration("interval", s.intervalLocked()))
}

// Stop signals the loop and waits for the in-flight tick to settle, or
// for ctx to expire. Safe to call when not running.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	stopCh, done, cr := s.stopCh, s.done, s.cron
	s.stopCh, s.done, s.cron = nil, nil, nil
	s.mu.Unlock()
	if stopCh == nil {
		return
	}
	close(stopCh)
	if cr != nil {
		<-cr.Stop().Done()
	}
	select {
	case <-done:
		s.d.Log.Info("reminder loop stopped")
	case <-ctx.Done():
		s.d.Log.Warn("reminder loop stop timed out", logx.Err(ctx.Err()))
	}
}

// Apply swaps in a new config. The interval is picked up at the next
// re-arm; the caller handles Enabled transitions via Start/Stop.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *Service) Status() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Running: s.stopCh != nil, LastTickAt: s.lastTickAt}
}

func (s *Service) loop(ctx context.Context, stopCh, done chan struct{}) {
	defer close(done)
	for {
		s.runTick(ctx)
		t := time.NewTimer(s.interval())
		select {
		case <-stopCh:
			t.Stop()
			return
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (s *Service) interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intervalLocked()
}

func (s *Service) intervalLocked() time.Duration {
	if s.cfg.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return s.cfg.PollInterval
}

func (s *Service) prune(ctx context.Context) {
	day := s.d.Clock.Now().Format(schedule.DateLayout)
	if err := s.d.Dedup.PruneBefore(ctx, day); err != nil {
		s.d.Log.Warn("dedup prune failed", logx.Err(err))
		return
	}
	s.d.Log.Debug("dedup pruned", logx.String("before", day))
}

// noteSkip logs gate transitions once instead of every tick. An empty
// reason marks the gates as open again.
func (s *Service) noteSkip(reason string) {
	s.mu.Lock()
	prev := s.skipReason
	s.skipReason = reason
	s.mu.Unlock()
	if reason == prev {
		return
	}
	if reason == "" {
		s.d.Log.Debug("tick gates open")
		return
	}
	s.d.Log.Debug("skipping ticks", logx.String("reason", reason))
}

func (s *Service) publish(typ string, data any) {
	if s.d.Bus == nil {
		return
	}
	s.d.Bus.Publish(eventbus.Event{Type: typ, Time: s.d.Clock.Now(), Data: data})
}
