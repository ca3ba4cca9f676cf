package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"medagent/internal/dedup"
	"medagent/internal/medstore"
	"medagent/internal/notify"
	"medagent/pkg/logx"
)

type fakeStore struct {
	mu    sync.Mutex
	meds  []medstore.Medication
	err   error
	calls int
}

func (f *fakeStore) List(ctx context.Context, token string) ([]medstore.Medication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.meds, nil
}

func (f *fakeStore) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDispatcher struct {
	mu   sync.Mutex
	perm notify.Permission
	err  error
	sent []notify.Notification
}

func (f *fakeDispatcher) Permission(ctx context.Context) notify.Permission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perm
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.err
}

func (f *fakeDispatcher) Close() error { return nil }

func (f *fakeDispatcher) delivered() []notify.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Notification(nil), f.sent...)
}

func (f *fakeDispatcher) grant() {
	f.mu.Lock()
	f.perm = notify.PermissionGranted
	f.mu.Unlock()
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

type fakeSession struct {
	token string
	err   error
}

func (f *fakeSession) Token(ctx context.Context) (string, error) { return f.token, f.err }

type harness struct {
	svc   *Service
	store *fakeStore
	disp  *fakeDispatcher
	clock *fakeClock
	sess  *fakeSession
}

func newHarness(meds []medstore.Medication) *harness {
	h := &harness{
		store: &fakeStore{meds: meds},
		disp:  &fakeDispatcher{perm: notify.PermissionGranted},
		clock: &fakeClock{now: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)},
		sess:  &fakeSession{token: "tok"},
	}
	h.svc = New(Config{Enabled: true, PollInterval: time.Hour}, Deps{
		Log:        logx.Logger{},
		Meds:       h.store,
		Session:    h.sess,
		Dedup:      dedup.NewMemory(),
		Dispatcher: h.disp,
		Clock:      h.clock,
	})
	return h
}

func parol() medstore.Medication {
	return medstore.Medication{
		ID:       "m1",
		Name:     "Parol",
		Dosage:   "500mg",
		Quantity: "1 tablet",
		TimesRaw: "08:00,20:00",
	}
}

func TestTickFiresOncePerSlot(t *testing.T) {
	t.Parallel()
	h := newHarness([]medstore.Medication{parol()})
	ctx := context.Background()

	h.svc.runTick(ctx)
	sent := h.disp.delivered()
	if len(sent) != 1 {
		t.Fatalf("first tick at 08:00: got %d dispatches, want 1", len(sent))
	}
	if sent[0].Key != "m1|2024-01-01|08:00" {
		t.Fatalf("key = %q, want %q", sent[0].Key, "m1|2024-01-01|08:00")
	}
	if sent[0].Title != "Time to take Parol" {
		t.Fatalf("title = %q", sent[0].Title)
	}

	// Further ticks inside the same minute must not re-fire.
	h.clock.set(h.clock.Now().Add(10 * time.Second))
	h.svc.runTick(ctx)
	h.clock.set(h.clock.Now().Add(10 * time.Second))
	h.svc.runTick(ctx)
	if got := len(h.disp.delivered()); got != 1 {
		t.Fatalf("after repeat ticks: got %d dispatches, want 1", got)
	}

	// The evening slot fires independently.
	h.clock.set(time.Date(2024, 1, 1, 20, 0, 30, 0, time.UTC))
	h.svc.runTick(ctx)
	sent = h.disp.delivered()
	if len(sent) != 2 {
		t.Fatalf("after 20:00 tick: got %d dispatches, want 2", len(sent))
	}
	if sent[1].Key != "m1|2024-01-01|20:00" {
		t.Fatalf("second key = %q", sent[1].Key)
	}
}

func TestTickExactMinuteOnly(t *testing.T) {
	t.Parallel()
	h := newHarness([]medstore.Medication{parol()})
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 7, 58, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		h.clock.set(start.Add(time.Duration(i) * time.Minute))
		h.svc.runTick(ctx)
	}
	if got := len(h.disp.delivered()); got != 1 {
		t.Fatalf("got %d dispatches across 07:58..08:02, want 1", got)
	}
}

func TestTickNextDayFiresAgain(t *testing.T) {
	t.Parallel()
	h := newHarness([]medstore.Medication{parol()})
	ctx := context.Background()

	h.svc.runTick(ctx)
	h.clock.set(time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC))
	h.svc.runTick(ctx)

	sent := h.disp.delivered()
	if len(sent) != 2 {
		t.Fatalf("got %d dispatches, want 2", len(sent))
	}
	if sent[1].Key != "m1|2024-01-02|08:00" {
		t.Fatalf("next-day key = %q", sent[1].Key)
	}
}

func TestTickSkipsMalformedSlots(t *testing.T) {
	t.Parallel()
	med := parol()
	med.TimesRaw = "08:00, 25:99, 20:00"
	h := newHarness([]medstore.Medication{med})
	ctx := context.Background()

	h.svc.runTick(ctx)
	if got := len(h.disp.delivered()); got != 1 {
		t.Fatalf("at 08:00: got %d dispatches, want 1", got)
	}
	h.clock.set(time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC))
	h.svc.runTick(ctx)
	if got := len(h.disp.delivered()); got != 2 {
		t.Fatalf("valid slots around the bad one: got %d dispatches, want 2", got)
	}
}

func TestTickNoSessionSkipsFetch(t *testing.T) {
	t.Parallel()
	h := newHarness([]medstore.Medication{parol()})
	h.sess.token = ""

	h.svc.runTick(context.Background())
	if h.store.listCalls() != 0 {
		t.Fatalf("fetch ran without a session")
	}
	if len(h.disp.delivered()) != 0 {
		t.Fatalf("dispatched without a session")
	}
}

func TestTickPermissionGate(t *testing.T) {
	t.Parallel()
	h := newHarness([]medstore.Medication{parol()})
	h.disp.perm = notify.PermissionDenied
	ctx := context.Background()

	h.svc.runTick(ctx)
	if len(h.disp.delivered()) != 0 {
		t.Fatalf("dispatched while permission denied")
	}
	// Nothing was recorded, so granting within the same minute still fires.
	h.disp.grant()
	h.svc.runTick(ctx)
	if got := len(h.disp.delivered()); got != 1 {
		t.Fatalf("after grant: got %d dispatches, want 1", got)
	}
}

func TestTickFetchErrorLeavesStateUntouched(t *testing.T) {
	t.Parallel()
	h := newHarness([]medstore.Medication{parol()})
	h.store.err = errors.New("backend down")
	ctx := context.Background()

	h.svc.runTick(ctx)
	if len(h.disp.delivered()) != 0 {
		t.Fatalf("dispatched despite fetch error")
	}

	h.store.mu.Lock()
	h.store.err = nil
	h.store.mu.Unlock()
	h.svc.runTick(ctx)
	if got := len(h.disp.delivered()); got != 1 {
		t.Fatalf("recovery tick: got %d dispatches, want 1", got)
	}
}

func TestTickDispatchFailureDoesNotRetry(t *testing.T) {
	t.Parallel()
	h := newHarness([]medstore.Medication{parol()})
	h.disp.err = errors.New("bus gone")
	ctx := context.Background()

	h.svc.runTick(ctx)
	h.svc.runTick(ctx)
	// Recorded before dispatch: the failed attempt is final for the slot.
	if got := len(h.disp.delivered()); got != 1 {
		t.Fatalf("got %d dispatch attempts, want 1", got)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	t.Parallel()
	h := newHarness(nil)
	ctx := context.Background()

	h.svc.Start(ctx)
	h.svc.Start(ctx)
	if !h.svc.Status().Running {
		t.Fatalf("not running after Start")
	}
	h.svc.Stop(ctx)
	h.svc.Stop(ctx)
	if h.svc.Status().Running {
		t.Fatalf("still running after Stop")
	}

	h.svc.Start(ctx)
	if !h.svc.Status().Running {
		t.Fatalf("restart after Stop failed")
	}
	h.svc.Stop(ctx)
}

func TestStartDisabledStaysIdle(t *testing.T) {
	t.Parallel()
	h := newHarness(nil)
	h.svc.Apply(Config{Enabled: false})

	h.svc.Start(context.Background())
	if h.svc.Status().Running {
		t.Fatalf("disabled service started")
	}
}

func TestBuildNotificationBody(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		med  medstore.Medication
		want string
	}{
		{"full", medstore.Medication{Name: "Parol", Dosage: "500mg", Quantity: "1 tablet", Notes: "after food"}, "500mg - 1 tablet\nafter food"},
		{"dosage only", medstore.Medication{Name: "Parol", Dosage: "500mg"}, "500mg"},
		{"notes only", medstore.Medication{Name: "Parol", Notes: "after food"}, "after food"},
		{"empty", medstore.Medication{Name: "Parol"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n := buildNotification(tc.med, "k")
			if n.Body != tc.want {
				t.Fatalf("body = %q, want %q", n.Body, tc.want)
			}
		})
	}
}
