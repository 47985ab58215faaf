package device

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/neuroair-core/internal/scent"
)

// mockDriver records driver calls and can be told to fail.
type mockDriver struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (d *mockDriver) record(call string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
	return d.err
}

func (d *mockDriver) TurnOn(_ context.Context, _ string) error {
	return d.record("on")
}

func (d *mockDriver) TurnOff(_ context.Context, _ string) error {
	return d.record("off")
}

func (d *mockDriver) SetProfile(_ context.Context, _ string, profile string, intensity int) error {
	return d.record("profile:" + profile + ":" + itoa(intensity))
}

func (d *mockDriver) AdjustIntensity(_ context.Context, _ string, _ int, intensity int) error {
	return d.record("intensity:" + itoa(intensity))
}

func (d *mockDriver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func itoa(v int) string {
	if v < 0 {
		return "-" + itoa(-v)
	}
	if v < 10 {
		return string(rune('0' + v))
	}
	return itoa(v/10) + itoa(v%10)
}

// fakeTimer is a manually fired timer.
type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

// fakeClock captures scheduled callbacks so tests can fire them.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Last returns the most recently scheduled timer.
func (c *fakeClock) Last(t *testing.T) *fakeTimer {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		t.Fatal("no timer scheduled")
	}
	return c.timers[len(c.timers)-1]
}

type harness struct {
	ctrl   *Controller
	driver *mockDriver
	clock  *fakeClock
	events []State
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	catalog, err := scent.NewCatalog(scent.DefaultProfiles()...)
	if err != nil {
		t.Fatalf("NewCatalog() error: %v", err)
	}

	h := &harness{driver: &mockDriver{}, clock: &fakeClock{}}
	h.ctrl = NewController(Config{
		DeviceID:   "test-device",
		SleepDelay: 30 * time.Minute,
		Scheduler:  NewScheduler(h.clock.AfterFunc),
	}, catalog, h.driver)
	h.ctrl.AddObserver(ObserverFunc(func(_ string, s State) {
		h.events = append(h.events, s)
	}))
	return h
}

func intPtr(v int) *int { return &v }

func assertState(t *testing.T, got, want State) {
	t.Helper()
	if got != want {
		t.Errorf("state = %+v, want %+v", got, want)
	}
}

var errBus = errors.New("bus offline")
