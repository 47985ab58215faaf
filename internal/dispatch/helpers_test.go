package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/neuroair-core/internal/command"
	"github.com/nerrad567/neuroair-core/internal/device"
	"github.com/nerrad567/neuroair-core/internal/history"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/neuroair-core/internal/scent"
	"github.com/nerrad567/neuroair-core/internal/speech"
)

// recordingDriver records every driver call as a short string.
type recordingDriver struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (d *recordingDriver) record(call string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
	return d.err
}

func (d *recordingDriver) TurnOn(context.Context, string) error  { return d.record("on") }
func (d *recordingDriver) TurnOff(context.Context, string) error { return d.record("off") }
func (d *recordingDriver) SetProfile(_ context.Context, _ string, profile string, intensity int) error {
	return d.record(fmt.Sprintf("profile:%s:%d", profile, intensity))
}
func (d *recordingDriver) AdjustIntensity(_ context.Context, _ string, delta, intensity int) error {
	return d.record(fmt.Sprintf("adjust:%+d:%d", delta, intensity))
}

func (d *recordingDriver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *recordingDriver) Count(call string) int {
	n := 0
	for _, c := range d.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (d *recordingDriver) Reset() {
	d.mu.Lock()
	d.calls = nil
	d.mu.Unlock()
}

type memoryHistory struct {
	mu      sync.Mutex
	records []history.Record
	err     error
}

func (h *memoryHistory) Record(_ context.Context, r *history.Record) error {
	if h.err != nil {
		return h.err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, *r)
	return nil
}

func (h *memoryHistory) List(_ context.Context, _ string, _ int) ([]history.Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]history.Record(nil), h.records...), nil
}

type memoryMetrics struct {
	mu     sync.Mutex
	points []influxdb.DispatchPoint
}

func (m *memoryMetrics) WriteDispatch(p influxdb.DispatchPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = append(m.points, p)
}

func (m *memoryMetrics) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.points)
}

// scriptedStream returns results in order, then err (io.EOF if nil).
type scriptedStream struct {
	results []speech.Result
	err     error
	reads   int
	closed  bool
}

func (s *scriptedStream) Next(context.Context) (speech.Result, error) {
	if s.reads < len(s.results) {
		r := s.results[s.reads]
		s.reads++
		return r, nil
	}
	if s.err != nil {
		return speech.Result{}, s.err
	}
	return speech.Result{}, io.EOF
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

type testEnv struct {
	dispatcher *Dispatcher
	controller *device.Controller
	driver     *recordingDriver
}

// newTestEnv builds a dispatcher over the default catalogue with the
// given bindings. nil bindings use the built-in defaults.
func newTestEnv(t *testing.T, commands []command.CommandBinding, scenes []command.SceneBinding) *testEnv {
	t.Helper()

	catalog, err := scent.NewCatalog(scent.DefaultProfiles()...)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	resolver, err := scent.NewResolver(catalog)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	if commands == nil {
		commands = command.DefaultCommands()
	}
	if scenes == nil {
		scenes = command.DefaultScenes()
	}
	registry, err := command.NewRegistry(commands, scenes)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	drv := &recordingDriver{}
	ctrl := device.NewController(device.Config{
		DeviceID:  "neuroair-1",
		Scheduler: device.NewScheduler(func(time.Duration, func()) device.Timer { return stubTimer{} }),
	}, catalog, drv)

	d, err := New(Config{}, registry, resolver, ctrl)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &testEnv{dispatcher: d, controller: ctrl, driver: drv}
}

type stubTimer struct{}

func (stubTimer) Stop() bool { return true }

func intPtr(v int) *int { return &v }

var errUpstream = errors.New("audio processor went away")
