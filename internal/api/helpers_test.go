package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/neuroair-core/internal/auth"
	"github.com/nerrad567/neuroair-core/internal/command"
	"github.com/nerrad567/neuroair-core/internal/device"
	"github.com/nerrad567/neuroair-core/internal/dispatch"
	"github.com/nerrad567/neuroair-core/internal/history"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/config"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/logging"
	"github.com/nerrad567/neuroair-core/internal/platform"
	"github.com/nerrad567/neuroair-core/internal/scent"
	"github.com/nerrad567/neuroair-core/internal/speech"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

var errDriverDown = errors.New("driver down")

// stubDriver accepts every command unless failing is set.
type stubDriver struct {
	mu      sync.Mutex
	failing bool
}

func (d *stubDriver) err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failing {
		return errDriverDown
	}
	return nil
}

func (d *stubDriver) TurnOn(context.Context, string) error                  { return d.err() }
func (d *stubDriver) TurnOff(context.Context, string) error                 { return d.err() }
func (d *stubDriver) SetProfile(context.Context, string, string, int) error { return d.err() }
func (d *stubDriver) AdjustIntensity(context.Context, string, int, int) error {
	return d.err()
}

type stubTimer struct{}

func (stubTimer) Stop() bool { return true }

// memoryHistory is an in-memory HistoryStore that also satisfies
// history.Repository so the dispatcher can record into it.
type memoryHistory struct {
	mu      sync.Mutex
	records []history.Record
	pruned  time.Duration
}

func (m *memoryHistory) Record(_ context.Context, r *history.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append([]history.Record{*r}, m.records...)
	return nil
}

func (m *memoryHistory) List(_ context.Context, deviceID string, limit int) ([]history.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []history.Record
	for _, r := range m.records {
		if r.DeviceID == deviceID {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryHistory) Prune(_ context.Context, olderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned = olderThan
	n := int64(len(m.records))
	m.records = nil
	return n, nil
}

// fakeRecognizer returns fixed results for any audio.
type fakeRecognizer struct {
	results []speech.Result
	err     error
	audio   []byte
}

func (r *fakeRecognizer) Recognize(_ context.Context, audio io.Reader) (speech.Stream, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return nil, err
	}
	r.audio = data
	if r.err != nil {
		return nil, r.err
	}
	return speech.NewSliceStream(r.results...), nil
}

type testEnv struct {
	srv     *Server
	router  http.Handler
	ctrl    *device.Controller
	driver  *stubDriver
	history *memoryHistory
	issuer  *auth.Issuer
}

type envOption func(*Deps)

func withAuth() envOption {
	return func(d *Deps) { d.Security.AuthEnabled = true }
}

func withRecognizer(r platform.Recognizer) envOption {
	return func(d *Deps) { d.Recognizer = r }
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
}

// newTestEnv builds a server over a real dispatcher and controller with
// the default catalogue and bindings.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	catalog, err := scent.NewCatalog(scent.DefaultProfiles()...)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	resolver, err := scent.NewResolver(catalog)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	registry, err := command.NewRegistry(command.DefaultCommands(), command.DefaultScenes())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	drv := &stubDriver{}
	ctrl := device.NewController(device.Config{
		DeviceID:  "neuroair-1",
		Scheduler: device.NewScheduler(func(time.Duration, func()) device.Timer { return stubTimer{} }),
	}, catalog, drv)

	d, err := dispatch.New(dispatch.Config{}, registry, resolver, ctrl)
	if err != nil {
		t.Fatalf("dispatch.New() error = %v", err)
	}
	hist := &memoryHistory{}
	d.SetHistory(hist)

	issuer, err := auth.NewIssuer(testSecret, "neuroair-test", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}

	core := platform.NewCore(d, ctrl)
	popts := platform.Options{TextConfidence: 0.5}

	deps := Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		WS:         config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10},
		Logger:     testLogger(),
		Dispatcher: d,
		Controller: ctrl,
		Issuer:     issuer,
		History:    hist,
		Platforms: []platform.Adapter{
			platform.NewYandex(core, popts),
			platform.NewHomeAssistant(core, "NeuroAIR", popts),
		},
		Version: "test",
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &testEnv{
		srv:     srv,
		router:  srv.buildRouter(),
		ctrl:    ctrl,
		driver:  drv,
		history: hist,
		issuer:  issuer,
	}
}

func (e *testEnv) token(t *testing.T, role auth.Role, platformName string) string {
	t.Helper()
	tok, _, err := e.issuer.Issue(auth.TokenRequest{Subject: "test-" + string(role), Role: role, Platform: platformName})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return tok
}

// do sends a request through the router. body may be nil, a string or a
// value to encode as JSON.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	case []byte:
		r = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal %s: %v", w.Body.String(), err)
	}
	return v
}

func intPtr(v int) *int { return &v }

func httptestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serve(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
