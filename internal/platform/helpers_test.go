package platform

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/nerrad567/neuroair-core/internal/command"
	"github.com/nerrad567/neuroair-core/internal/device"
	"github.com/nerrad567/neuroair-core/internal/dispatch"
	"github.com/nerrad567/neuroair-core/internal/scent"
	"github.com/nerrad567/neuroair-core/internal/speech"
)

type nopDriver struct{}

func (nopDriver) TurnOn(context.Context, string) error                    { return nil }
func (nopDriver) TurnOff(context.Context, string) error                   { return nil }
func (nopDriver) SetProfile(context.Context, string, string, int) error   { return nil }
func (nopDriver) AdjustIntensity(context.Context, string, int, int) error { return nil }

type stubTimer struct{}

func (stubTimer) Stop() bool { return true }

// newTestCore wires a real dispatcher and controller with the default
// catalogue and bindings.
func newTestCore(t *testing.T) *Core {
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
	ctrl := device.NewController(device.Config{
		DeviceID:  "neuroair-1",
		Scheduler: device.NewScheduler(func(time.Duration, func()) device.Timer { return stubTimer{} }),
	}, catalog, nopDriver{})

	d, err := dispatch.New(dispatch.Config{}, registry, resolver, ctrl)
	if err != nil {
		t.Fatalf("dispatch.New() error = %v", err)
	}
	return NewCore(d, ctrl)
}

// fakeRecognizer returns a fixed stream and records the audio it got.
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

// failingStream fails on the first read.
type failingStream struct{}

func (failingStream) Next(context.Context) (speech.Result, error) {
	return speech.Result{}, errors.New("connection reset")
}

func testOptions() Options {
	return Options{TextConfidence: 0.5}
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return v
}
