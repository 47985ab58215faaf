package device

import (
	"context"
	"time"

	"github.com/nerrad567/neuroair-core/internal/scent"
)

// State is the observable state of one appliance.
type State struct {
	PoweredOn bool `json:"powered_on"`

	// ActiveProfile is empty until a profile has been selected.
	ActiveProfile string `json:"active_profile"`

	// Intensity is always within [scent.MinIntensity, scent.MaxIntensity].
	Intensity int `json:"intensity"`
}

// InitialState is the state of a freshly started appliance: off, no
// profile, minimum intensity.
func InitialState() State {
	return State{Intensity: scent.MinIntensity}
}

// HasProfile reports whether a profile has been selected.
func (s State) HasProfile() bool {
	return s.ActiveProfile != ""
}

// Driver sends commands to the physical appliance.
//
// Implementations must be safe for concurrent use. The controller calls
// the driver one operation at a time, so a slow call delays the next
// operation but not State reads; calls should be bounded by ctx.
type Driver interface {
	TurnOn(ctx context.Context, deviceID string) error
	TurnOff(ctx context.Context, deviceID string) error

	// SetProfile selects profile at the given (already clamped) intensity.
	SetProfile(ctx context.Context, deviceID, profile string, intensity int) error

	// AdjustIntensity reports the requested delta and the resulting intensity.
	AdjustIntensity(ctx context.Context, deviceID string, delta, intensity int) error
}

// Observer is notified after every state change.
//
// StateChanged is called with the controller's state lock held.
// Implementations must not block and must not call back into the
// Controller.
type Observer interface {
	StateChanged(deviceID string, state State)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(deviceID string, state State)

// StateChanged implements Observer.
func (f ObserverFunc) StateChanged(deviceID string, state State) {
	f(deviceID, state)
}

// PendingRoutine describes a scheduled routine step.
type PendingRoutine struct {
	Name string    `json:"name"`
	Due  time.Time `json:"due"`
}

// Logger defines the logging interface used by the Controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
