package platform

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/nerrad567/neuroair-core/internal/device"
	"github.com/nerrad567/neuroair-core/internal/dispatch"
	"github.com/nerrad567/neuroair-core/internal/scent"
	"github.com/nerrad567/neuroair-core/internal/speech"
)

// Adapter translates one platform's requests.
type Adapter interface {
	// Name is the platform identifier used in routes and history.
	Name() string

	// HandleRequest processes a raw platform request. An error means the
	// request itself was unusable; failures while acting on a valid
	// request are reported inside the platform response.
	HandleRequest(ctx context.Context, payload []byte) ([]byte, error)
}

// Engine is what adapters need from the core.
type Engine interface {
	DeviceID() string
	State() device.State
	PendingRoutine() (device.PendingRoutine, bool)
	Profiles() []string
	LastResult() (dispatch.LastResult, bool)

	DispatchStream(ctx context.Context, stream speech.Stream, source string) (dispatch.Outcome, error)

	TurnOn(ctx context.Context) error
	TurnOff(ctx context.Context) error
	SetProfile(ctx context.Context, name string, intensity *int) error
	AdjustIntensity(ctx context.Context, delta int) error
	SleepRoutine(ctx context.Context) error
}

// Core is the Engine backed by a Dispatcher and its Controller.
type Core struct {
	dispatcher *dispatch.Dispatcher
	controller *device.Controller
}

// NewCore combines d and c into an Engine. d must dispatch to c.
func NewCore(d *dispatch.Dispatcher, c *device.Controller) *Core {
	return &Core{dispatcher: d, controller: c}
}

// DeviceID implements Engine.
func (e *Core) DeviceID() string { return e.controller.DeviceID() }

// State implements Engine.
func (e *Core) State() device.State { return e.controller.State() }

// PendingRoutine implements Engine.
func (e *Core) PendingRoutine() (device.PendingRoutine, bool) { return e.controller.PendingRoutine() }

// Profiles implements Engine.
func (e *Core) Profiles() []string { return e.controller.Catalog().Names() }

// Catalog returns the profile catalogue.
func (e *Core) Catalog() *scent.Catalog { return e.controller.Catalog() }

// LastResult implements Engine.
func (e *Core) LastResult() (dispatch.LastResult, bool) { return e.dispatcher.LastResult() }

// DispatchStream implements Engine.
func (e *Core) DispatchStream(ctx context.Context, stream speech.Stream, source string) (dispatch.Outcome, error) {
	return e.dispatcher.DispatchStream(ctx, stream, source)
}

// TurnOn implements Engine.
func (e *Core) TurnOn(ctx context.Context) error { return e.controller.TurnOn(ctx) }

// TurnOff implements Engine.
func (e *Core) TurnOff(ctx context.Context) error { return e.controller.TurnOff(ctx) }

// SetProfile implements Engine.
func (e *Core) SetProfile(ctx context.Context, name string, intensity *int) error {
	return e.controller.SetProfile(ctx, name, intensity)
}

// AdjustIntensity implements Engine.
func (e *Core) AdjustIntensity(ctx context.Context, delta int) error {
	return e.controller.AdjustIntensity(ctx, delta)
}

// SleepRoutine implements Engine.
func (e *Core) SleepRoutine(ctx context.Context) error { return e.controller.SleepRoutine(ctx) }

// Recognizer turns raw audio into a recognition stream.
type Recognizer interface {
	Recognize(ctx context.Context, audio io.Reader) (speech.Stream, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, audio io.Reader) (speech.Stream, error)

// Recognize implements Recognizer.
func (f RecognizerFunc) Recognize(ctx context.Context, audio io.Reader) (speech.Stream, error) {
	return f(ctx, audio)
}

// Logger is the logging surface used by adapters.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options are shared by all adapters.
type Options struct {
	// TextConfidence is the confidence given to already-transcribed text.
	TextConfidence float64

	// Recognizer handles audio input. Nil rejects audio requests.
	Recognizer Recognizer

	Logger Logger
}

func (o Options) logger() Logger {
	if o.Logger == nil {
		return noopLogger{}
	}
	return o.Logger
}

// voiceStream builds the recognition stream for a voice request. Audio
// is base64 encoded and takes precedence over text. A request with
// neither yields an empty stream, which dispatches as not handled.
func (o Options) voiceStream(ctx context.Context, text, audio string) (speech.Stream, error) {
	if audio != "" {
		if o.Recognizer == nil {
			return nil, ErrNoRecognizer
		}
		raw, err := base64.StdEncoding.DecodeString(audio)
		if err != nil {
			return nil, fmt.Errorf("%w: audio is not base64: %w", ErrInvalidRequest, err)
		}
		return o.Recognizer.Recognize(ctx, bytes.NewReader(raw))
	}
	if text == "" {
		return speech.NewSliceStream(), nil
	}
	return speech.TextStream(text, string(scent.EmotionNeutral), o.TextConfidence), nil
}
