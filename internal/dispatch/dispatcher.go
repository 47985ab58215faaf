package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/neuroair-core/internal/command"
	"github.com/nerrad567/neuroair-core/internal/device"
	"github.com/nerrad567/neuroair-core/internal/history"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/neuroair-core/internal/scent"
	"github.com/nerrad567/neuroair-core/internal/speech"
)

// DefaultThreshold is the confidence above which an unmatched result
// still triggers emotion adaptation.
const DefaultThreshold = 0.7

const historyTimeout = 5 * time.Second

// Controller is the device surface the dispatcher drives.
// *device.Controller satisfies it.
type Controller interface {
	DeviceID() string
	State() device.State

	TurnOn(ctx context.Context) error
	TurnOff(ctx context.Context) error
	AdjustIntensity(ctx context.Context, delta int) error
	SetProfile(ctx context.Context, name string, intensity *int) error
	MorningRoutine(ctx context.Context) error
	EveningRoutine(ctx context.Context) error
	SleepRoutine(ctx context.Context) error
	EmotionResponse(ctx context.Context, emotion scent.Emotion) error
	ApplyAdaptation(ctx context.Context, a scent.Adaptation) error
}

// Metrics receives one point per dispatch. *influxdb.Client satisfies it.
type Metrics interface {
	WriteDispatch(p influxdb.DispatchPoint)
}

// Logger defines the logging interface used by the Dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config configures a Dispatcher.
type Config struct {
	// Threshold is the emotion-only confidence gate, in (0,1]. Zero
	// selects the default of 0.7; configuration rejects an explicit 0.
	Threshold float64
}

// Dispatcher runs the three-stage resolution for one device.
//
// Thread Safety:
//   - Dispatch calls are serialised.
//   - Setters may be called concurrently with Dispatch.
type Dispatcher struct {
	registry   *command.Registry
	resolver   *scent.Resolver
	controller Controller
	threshold  float64
	now        func() time.Time

	// mu serialises resolution and the state mutation it causes.
	mu sync.Mutex

	depsMu    sync.RWMutex
	history   history.Repository
	metrics   Metrics
	listeners []Listener
	logger    Logger

	lastMu sync.RWMutex
	last   *LastResult
}

// New creates a Dispatcher.
//
// Parameters:
//   - cfg: Confidence threshold
//   - registry: Command and scene bindings
//   - resolver: Emotion adaptation resolver
//   - controller: Device the actions are run against
//
// Returns:
//   - *Dispatcher: Ready for use
//   - error: If a dependency is missing or the threshold is out of range
func New(cfg Config, registry *command.Registry, resolver *scent.Resolver, controller Controller) (*Dispatcher, error) {
	if registry == nil || resolver == nil || controller == nil {
		return nil, errors.New("dispatch: registry, resolver and controller are required")
	}
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("dispatch: threshold %v outside (0,1]", threshold)
	}

	return &Dispatcher{
		registry:   registry,
		resolver:   resolver,
		controller: controller,
		threshold:  threshold,
		now:        time.Now,
		logger:     noopLogger{},
	}, nil
}

// SetHistory sets the repository every dispatch is recorded to.
func (d *Dispatcher) SetHistory(repo history.Repository) {
	d.depsMu.Lock()
	defer d.depsMu.Unlock()
	d.history = repo
}

// SetMetrics sets the metrics writer.
func (d *Dispatcher) SetMetrics(m Metrics) {
	d.depsMu.Lock()
	defer d.depsMu.Unlock()
	d.metrics = m
}

// SetLogger sets the logger.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.depsMu.Lock()
	defer d.depsMu.Unlock()
	d.logger = logger
}

// AddListener registers l for dispatch events.
func (d *Dispatcher) AddListener(l Listener) {
	d.depsMu.Lock()
	defer d.depsMu.Unlock()
	d.listeners = append(d.listeners, l)
}

// DeviceID returns the id of the controlled device.
func (d *Dispatcher) DeviceID() string {
	return d.controller.DeviceID()
}

// State returns the current device state.
func (d *Dispatcher) State() device.State {
	return d.controller.State()
}

// Threshold returns the emotion-only confidence gate.
func (d *Dispatcher) Threshold() float64 {
	return d.threshold
}

// LastResult returns the most recently dispatched result.
func (d *Dispatcher) LastResult() (LastResult, bool) {
	d.lastMu.RLock()
	defer d.lastMu.RUnlock()
	if d.last == nil {
		return LastResult{}, false
	}
	return *d.last, true
}

// Dispatch resolves one result that arrived through the HTTP API.
func (d *Dispatcher) Dispatch(ctx context.Context, result speech.Result) (Outcome, error) {
	return d.DispatchFrom(ctx, history.SourceAPI, result)
}

// DispatchFrom resolves one result and runs the winning actions.
//
// A non-nil error reports failed actions (unknown profile, driver
// failure). The Outcome is still valid: state changes that did succeed
// are kept and Handled reflects whether a stage matched.
func (d *Dispatcher) DispatchFrom(ctx context.Context, source string, result speech.Result) (Outcome, error) {
	result = result.Normalized()

	d.mu.Lock()
	outcome, err := d.resolveLocked(ctx, result)
	d.mu.Unlock()

	d.lastMu.Lock()
	d.last = &LastResult{Result: result, Source: source, At: d.now().UTC()}
	d.lastMu.Unlock()

	d.report(ctx, source, result, outcome, err)
	return outcome, err
}

func (d *Dispatcher) resolveLocked(ctx context.Context, result speech.Result) (Outcome, error) {
	var (
		outcome Outcome
		errs    []error
	)

	if binding, ok := d.registry.MatchCommand(result.Text); ok {
		outcome = Outcome{Handled: true, Stage: StageCommand, Trigger: binding.Trigger, Actions: []command.Action{binding.Action}}
		if err := d.execute(ctx, binding.Action); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", binding.Action, err))
		}
	} else if scene, ok := d.registry.MatchScene(result.Text); ok {
		outcome = Outcome{Handled: true, Stage: StageScene, Trigger: scene.Name, Actions: scene.Actions}
		for _, a := range scene.Actions {
			if err := d.execute(ctx, a); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", a, err))
			}
		}
	} else if result.Confidence > d.threshold {
		outcome = Outcome{Handled: true, Stage: StageEmotion}
	} else {
		outcome = Outcome{Stage: StageNone, State: d.controller.State()}
		return outcome, nil
	}

	adaptation := d.resolver.Adapt(result.Emotion)
	outcome.Adaptation = &adaptation
	if err := d.controller.ApplyAdaptation(ctx, adaptation); err != nil {
		errs = append(errs, fmt.Errorf("adaptation %s(%d): %w", adaptation.Profile, adaptation.Intensity, err))
	}

	outcome.State = d.controller.State()
	return outcome, errors.Join(errs...)
}

// execute runs one action against the controller.
func (d *Dispatcher) execute(ctx context.Context, a command.Action) error {
	switch a.Op {
	case command.OpTurnOn:
		return d.controller.TurnOn(ctx)
	case command.OpTurnOff:
		return d.controller.TurnOff(ctx)
	case command.OpAdjustIntensity:
		return d.controller.AdjustIntensity(ctx, a.Delta)
	case command.OpSetProfile:
		return d.controller.SetProfile(ctx, a.Profile, a.Intensity)
	case command.OpMorningRoutine:
		return d.controller.MorningRoutine(ctx)
	case command.OpEveningRoutine:
		return d.controller.EveningRoutine(ctx)
	case command.OpSleepRoutine:
		return d.controller.SleepRoutine(ctx)
	case command.OpEmotionResponse:
		return d.controller.EmotionResponse(ctx, a.Emotion)
	default:
		return fmt.Errorf("%w: unknown op %q", command.ErrInvalidAction, a.Op)
	}
}

// report logs the outcome, records it and notifies listeners.
func (d *Dispatcher) report(ctx context.Context, source string, result speech.Result, outcome Outcome, dispatchErr error) {
	d.depsMu.RLock()
	repo, metrics, logger := d.history, d.metrics, d.logger
	listeners := append([]Listener(nil), d.listeners...)
	d.depsMu.RUnlock()

	deviceID := d.controller.DeviceID()
	if dispatchErr != nil {
		logger.Warn("dispatch completed with errors",
			"device_id", deviceID, "source", source, "stage", outcome.Stage, "error", dispatchErr)
	} else {
		logger.Debug("dispatch completed",
			"device_id", deviceID, "source", source, "stage", outcome.Stage, "trigger", outcome.Trigger)
	}

	if metrics != nil {
		metrics.WriteDispatch(influxdb.DispatchPoint{
			DeviceID:   deviceID,
			Source:     source,
			Stage:      string(outcome.Stage),
			Emotion:    string(result.Emotion),
			Confidence: result.Confidence,
			Handled:    outcome.Handled,
		})
	}

	if repo != nil {
		rec := &history.Record{
			DeviceID:   deviceID,
			Source:     source,
			Text:       result.Text,
			Emotion:    result.Emotion,
			Confidence: result.Confidence,
			Stage:      string(outcome.Stage),
			Handled:    outcome.Handled,
			Trigger:    outcome.Trigger,
			Actions:    outcome.Actions,
			State:      outcome.State,
		}
		if dispatchErr != nil {
			rec.Error = dispatchErr.Error()
		}
		// Record even when the request context is already cancelled.
		recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
		if err := repo.Record(recCtx, rec); err != nil {
			logger.Error("recording dispatch history failed", "device_id", deviceID, "error", err)
		}
		cancel()
	}

	if len(listeners) > 0 {
		ev := Event{
			DeviceID: deviceID,
			Source:   source,
			Result:   result,
			Outcome:  outcome,
			At:       d.now().UTC(),
		}
		if dispatchErr != nil {
			ev.Error = dispatchErr.Error()
		}
		for _, l := range listeners {
			l(ev)
		}
	}
}
