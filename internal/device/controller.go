package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/neuroair-core/internal/scent"
)

// Controller defaults.
const (
	DefaultDeviceID      = "neuroair-1"
	DefaultSleepDelay    = 30 * time.Minute
	defaultDriverTimeout = 10 * time.Second
)

// Routine and profile names used by the built-in routines.
const (
	RoutineSleepOff = "sleep_off"

	ProfileSleep    = "sleep"
	ProfileEnergize = "energize"
	ProfileRelax    = "relax"
	ProfileComfort  = "comfort"
	ProfileCalm     = "calm"
)

// emotionResponses maps an explicitly announced emotion onto a profile
// and intensity. Emotions not listed are ignored.
var emotionResponses = map[scent.Emotion]scent.Adaptation{
	scent.EmotionHappy:    {Profile: ProfileEnergize, Intensity: 6},
	scent.EmotionSad:      {Profile: ProfileComfort, Intensity: 4},
	scent.EmotionAngry:    {Profile: ProfileCalm, Intensity: 5},
	scent.EmotionStressed: {Profile: ProfileRelax, Intensity: 5},
}

// Config configures a Controller.
type Config struct {
	// DeviceID identifies the appliance to the driver. Default: "neuroair-1".
	DeviceID string

	// SleepDelay is how long the sleep routine keeps the device on.
	// Default: 30 minutes.
	SleepDelay time.Duration

	// Scheduler runs timed routines. Default: NewScheduler(nil).
	Scheduler *Scheduler
}

// Controller is the single owner of one appliance's State.
//
// Operations are serialised by opMu, which is held across driver calls
// so commands reach the appliance in the order their state changes were
// made. mu guards only the state and observers, so State never waits on
// the driver.
//
// All public methods are thread-safe.
type Controller struct {
	deviceID   string
	sleepDelay time.Duration
	catalog    *scent.Catalog
	driver     Driver
	scheduler  *Scheduler

	opMu   sync.Mutex
	logger Logger

	mu        sync.Mutex
	state     State
	observers []Observer
}

// NewController creates a controller in InitialState.
//
// Parameters:
//   - cfg: Device id, sleep delay and optional scheduler
//   - catalog: Profiles that SetProfile may select
//   - driver: Appliance driver; state changes are forwarded to it
//
// Returns:
//   - *Controller: Controller ready for use
func NewController(cfg Config, catalog *scent.Catalog, driver Driver) *Controller {
	if cfg.DeviceID == "" {
		cfg.DeviceID = DefaultDeviceID
	}
	if cfg.SleepDelay <= 0 {
		cfg.SleepDelay = DefaultSleepDelay
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = NewScheduler(nil)
	}
	return &Controller{
		deviceID:   cfg.DeviceID,
		sleepDelay: cfg.SleepDelay,
		catalog:    catalog,
		driver:     driver,
		scheduler:  cfg.Scheduler,
		state:      InitialState(),
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.logger = logger
}

// AddObserver registers o for state change notifications.
func (c *Controller) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// DeviceID returns the appliance identifier.
func (c *Controller) DeviceID() string {
	return c.deviceID
}

// Catalog returns the profile catalog.
func (c *Controller) Catalog() *scent.Catalog {
	return c.catalog
}

// State returns a copy of the current state. It does not wait for an
// in-flight driver call.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PendingRoutine returns the scheduled routine step, if any.
func (c *Controller) PendingRoutine() (PendingRoutine, bool) {
	return c.scheduler.Pending(c.deviceID)
}

// TurnOn powers the device on and cancels any pending routine.
func (c *Controller) TurnOn(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.cancelPendingLocked()
	return c.turnOnLocked(ctx)
}

// TurnOff powers the device off and cancels any pending routine.
func (c *Controller) TurnOff(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.cancelPendingLocked()
	return c.turnOffLocked(ctx)
}

// AdjustIntensity changes intensity by delta, clamped to [1,10].
// It is a no-op while no profile is active.
func (c *Controller) AdjustIntensity(ctx context.Context, delta int) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.cancelPendingLocked()

	if !c.State().HasProfile() {
		c.logger.Debug("intensity adjustment ignored, no active profile", "delta", delta)
		return nil
	}

	after := c.update(func(s *State) {
		s.Intensity = scent.ClampIntensity(s.Intensity + delta)
	})

	c.logger.Debug("intensity adjusted", "delta", delta, "intensity", after.Intensity)
	return c.drive(c.driver.AdjustIntensity(ctx, c.deviceID, delta, after.Intensity))
}

// SetProfile activates a profile from the catalog.
//
// When intensity is nil the profile's base intensity is used; otherwise
// the given value is clamped to [1,10]. An unknown profile returns
// scent.ErrProfileNotFound and leaves state, including any pending
// routine, unchanged.
func (c *Controller) SetProfile(ctx context.Context, name string, intensity *int) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	profile, err := c.lookupLocked(name)
	if err != nil {
		return err
	}

	c.cancelPendingLocked()
	return c.applyProfileLocked(ctx, profile, intensity)
}

// ApplyAdaptation applies the emotion adaptation chosen after a
// recognition result. Unlike SetProfile it does not cancel a pending
// routine.
func (c *Controller) ApplyAdaptation(ctx context.Context, a scent.Adaptation) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	profile, err := c.lookupLocked(a.Profile)
	if err != nil {
		return err
	}

	intensity := a.Intensity
	return c.applyProfileLocked(ctx, profile, &intensity)
}

// MorningRoutine turns the device on with the energize profile at 7.
func (c *Controller) MorningRoutine(ctx context.Context) error {
	return c.routine(ctx, "morning", ProfileEnergize, 7)
}

// EveningRoutine turns the device on with the relax profile at 5.
func (c *Controller) EveningRoutine(ctx context.Context) error {
	return c.routine(ctx, "evening", ProfileRelax, 5)
}

// SleepRoutine turns the device on with the sleep profile at 3 and
// schedules a power-off after the configured sleep delay.
func (c *Controller) SleepRoutine(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	err := c.routineLocked(ctx, "sleep", ProfileSleep, 3)

	c.scheduler.Schedule(c.deviceID, RoutineSleepOff, c.sleepDelay, c.sleepTimerFired)
	c.logger.Info("sleep routine scheduled power-off", "device_id", c.deviceID, "delay", c.sleepDelay)

	return err
}

// EmotionResponse selects the profile associated with an explicitly
// announced emotion. Emotions without a response are a no-op.
func (c *Controller) EmotionResponse(ctx context.Context, emotion scent.Emotion) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	resp, ok := emotionResponses[emotion]
	if !ok {
		c.logger.Debug("no response for emotion", "emotion", emotion)
		return nil
	}

	profile, err := c.lookupLocked(resp.Profile)
	if err != nil {
		return err
	}

	c.cancelPendingLocked()
	return c.applyProfileLocked(ctx, profile, &resp.Intensity)
}

func (c *Controller) routine(ctx context.Context, name, profile string, intensity int) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.routineLocked(ctx, name, profile, intensity)
}

// routineLocked runs turn-on followed by set-profile. A failing step does
// not stop the next one; errors are joined.
func (c *Controller) routineLocked(ctx context.Context, name, profileName string, intensity int) error {
	c.cancelPendingLocked()

	c.logger.Info("running routine", "routine", name, "device_id", c.deviceID)

	onErr := c.turnOnLocked(ctx)

	profile, err := c.lookupLocked(profileName)
	if err != nil {
		return errors.Join(onErr, err)
	}
	return errors.Join(onErr, c.applyProfileLocked(ctx, profile, &intensity))
}

// sleepTimerFired is the scheduler callback for the sleep routine. An
// operation that cancelled the routine before the callback acquired
// opMu invalidates token, so a late callback never powers off.
func (c *Controller) sleepTimerFired(token uint64) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if !c.scheduler.Complete(c.deviceID, token) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultDriverTimeout)
	defer cancel()

	c.logger.Info("sleep routine powering off", "device_id", c.deviceID)
	if err := c.turnOffLocked(ctx); err != nil {
		c.logger.Error("sleep routine power-off failed", "device_id", c.deviceID, "error", err)
	}
}

// Methods suffixed Locked expect opMu to be held.

func (c *Controller) cancelPendingLocked() {
	if c.scheduler.Cancel(c.deviceID) {
		c.logger.Info("pending routine cancelled", "device_id", c.deviceID)
	}
}

func (c *Controller) lookupLocked(name string) (scent.Profile, error) {
	profile, err := c.catalog.Get(name)
	if err != nil {
		c.logger.Warn("profile not found, state unchanged", "profile", name)
		return scent.Profile{}, err
	}
	return profile, nil
}

func (c *Controller) turnOnLocked(ctx context.Context) error {
	c.update(func(s *State) { s.PoweredOn = true })
	return c.drive(c.driver.TurnOn(ctx, c.deviceID))
}

func (c *Controller) turnOffLocked(ctx context.Context) error {
	c.update(func(s *State) { s.PoweredOn = false })
	return c.drive(c.driver.TurnOff(ctx, c.deviceID))
}

func (c *Controller) applyProfileLocked(ctx context.Context, profile scent.Profile, intensity *int) error {
	level := profile.BaseIntensity
	if intensity != nil {
		level = *intensity
	}
	level = scent.ClampIntensity(level)

	c.update(func(s *State) {
		s.ActiveProfile = profile.Name
		s.Intensity = level
	})

	c.logger.Debug("profile applied", "profile", profile.Name, "intensity", level)
	return c.drive(c.driver.SetProfile(ctx, c.deviceID, profile.Name, level))
}

// update applies fn to the state under mu and notifies observers when
// the state changed. It returns the new state.
func (c *Controller) update(fn func(s *State)) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.state
	fn(&c.state)
	if c.state != before {
		for _, o := range c.observers {
			o.StateChanged(c.deviceID, c.state)
		}
	}
	return c.state
}

func (c *Controller) drive(err error) error {
	if err == nil {
		return nil
	}
	c.logger.Error("device driver failed", "device_id", c.deviceID, "error", err)
	return fmt.Errorf("%w: %w", ErrDriver, err)
}
