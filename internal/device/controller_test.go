package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/neuroair-core/internal/scent"
)

func TestController_InitialState(t *testing.T) {
	h := newHarness(t)

	assertState(t, h.ctrl.State(), State{PoweredOn: false, ActiveProfile: "", Intensity: 1})
	if _, ok := h.ctrl.PendingRoutine(); ok {
		t.Error("fresh controller has a pending routine")
	}
	if h.ctrl.DeviceID() != "test-device" {
		t.Errorf("DeviceID() = %q", h.ctrl.DeviceID())
	}
}

func TestController_TurnOnIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.ctrl.TurnOn(ctx); err != nil {
		t.Fatalf("TurnOn() error: %v", err)
	}
	first := h.ctrl.State()

	if err := h.ctrl.TurnOn(ctx); err != nil {
		t.Fatalf("TurnOn() error: %v", err)
	}
	assertState(t, h.ctrl.State(), first)

	if len(h.events) != 1 {
		t.Errorf("observer notified %d times, want 1", len(h.events))
	}
}

func TestController_TurnOff(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_ = h.ctrl.TurnOn(ctx)
	if err := h.ctrl.TurnOff(ctx); err != nil {
		t.Fatalf("TurnOff() error: %v", err)
	}
	if h.ctrl.State().PoweredOn {
		t.Error("PoweredOn = true after TurnOff")
	}
}

func TestController_AdjustIntensityWithoutProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.ctrl.AdjustIntensity(ctx, 3); err != nil {
		t.Fatalf("AdjustIntensity() error: %v", err)
	}
	assertState(t, h.ctrl.State(), InitialState())
	if calls := h.driver.Calls(); len(calls) != 0 {
		t.Errorf("driver called %v, want no calls", calls)
	}
}

func TestController_AdjustIntensityClamps(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.ctrl.SetProfile(ctx, "energize", nil); err != nil {
		t.Fatalf("SetProfile() error: %v", err)
	}

	tests := []struct {
		delta int
		want  int
	}{
		{1, 9},
		{5, 10},
		{-3, 7},
		{-20, 1},
		{-1, 1},
	}
	for _, tt := range tests {
		if err := h.ctrl.AdjustIntensity(ctx, tt.delta); err != nil {
			t.Fatalf("AdjustIntensity(%d) error: %v", tt.delta, err)
		}
		if got := h.ctrl.State().Intensity; got != tt.want {
			t.Errorf("after AdjustIntensity(%d) intensity = %d, want %d", tt.delta, got, tt.want)
		}
	}
}

func TestController_SetProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.ctrl.SetProfile(ctx, "relax", nil); err != nil {
		t.Fatalf("SetProfile() error: %v", err)
	}
	assertState(t, h.ctrl.State(), State{ActiveProfile: "relax", Intensity: 5})

	if err := h.ctrl.SetProfile(ctx, "calm", intPtr(42)); err != nil {
		t.Fatalf("SetProfile() error: %v", err)
	}
	assertState(t, h.ctrl.State(), State{ActiveProfile: "calm", Intensity: 10})
}

func TestController_SetProfileUnknownKeepsState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.ctrl.SetProfile(ctx, "relax", intPtr(5)); err != nil {
		t.Fatalf("SetProfile() error: %v", err)
	}

	err := h.ctrl.SetProfile(ctx, "unknown", nil)
	if !errors.Is(err, scent.ErrProfileNotFound) {
		t.Fatalf("SetProfile(unknown) = %v, want ErrProfileNotFound", err)
	}
	assertState(t, h.ctrl.State(), State{ActiveProfile: "relax", Intensity: 5})
}

func TestController_SetProfileUnknownKeepsPendingRoutine(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_ = h.ctrl.SleepRoutine(ctx)
	_ = h.ctrl.SetProfile(ctx, "unknown", nil)

	if _, ok := h.ctrl.PendingRoutine(); !ok {
		t.Error("failed SetProfile cancelled the pending routine")
	}
}

func TestController_Routines(t *testing.T) {
	tests := []struct {
		name string
		run  func(*Controller, context.Context) error
		want State
	}{
		{"morning", (*Controller).MorningRoutine, State{PoweredOn: true, ActiveProfile: "energize", Intensity: 7}},
		{"evening", (*Controller).EveningRoutine, State{PoweredOn: true, ActiveProfile: "relax", Intensity: 5}},
		{"sleep", (*Controller).SleepRoutine, State{PoweredOn: true, ActiveProfile: "sleep", Intensity: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if err := tt.run(h.ctrl, context.Background()); err != nil {
				t.Fatalf("routine error: %v", err)
			}
			assertState(t, h.ctrl.State(), tt.want)
		})
	}
}

func TestController_SleepRoutineFires(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.ctrl.SleepRoutine(ctx); err != nil {
		t.Fatalf("SleepRoutine() error: %v", err)
	}

	pending, ok := h.ctrl.PendingRoutine()
	if !ok || pending.Name != RoutineSleepOff {
		t.Fatalf("PendingRoutine() = %+v, %v", pending, ok)
	}

	timer := h.clock.Last(t)
	if timer.d != 30*time.Minute {
		t.Errorf("timer delay = %v, want 30m", timer.d)
	}

	timer.fn()

	assertState(t, h.ctrl.State(), State{PoweredOn: false, ActiveProfile: "sleep", Intensity: 3})
	if _, ok := h.ctrl.PendingRoutine(); ok {
		t.Error("routine still pending after firing")
	}
}

func TestController_SleepRoutineCancelledByTurnOn(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_ = h.ctrl.SleepRoutine(ctx)
	timer := h.clock.Last(t)

	if err := h.ctrl.TurnOn(ctx); err != nil {
		t.Fatalf("TurnOn() error: %v", err)
	}
	if !timer.stopped {
		t.Error("timer not stopped by TurnOn")
	}

	// A timer that fired concurrently with the cancel must not act.
	timer.fn()

	if !h.ctrl.State().PoweredOn {
		t.Error("device powered off by a cancelled sleep routine")
	}
}

func TestController_ExplicitOperationsCancelRoutine(t *testing.T) {
	ops := map[string]func(*Controller, context.Context) error{
		"turn_off":         (*Controller).TurnOff,
		"morning_routine":  (*Controller).MorningRoutine,
		"adjust_intensity": func(c *Controller, ctx context.Context) error { return c.AdjustIntensity(ctx, 1) },
		"set_profile":      func(c *Controller, ctx context.Context) error { return c.SetProfile(ctx, "relax", nil) },
		"emotion_response": func(c *Controller, ctx context.Context) error {
			return c.EmotionResponse(ctx, scent.EmotionSad)
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()

			_ = h.ctrl.SleepRoutine(ctx)
			if err := op(h.ctrl, ctx); err != nil {
				t.Fatalf("%s error: %v", name, err)
			}
			if _, ok := h.ctrl.PendingRoutine(); ok {
				t.Errorf("%s left the sleep routine pending", name)
			}
		})
	}
}

func TestController_ApplyAdaptationKeepsRoutine(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_ = h.ctrl.SleepRoutine(ctx)
	if err := h.ctrl.ApplyAdaptation(ctx, scent.Adaptation{Profile: "default", Intensity: 3}); err != nil {
		t.Fatalf("ApplyAdaptation() error: %v", err)
	}

	if _, ok := h.ctrl.PendingRoutine(); !ok {
		t.Error("ApplyAdaptation cancelled the pending routine")
	}
	assertState(t, h.ctrl.State(), State{PoweredOn: true, ActiveProfile: "default", Intensity: 3})

	h.clock.Last(t).fn()
	if h.ctrl.State().PoweredOn {
		t.Error("sleep routine did not power off")
	}
}

func TestController_SleepRoutineReschedules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_ = h.ctrl.SleepRoutine(ctx)
	first := h.clock.Last(t)
	_ = h.ctrl.SleepRoutine(ctx)
	second := h.clock.Last(t)

	if first == second || !first.stopped {
		t.Fatal("second sleep routine did not replace the first timer")
	}

	first.fn()
	if !h.ctrl.State().PoweredOn {
		t.Error("stale timer powered the device off")
	}
	second.fn()
	if h.ctrl.State().PoweredOn {
		t.Error("current timer did not power the device off")
	}
}

func TestController_EmotionResponse(t *testing.T) {
	tests := []struct {
		emotion scent.Emotion
		want    State
	}{
		{scent.EmotionHappy, State{ActiveProfile: "energize", Intensity: 6}},
		{scent.EmotionSad, State{ActiveProfile: "comfort", Intensity: 4}},
		{scent.EmotionAngry, State{ActiveProfile: "calm", Intensity: 5}},
		{scent.EmotionStressed, State{ActiveProfile: "relax", Intensity: 5}},
		{scent.EmotionNeutral, InitialState()},
		{scent.EmotionSurprised, InitialState()},
	}

	for _, tt := range tests {
		t.Run(string(tt.emotion), func(t *testing.T) {
			h := newHarness(t)
			if err := h.ctrl.EmotionResponse(context.Background(), tt.emotion); err != nil {
				t.Fatalf("EmotionResponse() error: %v", err)
			}
			assertState(t, h.ctrl.State(), tt.want)
		})
	}
}

func TestController_DriverFailureIsOptimistic(t *testing.T) {
	h := newHarness(t)
	h.driver.err = errBus

	err := h.ctrl.TurnOn(context.Background())
	if !errors.Is(err, ErrDriver) || !errors.Is(err, errBus) {
		t.Fatalf("TurnOn() = %v, want ErrDriver wrapping the bus error", err)
	}
	if !h.ctrl.State().PoweredOn {
		t.Error("state rolled back after driver failure")
	}
}

func TestController_RoutineContinuesAfterDriverFailure(t *testing.T) {
	h := newHarness(t)
	h.driver.err = errBus

	err := h.ctrl.EveningRoutine(context.Background())
	if !errors.Is(err, ErrDriver) {
		t.Fatalf("EveningRoutine() = %v, want ErrDriver", err)
	}
	assertState(t, h.ctrl.State(), State{PoweredOn: true, ActiveProfile: "relax", Intensity: 5})

	calls := h.driver.Calls()
	if len(calls) != 2 || calls[0] != "on" || calls[1] != "profile:relax:5" {
		t.Errorf("driver calls = %v", calls)
	}
}

func TestController_DefaultConfig(t *testing.T) {
	catalog, _ := scent.NewCatalog(scent.DefaultProfiles()...)
	c := NewController(Config{}, catalog, &mockDriver{})

	if c.DeviceID() != DefaultDeviceID {
		t.Errorf("DeviceID() = %q, want %q", c.DeviceID(), DefaultDeviceID)
	}
	if c.sleepDelay != DefaultSleepDelay {
		t.Errorf("sleepDelay = %v, want %v", c.sleepDelay, DefaultSleepDelay)
	}
}
