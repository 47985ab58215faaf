package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/neuroair-core/internal/history"
	"github.com/nerrad567/neuroair-core/internal/scent"
)

// Home Assistant entity ids.
const (
	EntitySwitch  = "switch.neuroair"
	EntityEmotion = "sensor.neuroair_emotion"
)

// Home Assistant services.
const (
	ServiceTurnOn          = "turn_on"
	ServiceTurnOff         = "turn_off"
	ServiceSetProfile      = "set_profile"
	ServiceAdjustIntensity = "adjust_intensity"
	ServiceProcessAudio    = "process_audio"
)

// ErrUnknownService is reported for services the device does not offer.
var ErrUnknownService = errors.New("platform: unknown service")

// HomeAssistantRequest is a service call forwarded by the integration.
type HomeAssistantRequest struct {
	Service string                `json:"service"`
	Data    HomeAssistantCallData `json:"data"`
}

// HomeAssistantCallData holds the parameters of all services.
type HomeAssistantCallData struct {
	Profile   string `json:"profile,omitempty"`
	Intensity *int   `json:"intensity,omitempty"`
	Delta     int    `json:"delta,omitempty"`
	Text      string `json:"text,omitempty"`
	Audio     string `json:"audio,omitempty"`
}

// HomeAssistantResponse answers a service call.
type HomeAssistantResponse struct {
	Success  bool                     `json:"success"`
	Handled  *bool                    `json:"handled,omitempty"`
	Error    string                   `json:"error,omitempty"`
	Entities map[string]EntityPayload `json:"entities"`
}

// EntityPayload is one Home Assistant entity.
type EntityPayload struct {
	Name       string         `json:"name"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// HomeAssistant handles calls from the NeuroAIR Home Assistant
// integration.
type HomeAssistant struct {
	engine Engine
	opts   Options
	name   string
}

// NewHomeAssistant creates the Home Assistant adapter. name is the
// friendly name of the switch entity.
func NewHomeAssistant(engine Engine, name string, opts Options) *HomeAssistant {
	if name == "" {
		name = "NeuroAIR"
	}
	return &HomeAssistant{engine: engine, opts: opts, name: name}
}

// Name implements Adapter.
func (h *HomeAssistant) Name() string { return history.SourceHomeAssistant }

// HandleRequest implements Adapter. The response always carries the
// entity states after the call.
func (h *HomeAssistant) HandleRequest(ctx context.Context, payload []byte) ([]byte, error) {
	var req HomeAssistantRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	resp := HomeAssistantResponse{Success: true}
	handled, err := h.call(ctx, req)
	if err != nil {
		h.opts.logger().Warn("home assistant: service call failed", "service", req.Service, "error", err)
		resp.Success = false
		resp.Error = err.Error()
	}
	resp.Handled = handled
	resp.Entities = h.Entities()
	return json.Marshal(resp)
}

func (h *HomeAssistant) call(ctx context.Context, req HomeAssistantRequest) (*bool, error) {
	switch req.Service {
	case ServiceTurnOn:
		return nil, h.engine.TurnOn(ctx)
	case ServiceTurnOff:
		return nil, h.engine.TurnOff(ctx)
	case ServiceSetProfile:
		if req.Data.Profile == "" {
			return nil, fmt.Errorf("%w: profile is required", scent.ErrProfileNotFound)
		}
		return nil, h.engine.SetProfile(ctx, req.Data.Profile, req.Data.Intensity)
	case ServiceAdjustIntensity:
		return nil, h.engine.AdjustIntensity(ctx, req.Data.Delta)
	case ServiceProcessAudio:
		stream, err := h.opts.voiceStream(ctx, req.Data.Text, req.Data.Audio)
		if err != nil {
			return nil, err
		}
		outcome, err := h.engine.DispatchStream(ctx, stream, h.Name())
		return &outcome.Handled, err
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, req.Service)
	}
}

// Entities returns the current switch and emotion sensor entities.
func (h *HomeAssistant) Entities() map[string]EntityPayload {
	state := h.engine.State()

	power := "off"
	if state.PoweredOn {
		power = "on"
	}
	var profile any
	if state.HasProfile() {
		profile = state.ActiveProfile
	}

	emotion := scent.EmotionNeutral
	var confidence float64
	var lastUpdated any
	if last, ok := h.engine.LastResult(); ok {
		emotion = last.Result.Emotion
		confidence = last.Result.Confidence
		lastUpdated = last.At.Format(time.RFC3339)
	}

	switchAttrs := map[string]any{
		"intensity":          state.Intensity,
		"current_profile":    profile,
		"available_profiles": h.engine.Profiles(),
		"emotion_status":     string(emotion),
	}
	if pending, ok := h.engine.PendingRoutine(); ok {
		switchAttrs["pending_routine"] = pending.Name
		switchAttrs["pending_due"] = pending.Due.UTC().Format(time.RFC3339)
	}

	return map[string]EntityPayload{
		EntitySwitch: {
			Name:       h.name,
			State:      power,
			Attributes: switchAttrs,
		},
		EntityEmotion: {
			Name:  h.name + " Emotion",
			State: string(emotion),
			Attributes: map[string]any{
				"confidence":   confidence,
				"last_updated": lastUpdated,
			},
		},
	}
}
