package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/nerrad567/neuroair-core/internal/history"
	"github.com/nerrad567/neuroair-core/internal/scent"
)

// Google smart home intents.
const (
	IntentSync       = "action.devices.SYNC"
	IntentQuery      = "action.devices.QUERY"
	IntentExecute    = "action.devices.EXECUTE"
	IntentDisconnect = "action.devices.DISCONNECT"
)

// Google execution commands.
const (
	CommandOnOff       = "action.devices.commands.OnOff"
	CommandStartStop   = "action.devices.commands.StartStop"
	CommandSetModes    = "action.devices.commands.SetModes"
	CommandSetFanSpeed = "action.devices.commands.SetFanSpeed"
	CommandSetToggles  = "action.devices.commands.SetToggles"

	// CommandVoice carries a transcribed phrase or audio from a custom
	// conversational action.
	CommandVoice = "com.neuroair.commands.Voice"
)

const (
	googleDeviceType = "action.devices.types.AIRFRESHENER"
	googleModeName   = "profile"
	googleToggleName = "sleep_routine"
	googleSensorName = "Emotion"
	googleLang       = "ru"

	statusSuccess = "SUCCESS"
	statusError   = "ERROR"
)

var googleTraits = []string{
	"action.devices.traits.OnOff",
	"action.devices.traits.StartStop",
	"action.devices.traits.Toggles",
	"action.devices.traits.Modes",
	"action.devices.traits.FanSpeed",
	"action.devices.traits.SensorState",
}

// GoogleDeviceInfo describes the appliance in SYNC responses.
type GoogleDeviceInfo struct {
	Name         string
	RoomHint     string
	AgentUserID  string
	Manufacturer string
	Model        string
	HWVersion    string
	SWVersion    string
}

// GoogleRequest is a fulfillment request.
type GoogleRequest struct {
	RequestID string        `json:"requestId"`
	Inputs    []GoogleInput `json:"inputs"`
}

// GoogleInput is one intent with its payload.
type GoogleInput struct {
	Intent  string `json:"intent"`
	Payload struct {
		Devices  []GoogleDeviceRef `json:"devices,omitempty"`
		Commands []GoogleCommand   `json:"commands,omitempty"`
	} `json:"payload"`
}

// GoogleDeviceRef identifies a device in QUERY and EXECUTE.
type GoogleDeviceRef struct {
	ID string `json:"id"`
}

// GoogleCommand applies executions to devices.
type GoogleCommand struct {
	Devices   []GoogleDeviceRef `json:"devices"`
	Execution []GoogleExecution `json:"execution"`
}

// GoogleExecution is one command with its parameters.
type GoogleExecution struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params"`
}

type googleParams struct {
	On                   *bool             `json:"on,omitempty"`
	Start                *bool             `json:"start,omitempty"`
	UpdateModeSettings   map[string]string `json:"updateModeSettings,omitempty"`
	FanSpeed             string            `json:"fanSpeed,omitempty"`
	UpdateToggleSettings map[string]bool   `json:"updateToggleSettings,omitempty"`
	Text                 string            `json:"text,omitempty"`
	Audio                string            `json:"audio,omitempty"`
}

// GoogleResponse is a fulfillment response.
type GoogleResponse struct {
	RequestID string `json:"requestId"`
	Payload   any    `json:"payload"`
}

// GoogleCommandResult reports the result of one EXECUTE command.
type GoogleCommandResult struct {
	IDs       []string       `json:"ids"`
	Status    string         `json:"status"`
	States    map[string]any `json:"states,omitempty"`
	ErrorCode string         `json:"errorCode,omitempty"`
}

// Google handles Google Home smart home fulfillment.
type Google struct {
	engine Engine
	info   GoogleDeviceInfo
	opts   Options
}

// NewGoogle creates the Google Home adapter.
func NewGoogle(engine Engine, info GoogleDeviceInfo, opts Options) *Google {
	if info.Manufacturer == "" {
		info.Manufacturer = "NeuroAIR"
	}
	if info.Model == "" {
		info.Model = "NA-2023"
	}
	if info.HWVersion == "" {
		info.HWVersion = "1.0"
	}
	return &Google{engine: engine, info: info, opts: opts}
}

// Name implements Adapter.
func (g *Google) Name() string { return history.SourceGoogle }

// HandleRequest implements Adapter. Only the first input is processed,
// as Google sends one intent per request.
func (g *Google) HandleRequest(ctx context.Context, payload []byte) ([]byte, error) {
	var req GoogleRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if len(req.Inputs) == 0 {
		return nil, fmt.Errorf("%w: no inputs", ErrInvalidRequest)
	}

	resp := GoogleResponse{RequestID: req.RequestID}
	input := req.Inputs[0]
	switch input.Intent {
	case IntentSync:
		resp.Payload = g.sync()
	case IntentQuery:
		resp.Payload = g.query(input.Payload.Devices)
	case IntentExecute:
		resp.Payload = map[string]any{"commands": g.execute(ctx, input.Payload.Commands)}
	case IntentDisconnect:
		resp.Payload = map[string]any{}
	default:
		resp.Payload = map[string]any{"errorCode": "notSupported"}
	}
	return json.Marshal(resp)
}

func (g *Google) sync() map[string]any {
	profiles := g.engine.Profiles()
	settings := make([]map[string]any, 0, len(profiles))
	for _, p := range profiles {
		settings = append(settings, map[string]any{
			"setting_name":   p,
			"setting_values": []map[string]any{{"setting_synonym": []string{p}, "lang": googleLang}},
		})
	}

	speeds := make([]map[string]any, 0, scent.MaxIntensity)
	for i := scent.MinIntensity; i <= scent.MaxIntensity; i++ {
		s := strconv.Itoa(i)
		speeds = append(speeds, map[string]any{
			"speed_name":   s,
			"speed_values": []map[string]any{{"speed_synonym": []string{s}, "lang": googleLang}},
		})
	}

	emotions := make([]string, 0, len(scent.AllEmotions()))
	for _, e := range scent.AllEmotions() {
		emotions = append(emotions, string(e))
	}

	return map[string]any{
		"agentUserId": g.info.AgentUserID,
		"devices": []map[string]any{{
			"id":              g.engine.DeviceID(),
			"type":            googleDeviceType,
			"traits":          googleTraits,
			"name":            map[string]any{"name": g.info.Name},
			"willReportState": true,
			"roomHint":        g.info.RoomHint,
			"deviceInfo": map[string]any{
				"manufacturer": g.info.Manufacturer,
				"model":        g.info.Model,
				"hwVersion":    g.info.HWVersion,
				"swVersion":    g.info.SWVersion,
			},
			"attributes": map[string]any{
				"pausable": false,
				"availableModes": []map[string]any{{
					"name":        googleModeName,
					"name_values": []map[string]any{{"name_synonym": []string{"профиль", "аромат"}, "lang": googleLang}},
					"settings":    settings,
					"ordered":     false,
				}},
				"availableFanSpeeds": map[string]any{"speeds": speeds, "ordered": true},
				"availableToggles": []map[string]any{{
					"name":        googleToggleName,
					"name_values": []map[string]any{{"name_synonym": []string{"режим сна"}, "lang": googleLang}},
				}},
				"sensorStatesSupported": []map[string]any{{
					"name":                    googleSensorName,
					"descriptiveCapabilities": map[string]any{"availableStates": emotions},
				}},
			},
		}},
	}
}

func (g *Google) query(devices []GoogleDeviceRef) map[string]any {
	out := make(map[string]any, len(devices))
	for _, d := range devices {
		if d.ID != g.engine.DeviceID() {
			out[d.ID] = map[string]any{"online": false, "status": statusError, "errorCode": "deviceNotFound"}
			continue
		}
		states := g.states()
		states["status"] = statusSuccess
		out[d.ID] = states
	}
	return map[string]any{"devices": out}
}

// states returns the device state in Google trait terms.
func (g *Google) states() map[string]any {
	state := g.engine.State()
	_, pending := g.engine.PendingRoutine()

	emotion := scent.EmotionNeutral
	if last, ok := g.engine.LastResult(); ok {
		emotion = last.Result.Emotion
	}

	states := map[string]any{
		"online":                 true,
		"on":                     state.PoweredOn,
		"isRunning":              state.PoweredOn,
		"isPaused":               false,
		"currentFanSpeedSetting": strconv.Itoa(state.Intensity),
		"currentToggleSettings":  map[string]bool{googleToggleName: pending},
		"currentSensorStateData": []map[string]any{{
			"name":               googleSensorName,
			"currentSensorState": string(emotion),
		}},
	}
	if state.HasProfile() {
		states["currentModeSettings"] = map[string]string{googleModeName: state.ActiveProfile}
	}
	return states
}

func (g *Google) execute(ctx context.Context, commands []GoogleCommand) []GoogleCommandResult {
	deviceID := g.engine.DeviceID()
	var results []GoogleCommandResult

	for _, cmd := range commands {
		var ids, unknown []string
		for _, d := range cmd.Devices {
			if d.ID == deviceID {
				ids = append(ids, d.ID)
			} else {
				unknown = append(unknown, d.ID)
			}
		}
		if len(unknown) > 0 {
			results = append(results, GoogleCommandResult{IDs: unknown, Status: statusError, ErrorCode: "deviceNotFound"})
		}
		if len(ids) == 0 {
			continue
		}

		result := GoogleCommandResult{IDs: ids, Status: statusSuccess}
		for _, exec := range cmd.Execution {
			if err := g.run(ctx, exec); err != nil {
				g.opts.logger().Warn("google: execution failed", "command", exec.Command, "error", err)
				result.Status = statusError
				result.ErrorCode = googleErrorCode(err)
				break
			}
		}
		result.States = g.states()
		results = append(results, result)
	}
	return results
}

var errNotSupported = errors.New("function not supported")

func (g *Google) run(ctx context.Context, exec GoogleExecution) error {
	var p googleParams
	if len(exec.Params) > 0 {
		if err := json.Unmarshal(exec.Params, &p); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}

	if exec.Command == CommandVoice || p.Text != "" || p.Audio != "" {
		stream, err := g.opts.voiceStream(ctx, p.Text, p.Audio)
		if err != nil {
			return err
		}
		_, err = g.engine.DispatchStream(ctx, stream, g.Name())
		return err
	}

	switch exec.Command {
	case CommandOnOff, CommandStartStop:
		on := p.On
		if exec.Command == CommandStartStop {
			on = p.Start
		}
		if on == nil {
			return fmt.Errorf("%w: missing on/start", ErrInvalidRequest)
		}
		if *on {
			return g.engine.TurnOn(ctx)
		}
		return g.engine.TurnOff(ctx)

	case CommandSetModes:
		name, ok := p.UpdateModeSettings[googleModeName]
		if !ok {
			return fmt.Errorf("%w: missing %s mode", ErrInvalidRequest, googleModeName)
		}
		return g.engine.SetProfile(ctx, name, nil)

	case CommandSetFanSpeed:
		target, err := strconv.Atoi(p.FanSpeed)
		if err != nil {
			return fmt.Errorf("%w: fan speed %q", ErrInvalidRequest, p.FanSpeed)
		}
		state := g.engine.State()
		if !state.HasProfile() {
			return g.engine.SetProfile(ctx, scent.DefaultProfileName, &target)
		}
		return g.engine.AdjustIntensity(ctx, scent.ClampIntensity(target)-state.Intensity)

	case CommandSetToggles:
		on, ok := p.UpdateToggleSettings[googleToggleName]
		if !ok {
			return fmt.Errorf("%w: missing %s toggle", ErrInvalidRequest, googleToggleName)
		}
		if on {
			return g.engine.SleepRoutine(ctx)
		}
		// Off cancels the pending power-off and keeps the device running.
		if _, pending := g.engine.PendingRoutine(); pending {
			return g.engine.TurnOn(ctx)
		}
		return nil

	default:
		return fmt.Errorf("%w: %s", errNotSupported, exec.Command)
	}
}

func googleErrorCode(err error) string {
	switch {
	case errors.Is(err, errNotSupported):
		return "functionNotSupported"
	case errors.Is(err, scent.ErrProfileNotFound), errors.Is(err, ErrInvalidRequest):
		return "valueOutOfRange"
	default:
		return "hardError"
	}
}
