package command

import (
	"fmt"
	"strconv"

	"github.com/nerrad567/neuroair-core/internal/scent"
)

// Op identifies a device operation.
type Op string

const (
	OpTurnOn          Op = "turn_on"
	OpTurnOff         Op = "turn_off"
	OpAdjustIntensity Op = "adjust_intensity"
	OpSetProfile      Op = "set_profile"
	OpMorningRoutine  Op = "morning_routine"
	OpEveningRoutine  Op = "evening_routine"
	OpSleepRoutine    Op = "sleep_routine"
	OpEmotionResponse Op = "emotion_response"
)

// AllOps returns every supported operation.
func AllOps() []Op {
	return []Op{
		OpTurnOn,
		OpTurnOff,
		OpAdjustIntensity,
		OpSetProfile,
		OpMorningRoutine,
		OpEveningRoutine,
		OpSleepRoutine,
		OpEmotionResponse,
	}
}

// Action is one device operation with its parameters.
//
// Only the fields relevant to Op are used:
//
//	adjust_intensity   Delta
//	set_profile        Profile, Intensity (optional; nil = profile base)
//	emotion_response   Emotion
type Action struct {
	Op        Op            `json:"op" yaml:"op"`
	Delta     int           `json:"delta,omitempty" yaml:"delta,omitempty"`
	Profile   string        `json:"profile,omitempty" yaml:"profile,omitempty"`
	Intensity *int          `json:"intensity,omitempty" yaml:"intensity,omitempty"`
	Emotion   scent.Emotion `json:"emotion,omitempty" yaml:"emotion,omitempty"`
}

// TurnOn returns a turn_on action.
func TurnOn() Action { return Action{Op: OpTurnOn} }

// TurnOff returns a turn_off action.
func TurnOff() Action { return Action{Op: OpTurnOff} }

// AdjustIntensity returns an adjust_intensity action.
func AdjustIntensity(delta int) Action {
	return Action{Op: OpAdjustIntensity, Delta: delta}
}

// SetProfile returns a set_profile action at the profile's base intensity.
func SetProfile(name string) Action {
	return Action{Op: OpSetProfile, Profile: name}
}

// SetProfileAt returns a set_profile action with an explicit intensity.
func SetProfileAt(name string, intensity int) Action {
	return Action{Op: OpSetProfile, Profile: name, Intensity: &intensity}
}

// MorningRoutine returns a morning_routine action.
func MorningRoutine() Action { return Action{Op: OpMorningRoutine} }

// EveningRoutine returns an evening_routine action.
func EveningRoutine() Action { return Action{Op: OpEveningRoutine} }

// SleepRoutine returns a sleep_routine action.
func SleepRoutine() Action { return Action{Op: OpSleepRoutine} }

// EmotionResponse returns an emotion_response action.
func EmotionResponse(e scent.Emotion) Action {
	return Action{Op: OpEmotionResponse, Emotion: e}
}

// Validate checks that the action's operation is known and its
// parameters are usable.
func (a Action) Validate() error {
	switch a.Op {
	case OpTurnOn, OpTurnOff, OpMorningRoutine, OpEveningRoutine, OpSleepRoutine:
		return nil
	case OpAdjustIntensity:
		if a.Delta == 0 {
			return fmt.Errorf("%w: adjust_intensity requires a non-zero delta", ErrInvalidAction)
		}
		return nil
	case OpSetProfile:
		if a.Profile == "" {
			return fmt.Errorf("%w: set_profile requires a profile", ErrInvalidAction)
		}
		if a.Intensity != nil && (*a.Intensity < scent.MinIntensity || *a.Intensity > scent.MaxIntensity) {
			return fmt.Errorf("%w: intensity %d outside %d-%d",
				ErrInvalidAction, *a.Intensity, scent.MinIntensity, scent.MaxIntensity)
		}
		return nil
	case OpEmotionResponse:
		if !a.Emotion.Valid() {
			return fmt.Errorf("%w: emotion_response requires a known emotion, got %q", ErrInvalidAction, a.Emotion)
		}
		return nil
	case "":
		return fmt.Errorf("%w: op is required", ErrInvalidAction)
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidAction, a.Op)
	}
}

// String renders the action for logs, e.g. "set_profile(relax, 5)".
func (a Action) String() string {
	switch a.Op {
	case OpAdjustIntensity:
		return fmt.Sprintf("%s(%+d)", a.Op, a.Delta)
	case OpSetProfile:
		if a.Intensity != nil {
			return fmt.Sprintf("%s(%s, %s)", a.Op, a.Profile, strconv.Itoa(*a.Intensity))
		}
		return fmt.Sprintf("%s(%s)", a.Op, a.Profile)
	case OpEmotionResponse:
		return fmt.Sprintf("%s(%s)", a.Op, a.Emotion)
	default:
		return string(a.Op)
	}
}

// clone returns a copy that shares no pointers with a.
func (a Action) clone() Action {
	if a.Intensity != nil {
		v := *a.Intensity
		a.Intensity = &v
	}
	return a
}
