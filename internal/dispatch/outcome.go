package dispatch

import (
	"time"

	"github.com/nerrad567/neuroair-core/internal/command"
	"github.com/nerrad567/neuroair-core/internal/device"
	"github.com/nerrad567/neuroair-core/internal/scent"
	"github.com/nerrad567/neuroair-core/internal/speech"
)

// Stage names the resolution stage that handled a result.
type Stage string

// Resolution stages, in precedence order.
const (
	StageCommand Stage = "command"
	StageScene   Stage = "scene"
	StageEmotion Stage = "emotion"
	StageNone    Stage = "none"
)

// Outcome describes what one dispatch did.
type Outcome struct {
	// Handled is false only for StageNone.
	Handled bool  `json:"handled"`
	Stage   Stage `json:"stage"`

	// Trigger is the matched command trigger or scene name.
	Trigger string `json:"trigger,omitempty"`

	// Actions lists the actions that were run, in order.
	Actions []command.Action `json:"actions,omitempty"`

	// Adaptation is the emotion adaptation that was applied, if any.
	Adaptation *scent.Adaptation `json:"adaptation,omitempty"`

	// State is the device state after dispatch.
	State device.State `json:"state"`
}

// Event is announced to listeners after every dispatch.
type Event struct {
	DeviceID string        `json:"device_id"`
	Source   string        `json:"source"`
	Result   speech.Result `json:"result"`
	Outcome  Outcome       `json:"outcome"`
	Error    string        `json:"error,omitempty"`
	At       time.Time     `json:"at"`
}

// Listener receives dispatch events. Listeners run after the dispatcher
// lock is released, on the dispatching goroutine.
type Listener func(Event)

// LastResult is the most recently dispatched recognition result.
type LastResult struct {
	Result speech.Result `json:"result"`
	Source string        `json:"source"`
	At     time.Time     `json:"at"`
}
