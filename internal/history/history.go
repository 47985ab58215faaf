package history

import (
	"context"
	"time"

	"github.com/nerrad567/neuroair-core/internal/command"
	"github.com/nerrad567/neuroair-core/internal/device"
	"github.com/nerrad567/neuroair-core/internal/scent"
)

// Record sources.
const (
	SourceAPI           = "api"
	SourceMQTT          = "mqtt"
	SourceYandex        = "yandex"
	SourceGoogle        = "google"
	SourceHomeAssistant = "home_assistant"
)

// Record is one dispatched recognition result.
type Record struct {
	ID       string `json:"id"`
	DeviceID string `json:"device_id"`

	// Source identifies where the utterance came from (api, mqtt, yandex, ...).
	Source string `json:"source"`

	Text       string        `json:"text"`
	Emotion    scent.Emotion `json:"emotion"`
	Confidence float64       `json:"confidence"`

	// Stage is the resolution stage that handled the result
	// (command, scene, emotion or none).
	Stage   string           `json:"stage"`
	Handled bool             `json:"handled"`
	Trigger string           `json:"trigger,omitempty"`
	Actions []command.Action `json:"actions"`

	// State is the device state after dispatch.
	State device.State `json:"state"`

	// Error is set when an action or the driver failed.
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Repository stores and retrieves dispatch records.
//
// Implementations must be thread-safe and use UTC timestamps.
type Repository interface {
	// Record persists r, assigning ID and CreatedAt when empty.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - r: Record to persist; ID and CreatedAt are filled in place
	//
	// Returns:
	//   - error: nil on success, otherwise the underlying persistence error
	Record(ctx context.Context, r *Record) error

	// List returns the most recent records for a device, newest first.
	List(ctx context.Context, deviceID string, limit int) ([]Record, error)
}
