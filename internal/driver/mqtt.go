package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/neuroair-core/internal/device"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/mqtt"
)

// Command names sent to the firmware.
const (
	CommandTurnOn          = "turn_on"
	CommandTurnOff         = "turn_off"
	CommandSetProfile      = "set_profile"
	CommandAdjustIntensity = "adjust_intensity"
)

// SourceCore identifies commands originated by this service.
const SourceCore = "neuroair-core"

// Publisher is the subset of *mqtt.Client used by the drivers.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// Command is the JSON message published on the command topic.
type Command struct {
	ID         string         `json:"id"`
	DeviceID   string         `json:"device_id"`
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Source     string         `json:"source"`
	Timestamp  time.Time      `json:"timestamp"`
}

// MQTTDriver publishes appliance commands over MQTT.
type MQTTDriver struct {
	pub   Publisher
	newID func() string
	now   func() time.Time
}

// NewMQTTDriver creates a driver publishing through pub.
func NewMQTTDriver(pub Publisher) *MQTTDriver {
	return &MQTTDriver{
		pub:   pub,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// TurnOn implements device.Driver.
func (d *MQTTDriver) TurnOn(ctx context.Context, deviceID string) error {
	return d.send(ctx, deviceID, CommandTurnOn, nil)
}

// TurnOff implements device.Driver.
func (d *MQTTDriver) TurnOff(ctx context.Context, deviceID string) error {
	return d.send(ctx, deviceID, CommandTurnOff, nil)
}

// SetProfile implements device.Driver.
func (d *MQTTDriver) SetProfile(ctx context.Context, deviceID, profile string, intensity int) error {
	return d.send(ctx, deviceID, CommandSetProfile, map[string]any{
		"profile":   profile,
		"intensity": intensity,
	})
}

// AdjustIntensity implements device.Driver.
func (d *MQTTDriver) AdjustIntensity(ctx context.Context, deviceID string, delta, intensity int) error {
	return d.send(ctx, deviceID, CommandAdjustIntensity, map[string]any{
		"delta":     delta,
		"intensity": intensity,
	})
}

func (d *MQTTDriver) send(ctx context.Context, deviceID, name string, params map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := Command{
		ID:         d.newID(),
		DeviceID:   deviceID,
		Command:    name,
		Parameters: params,
		Source:     SourceCore,
		Timestamp:  d.now().UTC(),
	}
	if err := d.pub.PublishJSON(mqtt.Topics{}.Command(deviceID), cmd, false); err != nil {
		return fmt.Errorf("publishing %s: %w", name, err)
	}
	return nil
}

var _ device.Driver = (*MQTTDriver)(nil)
