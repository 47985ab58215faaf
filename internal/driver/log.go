package driver

import (
	"context"

	"github.com/nerrad567/neuroair-core/internal/device"
)

// Logger is the logging surface used by LogDriver.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// LogDriver logs commands instead of sending them anywhere.
type LogDriver struct {
	logger Logger
}

// NewLogDriver creates a LogDriver writing to logger.
func NewLogDriver(logger Logger) *LogDriver {
	return &LogDriver{logger: logger}
}

// TurnOn implements device.Driver.
func (d *LogDriver) TurnOn(_ context.Context, deviceID string) error {
	d.logger.Info("device command", "device_id", deviceID, "command", CommandTurnOn)
	return nil
}

// TurnOff implements device.Driver.
func (d *LogDriver) TurnOff(_ context.Context, deviceID string) error {
	d.logger.Info("device command", "device_id", deviceID, "command", CommandTurnOff)
	return nil
}

// SetProfile implements device.Driver.
func (d *LogDriver) SetProfile(_ context.Context, deviceID, profile string, intensity int) error {
	d.logger.Info("device command", "device_id", deviceID, "command", CommandSetProfile,
		"profile", profile, "intensity", intensity)
	return nil
}

// AdjustIntensity implements device.Driver.
func (d *LogDriver) AdjustIntensity(_ context.Context, deviceID string, delta, intensity int) error {
	d.logger.Info("device command", "device_id", deviceID, "command", CommandAdjustIntensity,
		"delta", delta, "intensity", intensity)
	return nil
}

var _ device.Driver = (*LogDriver)(nil)
