package influxdb

import (
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/neuroair-core/internal/device"
)

// Measurement names.
const (
	MeasurementDispatch   = "dispatch"
	MeasurementScentState = "scent_state"
)

// DispatchPoint is the metric written for one recognition result.
type DispatchPoint struct {
	DeviceID   string
	Source     string
	Stage      string
	Emotion    string
	Confidence float64
	Handled    bool
}

// WriteDispatch records one dispatched recognition result.
//
// Example:
//
//	client.WriteDispatch(influxdb.DispatchPoint{
//	    DeviceID: "neuroair-1", Stage: "command", Emotion: "happy",
//	    Confidence: 0.93, Handled: true,
//	})
func (c *Client) WriteDispatch(p DispatchPoint) {
	if !c.IsConnected() {
		return
	}

	tags := map[string]string{
		"device_id": p.DeviceID,
		"stage":     p.Stage,
		"emotion":   p.Emotion,
	}
	if p.Source != "" {
		tags["source"] = p.Source
	}

	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementDispatch,
		tags,
		map[string]interface{}{
			"confidence": p.Confidence,
			"handled":    p.Handled,
		},
		c.now(),
	))
}

// StateChanged records a device state change. It implements
// device.Observer and never blocks.
func (c *Client) StateChanged(deviceID string, state device.State) {
	if !c.IsConnected() {
		return
	}

	profile := state.ActiveProfile
	if profile == "" {
		profile = "none"
	}

	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementScentState,
		map[string]string{
			"device_id": deviceID,
			"profile":   profile,
		},
		map[string]interface{}{
			"powered_on": state.PoweredOn,
			"intensity":  state.Intensity,
		},
		c.now(),
	))
}
