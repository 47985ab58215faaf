// Package influxdb records NeuroAIR time-series metrics in InfluxDB v2.
//
// Two measurements are written:
//
//	dispatch     one point per recognition result
//	             tags:   device_id, stage, emotion, source
//	             fields: confidence, handled
//
//	scent_state  one point per device state change
//	             tags:   device_id, profile
//	             fields: powered_on, intensity
//
// Writes are non-blocking and batched by the client library; failures
// surface through SetOnError. When influxdb.enabled is false, Connect
// returns ErrDisabled and the caller runs without metrics.
//
// Usage:
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // metrics off
//	}
//	defer client.Close()
//	ctrl.AddObserver(client)
package influxdb
