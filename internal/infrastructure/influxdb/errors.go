package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	// The service keeps running without dispatch metrics.
	ErrDisabled = errors.New("influxdb: disabled")

	// ErrUnreachable wraps ping failures during Connect.
	ErrUnreachable = errors.New("influxdb: server unreachable")

	// ErrNotConnected is returned by HealthCheck after Close.
	ErrNotConnected = errors.New("influxdb: not connected")
)
