package history

import "errors"

var (
	// ErrInvalidRecord is returned when a record lacks a device id or stage.
	ErrInvalidRecord = errors.New("history: invalid record")
)
