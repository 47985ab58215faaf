package dispatch

import "errors"

var (
	// ErrSourceFailed indicates the recognition stream failed before it
	// ended. Effects of results dispatched earlier are kept.
	ErrSourceFailed = errors.New("dispatch: recognition source failed")

	// ErrUnknownDevice indicates a recognition message addressed to a
	// device this dispatcher does not control.
	ErrUnknownDevice = errors.New("dispatch: unknown device")

	// ErrInvalidMessage indicates a recognition message that could not be
	// decoded.
	ErrInvalidMessage = errors.New("dispatch: invalid recognition message")
)
