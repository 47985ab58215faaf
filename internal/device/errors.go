package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDriver) {
//	    // device did not acknowledge; state is already updated
//	}
var (
	// ErrDriver wraps failures reported by the device driver.
	ErrDriver = errors.New("device: driver failure")
)
