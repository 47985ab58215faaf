package command

import "errors"

// Domain errors for the command package.
var (
	// ErrInvalidAction is returned when an action has an unknown operation
	// or missing/out-of-range parameters.
	ErrInvalidAction = errors.New("command: invalid action")

	// ErrInvalidBinding is returned when a command or scene binding has an
	// empty trigger or no actions.
	ErrInvalidBinding = errors.New("command: invalid binding")

	// ErrUnknownProfile is returned by CheckProfiles when a binding names a
	// profile missing from the catalog.
	ErrUnknownProfile = errors.New("command: unknown profile")
)
