package scent

import "errors"

// Domain errors for the scent package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, scent.ErrProfileNotFound) {
//	    // unknown profile name
//	}
var (
	// ErrProfileNotFound is returned when a profile name is not in the catalogue.
	ErrProfileNotFound = errors.New("scent: profile not found")

	// ErrDuplicateProfile is returned when a catalogue is built with a repeated name.
	ErrDuplicateProfile = errors.New("scent: duplicate profile")

	// ErrNoDefaultProfile is returned when the catalogue lacks the "default" profile.
	ErrNoDefaultProfile = errors.New("scent: no default profile")

	// ErrInvalidProfile is returned when a profile fails validation.
	ErrInvalidProfile = errors.New("scent: invalid profile")
)
