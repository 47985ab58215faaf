package platform

import "errors"

var (
	// ErrInvalidRequest indicates a request body the adapter cannot parse.
	ErrInvalidRequest = errors.New("platform: invalid request")

	// ErrNoRecognizer indicates audio input without a configured recognizer.
	ErrNoRecognizer = errors.New("platform: audio input not configured")
)
