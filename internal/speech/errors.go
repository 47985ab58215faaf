package speech

import "errors"

var (
	// ErrProcessorUnavailable is returned when the audio processor cannot be reached.
	ErrProcessorUnavailable = errors.New("speech: audio processor unavailable")

	// ErrProtocol is returned when the audio processor sends an unexpected message.
	ErrProtocol = errors.New("speech: protocol error")

	// ErrUpstream is returned when the audio processor reports a processing failure.
	ErrUpstream = errors.New("speech: upstream error")
)
