package protocol

import "errors"

// Domain-specific errors for command encoding.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrPayloadTooLong is returned when a sub-payload does not fit in a
	// single frame. This indicates a caller bug, not device state.
	ErrPayloadTooLong = errors.New("protocol: payload too long")

	// ErrMalformedCommand is returned when a command payload is not valid
	// JSON or does not match the expected command shape.
	ErrMalformedCommand = errors.New("protocol: malformed command")
)
