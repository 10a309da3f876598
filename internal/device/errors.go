package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrUnknownDevice) {
//	    // handle unknown device
//	}
var (
	// ErrUnknownDevice is returned when an external ID has never been
	// observed during discovery.
	ErrUnknownDevice = errors.New("device: unknown device")
)
