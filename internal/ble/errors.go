package ble

import "errors"

// Domain errors for the ble package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, ble.ErrDiscoveryBusy) {
//	    // a scan session already exists
//	}
var (
	// ErrDiscoveryBusy is returned by Start when a scan session already
	// exists. At most one scan session runs at a time.
	ErrDiscoveryBusy = errors.New("ble: discovery already in progress")

	// ErrScanFailed is returned when the adapter cannot start scanning.
	ErrScanFailed = errors.New("ble: scan failed")

	// ErrConnectFailed is returned when a command transaction cannot open
	// a connection to the device.
	ErrConnectFailed = errors.New("ble: connect failed")

	// ErrWriteFailed is returned when writing a command frame fails
	// mid-transaction.
	ErrWriteFailed = errors.New("ble: write failed")

	// ErrCharacteristicNotFound is returned when the device does not
	// expose the expected Govee control characteristics.
	ErrCharacteristicNotFound = errors.New("ble: characteristic not found")
)
