package ble

import "context"

// GoveeManufacturerID is the Bluetooth company identifier Govee lights use
// for their manufacturer-specific advertisement data.
const GoveeManufacturerID uint16 = 0x8802

// GATT characteristic UUIDs shared by Govee BLE lights.
const (
	// NotifyCharacteristicUUID is observed during a command transaction.
	NotifyCharacteristicUUID = "00010203-0405-0607-0809-0a0b0c0d2b10"

	// WriteCharacteristicUUID receives command frames.
	WriteCharacteristicUUID = "00010203-0405-0607-0809-0a0b0c0d2b11"
)

// Advertisement is a single scan observation of a Govee device.
//
// ManufacturerData holds only the Govee company payload; advertisements from
// other vendors are filtered out by the radio implementation.
type Advertisement struct {
	Address          string
	Name             string
	ManufacturerData []byte
	RSSI             int16
}

// Radio abstracts the Bluetooth adapter consumed by the coordinator.
//
// Scan blocks, delivering advertisements to the callback until the context
// is cancelled. SendFrames opens a connection to the addressed device,
// writes each frame in order to the command characteristic, and closes the
// connection. Implementations must not run a scan and a transaction on the
// same adapter concurrently; the coordinator's pause protocol guarantees
// callers never ask for that.
type Radio interface {
	Scan(ctx context.Context, fn func(Advertisement)) error
	SendFrames(ctx context.Context, address string, frames [][]byte) error
}
