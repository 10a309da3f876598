package device

import "strings"

// Record represents a Govee device observed during BLE discovery.
//
// Records are value types; the Registry hands out copies, so callers can
// safely retain or modify them.
type Record struct {
	// ExternalID is the stable identifier used in MQTT topics:
	// "0x" followed by the uppercase MAC address without separators.
	ExternalID string `json:"external_id"`

	// Address is the canonical (uppercase, colon-separated) MAC address.
	Address string `json:"address"`

	// Name is the full advertised local name, e.g. "ihoment_H7020_A1B2".
	Name string `json:"name"`

	// Model is extracted from the advertised name, e.g. "H7020".
	Model string `json:"model"`

	// ManufacturerData is the last Govee manufacturer payload seen for
	// this device. Byte 4 carries the power state.
	ManufacturerData []byte `json:"-"`
}

// stateByteIndex is the offset of the power flag in Govee manufacturer data.
const stateByteIndex = 4

// PowerState reports the device's power state from its last advertisement.
// Devices whose manufacturer data is too short report off.
func (r Record) PowerState() bool {
	if len(r.ManufacturerData) <= stateByteIndex {
		return false
	}
	return r.ManufacturerData[stateByteIndex] == 0x01
}

// ExternalID derives the topic-safe identifier from a MAC address.
// "a4:c1:38:5b:12:ef" becomes "0xA4C1385B12EF".
func ExternalID(address string) string {
	return "0x" + strings.ToUpper(strings.ReplaceAll(address, ":", ""))
}

// ModelFromName extracts the model from an advertised device name.
// Govee lights advertise as "<vendor>_<model>_<suffix>"; names that do not
// match that shape are returned unchanged.
func ModelFromName(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) == 3 {
		return parts[1]
	}
	return name
}

// canonicalAddress normalises a MAC address for use as a registry key.
func canonicalAddress(address string) string {
	return strings.ToUpper(address)
}
