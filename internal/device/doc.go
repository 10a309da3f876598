// Package device provides the in-memory registry of discovered Govee lights.
//
// The registry is purely observational: records are created and updated from
// BLE advertisements and never persisted or deleted. Each record carries the
// device's canonical MAC address, its topic-safe external ID, the model
// extracted from the advertised name, and the last Govee manufacturer data
// payload, which encodes the power state.
//
// # Usage
//
//	registry := device.NewRegistry()
//	registry.SetLogger(log)
//
//	rec, isNew, changed := registry.Upsert(adv.Address, adv.Name, adv.ManufacturerData)
//	if isNew {
//	    // publish discovery and info documents
//	}
//	if changed {
//	    // publish a status update
//	}
//
// # Thread Safety
//
// The Registry is safe for concurrent use; all operations are protected by
// a read-write mutex, and returned records never alias internal state.
package device
