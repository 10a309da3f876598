// Package ble drives Bluetooth discovery and command transmission for Govee
// lights.
//
// The Coordinator owns the scan session lifecycle as a small state machine
// (Idle, Scanning, Paused). Passive scanning feeds Govee advertisements
// through the allow-list filter into the device registry; new devices and
// manufacturer-data changes raise Listener notifications. Because a single
// Bluetooth adapter cannot reliably scan and hold a connection at once,
// callers pause the coordinator before a command transaction and resume it
// afterwards, which ends the scan session and later starts a fresh one.
//
// Adapter implements the Radio interface over the host adapter using BlueZ.
// Command transactions connect, subscribe to the Govee response
// characteristic, write each 20-byte frame in order, and disconnect.
//
// # Usage
//
//	radio, err := ble.NewAdapter()
//	if err != nil {
//	    return err
//	}
//
//	coord := ble.NewCoordinator(radio, registry, cfg.BLE.AllowList)
//	coord.SetListener(bridge)
//	if err := coord.Start(ctx); err != nil {
//	    return err
//	}
//
//	// around a command transaction:
//	coord.Pause()
//	radio.SendFrames(ctx, rec.Address, frames)
//	coord.Resume(ctx)
package ble
