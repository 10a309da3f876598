// Package bridge wires MQTT and BLE together.
//
// The Bridge sits between the MQTT client, the device registry, the command
// encoder, and the BLE coordinator. In the outbound direction it subscribes
// to the command topic pattern, buffers commands in a CommandQueue, and
// after a short coalescing delay drains the queue: commands are grouped per
// device preserving arrival order, encoded into frame sequences, and each
// device's frames are sent as a single BLE transaction. Scanning is paused
// for the duration of a drain and resumed exactly once when every device's
// transaction has finished, successfully or not.
//
// In the inbound direction the Bridge implements the coordinator's Listener
// interface: new devices produce an info document and, when a discovery
// prefix is configured, a retained Home Assistant discovery document; state
// changes produce a retained status document.
//
// Failures are contained. A transport error for one device never blocks
// other devices' transactions in the same drain, commands for unknown
// devices are dropped with a warning, and encoding errors drop only the
// affected command.
package bridge
