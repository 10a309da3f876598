// Package influxdb provides optional time-series telemetry for the bridge.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes, and health monitoring. Telemetry
// is entirely optional: when disabled in configuration, Connect returns
// ErrDisabled and the bridge runs without it.
//
// Recorded measurements:
//   - device_state: power-state transitions observed via advertisements
//   - discovery: first sighting of a device
//   - command: command transaction outcomes
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without telemetry
//	}
//	defer client.Close()
//
//	client.WriteDeviceState("0xA4C1385B12EF", "H7020", true)
//
// Writes are buffered and flushed in the background; Close flushes any
// remaining points.
package influxdb
