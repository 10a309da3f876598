package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDeviceState records a power-state observation for a device.
//
// Called on every state transition seen in advertisement data. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: External device identifier (e.g., "0xA4C1385B12EF")
//   - model: Device model (e.g., "H7020")
//   - on: Observed power state
func (c *Client) WriteDeviceState(deviceID, model string, on bool) {
	if !c.IsConnected() {
		return
	}

	var state float64
	if on {
		state = 1
	}

	point := write.NewPoint(
		"device_state",
		map[string]string{
			"device_id": deviceID,
			"model":     model,
		},
		map[string]interface{}{
			"on": state,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteDiscovery records a first-sighting of a device.
//
// Parameters:
//   - deviceID: External device identifier
//   - model: Device model
func (c *Client) WriteDiscovery(deviceID, model string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"discovery",
		map[string]string{
			"device_id": deviceID,
			"model":     model,
		},
		map[string]interface{}{
			"seen": float64(1),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteCommandResult records the outcome of a command transaction.
//
// Parameters:
//   - deviceID: External device identifier
//   - frames: Number of frames in the transaction
//   - ok: Whether the transaction succeeded
func (c *Client) WriteCommandResult(deviceID string, frames int, ok bool) {
	if !c.IsConnected() {
		return
	}

	var success float64
	if ok {
		success = 1
	}

	point := write.NewPoint(
		"command",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"frames":  float64(frames),
			"success": success,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
