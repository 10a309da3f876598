package mqtt

import (
	"fmt"
	"strings"
)

// commandTopicParts is the number of segments in a device command topic:
// {root}/{device_id}/command/{kind}.
const commandTopicParts = 4

// Topics builds the bridge's MQTT topic names.
//
// All device topics share the scheme {root}/{device_id}/{suffix}. The gateway
// availability topic reuses the same shape with the gateway ID in place of a
// device ID.
//
//	topics := mqtt.Topics{Root: "govee_ble", GatewayID: "default"}
//	topics.DeviceStatus("0xC53734323D1E")
//	// Returns: "govee_ble/0xC53734323D1E/status"
type Topics struct {
	// Root is the configured root topic (no slashes or wildcards).
	Root string

	// GatewayID identifies this bridge instance.
	GatewayID string
}

// DeviceStatus returns the retained state topic for a device.
//
// Example: govee_ble/0xC53734323D1E/status
func (t Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/%s/status", t.Root, deviceID)
}

// DeviceInfo returns the metadata topic for a device.
//
// Example: govee_ble/0xC53734323D1E/info
func (t Topics) DeviceInfo(deviceID string) string {
	return fmt.Sprintf("%s/%s/info", t.Root, deviceID)
}

// DeviceCommand returns the command topic for a device and command kind.
// Mostly useful in tests and documentation; the bridge subscribes via Commands.
//
// Example: govee_ble/0xC53734323D1E/command/json
func (t Topics) DeviceCommand(deviceID, kind string) string {
	return fmt.Sprintf("%s/%s/command/%s", t.Root, deviceID, kind)
}

// GatewayStatus returns the retained availability topic for this bridge
// instance. Used for the Last Will and the online/offline publications.
//
// Example: govee_ble/default/status
func (t Topics) GatewayStatus() string {
	return fmt.Sprintf("%s/%s/status", t.Root, t.GatewayID)
}

// Commands returns the wildcard pattern matching all device command topics.
//
// Pattern: govee_ble/+/command/+
func (t Topics) Commands() string {
	return fmt.Sprintf("%s/+/command/+", t.Root)
}

// HomeAssistantConfig returns the Home Assistant MQTT discovery topic for a
// device, under the configured discovery prefix.
//
// Example: homeassistant/light/0xC53734323D1E/config
func (t Topics) HomeAssistantConfig(prefix, deviceID string) string {
	return fmt.Sprintf("%s/light/%s/config", prefix, deviceID)
}

// ParseCommandTopic extracts the device ID and command kind from a topic
// matched by the Commands pattern.
//
// Parameters:
//   - topic: The full topic the message arrived on
//
// Returns:
//   - deviceID: The externally visible device identifier
//   - kind: The command kind segment (e.g. "json")
//   - error: ErrInvalidTopic if the topic does not have the command shape
func ParseCommandTopic(topic string) (deviceID, kind string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != commandTopicParts || parts[2] != "command" {
		return "", "", fmt.Errorf("%w: not a command topic: %s", ErrInvalidTopic, topic)
	}
	if parts[1] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("%w: empty segment in: %s", ErrInvalidTopic, topic)
	}
	return parts[1], parts[3], nil
}
