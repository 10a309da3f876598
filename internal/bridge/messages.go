package bridge

import (
	"encoding/json"

	"github.com/nerrad567/govee-ble-bridge/internal/device"
	"github.com/nerrad567/govee-ble-bridge/internal/infrastructure/mqtt"
)

// Mired bounds advertised to Home Assistant; they span the Kelvin range the
// colour-temperature conversion accepts.
const (
	haMinMireds = 153
	haMaxMireds = 555

	haBrightnessScale = 100
)

// deviceInfo is the document published to the info topic on discovery.
type deviceInfo struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Model   string `json:"model"`
}

// deviceStatus is the retained document published to the status topic.
type deviceStatus struct {
	State string `json:"state"`
}

// haAvailability is one availability source in a Home Assistant discovery
// document.
type haAvailability struct {
	Topic         string `json:"topic"`
	ValueTemplate string `json:"value_template"`
}

// haDeviceInfo identifies the physical device in Home Assistant.
type haDeviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	Name         string   `json:"name"`
}

// haLightConfig is the MQTT Light (JSON schema) discovery document.
type haLightConfig struct {
	Availability        []haAvailability `json:"availability"`
	AvailabilityMode    string           `json:"availability_mode"`
	Optimistic          bool             `json:"optimistic"`
	Brightness          bool             `json:"brightness"`
	BrightnessScale     int              `json:"brightness_scale"`
	ColorMode           bool             `json:"color_mode"`
	CommandTopic        string           `json:"command_topic"`
	Device              haDeviceInfo     `json:"device"`
	Effect              bool             `json:"effect"`
	MinMireds           int              `json:"min_mireds"`
	MaxMireds           int              `json:"max_mireds"`
	Name                string           `json:"name"`
	Schema              string           `json:"schema"`
	StateTopic          string           `json:"state_topic"`
	SupportedColorModes []string         `json:"supported_color_modes"`
	UniqueID            string           `json:"unique_id"`
}

// deviceInfoPayload builds the info document for a discovered device.
func deviceInfoPayload(rec device.Record) ([]byte, error) {
	return json.Marshal(deviceInfo{
		Address: rec.Address,
		Name:    rec.Name,
		Model:   rec.Model,
	})
}

// deviceStatusPayload builds the retained status document. The state is
// derived solely from the advertisement's manufacturer data.
func deviceStatusPayload(rec device.Record) ([]byte, error) {
	state := "OFF"
	if rec.PowerState() {
		state = "ON"
	}
	return json.Marshal(deviceStatus{State: state})
}

// homeAssistantConfigPayload builds the MQTT discovery document that
// registers the device as an optimistic JSON-schema light. Availability
// follows the gateway's own status topic, so lights disappear when the
// bridge goes offline.
func homeAssistantConfigPayload(rec device.Record, topics mqtt.Topics) ([]byte, error) {
	id := rec.ExternalID
	return json.Marshal(haLightConfig{
		Availability: []haAvailability{{
			Topic:         topics.GatewayStatus(),
			ValueTemplate: "{{ value_json.status }}",
		}},
		AvailabilityMode: "all",
		Optimistic:       true,
		Brightness:       true,
		BrightnessScale:  haBrightnessScale,
		ColorMode:        true,
		CommandTopic:     topics.DeviceCommand(id, "json"),
		Device: haDeviceInfo{
			Identifiers:  []string{"govee_ble_" + id},
			Manufacturer: "Govee",
			Model:        rec.Model,
			Name:         rec.Name,
		},
		Effect:              true,
		MinMireds:           haMinMireds,
		MaxMireds:           haMaxMireds,
		Name:                rec.Name,
		Schema:              "json",
		StateTopic:          topics.DeviceStatus(id),
		SupportedColorModes: []string{"color_temp", "rgb"},
		UniqueID:            id + "_govee_ble",
	})
}
