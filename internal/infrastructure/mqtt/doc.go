// Package mqtt provides MQTT client connectivity for the Govee BLE bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) on the gateway status topic
//   - Connection health monitoring
//
// # Architecture
//
// The bridge uses MQTT as its message bus towards home-automation consumers.
// Device state flows out as retained status messages; control messages flow
// in on per-device command topics:
//
//	BLE devices ↔ bridge ↔ MQTT broker ↔ Home Assistant / automations
//
// # Topic scheme
//
//	{root}/{device_id}/status     retained device state        (published)
//	{root}/{device_id}/info       device metadata              (published)
//	{root}/{device_id}/command/+  inbound control messages     (subscribed)
//	{root}/{gateway_id}/status    retained bridge availability (published, LWT)
//
// # Usage
//
//	topics := mqtt.Topics{Root: cfg.Gateway.RootTopic, GatewayID: cfg.Gateway.ID}
//	client, err := mqtt.Connect(cfg.MQTT, topics)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(topics.Commands(), 1,
//	    func(topic string, payload []byte) error {
//	        deviceID, kind, err := mqtt.ParseCommandTopic(topic)
//	        ...
//	    })
package mqtt
