package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/govee-ble-bridge/internal/device"
	"github.com/nerrad567/govee-ble-bridge/internal/infrastructure/config"
	"github.com/nerrad567/govee-ble-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/govee-ble-bridge/internal/protocol"
)

// Bridge orchestrates the MQTT-to-BLE data flow:
//   - Discovery notifications become info, status, and Home Assistant
//     discovery publications
//   - Inbound command messages are buffered, coalesced per device, encoded,
//     and transmitted as one BLE transaction per device
//   - Scanning is paused around transactions and resumed exactly once per
//     drain
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	cfg       *config.Config
	mqtt      MQTTClient
	topics    mqtt.Topics
	transport Transport
	discovery Discovery
	registry  *device.Registry
	encoder   *protocol.Encoder
	queue     *CommandQueue
	telemetry Telemetry // Optional; may be nil

	// Shutdown coordination
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	stopMu    sync.Mutex
	stopping  bool
	ctx       context.Context
	ctxCancel context.CancelFunc

	logger Logger
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// PublishDefault sends a message at the configured QoS.
	PublishDefault(topic string, payload []byte) error

	// PublishRetained sends a retained message at the configured QoS.
	PublishRetained(topic string, payload []byte) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Transport sends encoded frame sequences to a device over BLE.
// Satisfied by *ble.Adapter.
type Transport interface {
	SendFrames(ctx context.Context, address string, frames [][]byte) error
}

// Discovery is the pause/resume surface of the scan coordinator.
// Satisfied by *ble.Coordinator.
type Discovery interface {
	Pause()
	Resume(ctx context.Context)
}

// Telemetry records optional time-series measurements.
// Satisfied by *influxdb.Client. May be nil.
type Telemetry interface {
	WriteDeviceState(deviceID, model string, on bool)
	WriteDiscovery(deviceID, model string)
	WriteCommandResult(deviceID string, frames int, ok bool)
}

// Logger defines the logging interface used by the Bridge.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options holds the collaborators for creating a Bridge.
type Options struct {
	// Config is the loaded bridge configuration.
	Config *config.Config

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Topics builds and parses bridge topic names.
	Topics mqtt.Topics

	// Transport sends frames over BLE.
	Transport Transport

	// Discovery is the scan coordinator's pause/resume surface.
	Discovery Discovery

	// Registry is the discovered-device catalogue.
	Registry *device.Registry

	// Encoder translates commands to frames.
	Encoder *protocol.Encoder

	// Telemetry is optional time-series recording. May be nil.
	Telemetry Telemetry

	// Logger is optional structured logging.
	Logger Logger
}

// New creates a bridge instance. Call Start to begin operation.
func New(opts Options) (*Bridge, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if opts.Discovery == nil {
		return nil, fmt.Errorf("discovery coordinator is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if opts.Encoder == nil {
		return nil, fmt.Errorf("encoder is required")
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Bridge{
		cfg:       opts.Config,
		mqtt:      opts.MQTTClient,
		topics:    opts.Topics,
		transport: opts.Transport,
		discovery: opts.Discovery,
		registry:  opts.Registry,
		encoder:   opts.Encoder,
		queue:     NewCommandQueue(),
		telemetry: opts.Telemetry,
		done:      make(chan struct{}),
		ctx:       ctx,
		ctxCancel: ctxCancel,
		logger:    logger,
	}, nil
}

// Start subscribes to the command topic pattern.
func (b *Bridge) Start() error {
	commandTopic := b.topics.Commands()
	if err := b.mqtt.Subscribe(commandTopic, byte(b.cfg.MQTT.QoS), b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logger.Info("bridge started", "command_topic", commandTopic)
	return nil
}

// Stop gracefully shuts down the bridge, waiting for any scheduled drain.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.stopMu.Lock()
		b.stopping = true
		b.stopMu.Unlock()

		// Wake any scheduled drain, then wait for it to finish before
		// cancelling the bridge context: the drain transmits buffered
		// commands over b.ctx and must see it live.
		close(b.done)
		b.wg.Wait()
		b.ctxCancel()
		b.logger.Info("bridge stopped")
	})
}

// handleCommand processes one inbound command message. Commands for unknown
// devices are dropped with a warning; a connected broker may hold retained
// commands for lights that are out of range.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	deviceID, kind, err := mqtt.ParseCommandTopic(topic)
	if err != nil {
		return fmt.Errorf("parsing command topic %q: %w", topic, err)
	}

	if _, err := b.registry.Get(deviceID); err != nil {
		if errors.Is(err, device.ErrUnknownDevice) {
			b.logger.Warn("command for unknown device dropped", "device_id", deviceID)
			return nil
		}
		return err
	}

	b.logger.Info("command received", "device_id", deviceID, "kind", kind)

	wasEmpty := b.queue.Enqueue(PendingCommand{
		DeviceID: deviceID,
		Kind:     protocol.CommandKind(kind),
		Payload:  payload,
	})
	if wasEmpty && !b.scheduleDrain() {
		b.logger.Warn("command received during shutdown, not scheduling drain", "device_id", deviceID)
	}
	return nil
}

// scheduleDrain launches the delayed drain goroutine. The stopping check and
// wg.Add happen under one lock so Stop's wg.Wait cannot observe a concurrent
// Add. Returns false once Stop has begun.
func (b *Bridge) scheduleDrain() bool {
	b.stopMu.Lock()
	defer b.stopMu.Unlock()
	if b.stopping {
		return false
	}
	b.wg.Add(1)
	go b.drainAfterDelay()
	return true
}

// drainAfterDelay waits the coalescing delay then drains the queue. The
// delay lets a burst of commands for the same device collapse into a single
// BLE transaction.
func (b *Bridge) drainAfterDelay() {
	defer b.wg.Done()

	timer := time.NewTimer(b.cfg.BLE.DrainDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-b.done:
		// Shutting down: drain immediately rather than drop buffered
		// commands.
	}

	b.drain()
}

// drain empties the queue, groups commands per device preserving arrival
// order, and sends each device's concatenated frame sequence as one
// transaction. Per-device failures are logged and do not block other
// devices. Scanning is paused before the first transaction and resumed
// exactly once afterwards.
func (b *Bridge) drain() {
	pending := b.queue.TakeAll()
	if len(pending) == 0 {
		return
	}

	grouped := make(map[string][]PendingCommand)
	var order []string
	for _, cmd := range pending {
		if _, ok := grouped[cmd.DeviceID]; !ok {
			order = append(order, cmd.DeviceID)
		}
		grouped[cmd.DeviceID] = append(grouped[cmd.DeviceID], cmd)
	}

	b.logger.Debug("draining command queue", "commands", len(pending), "devices", len(order))

	b.discovery.Pause()
	defer b.discovery.Resume(b.ctx)

	for _, deviceID := range order {
		b.transmit(deviceID, grouped[deviceID])
	}
}

// transmit encodes and sends one device's buffered commands as a single
// ordered transaction.
func (b *Bridge) transmit(deviceID string, cmds []PendingCommand) {
	rec, err := b.registry.Get(deviceID)
	if err != nil {
		b.logger.Warn("device vanished before transmit", "device_id", deviceID)
		return
	}

	var frames [][]byte
	for _, cmd := range cmds {
		encoded, err := b.encoder.Encode(cmd.Kind, cmd.Payload, rec.Model)
		if err != nil {
			// Encoding failures drop the command, never the process.
			b.logger.Error("encoding command", "device_id", deviceID, "error", err)
			continue
		}
		for _, f := range encoded {
			frames = append(frames, f.Bytes())
		}
	}
	if len(frames) == 0 {
		return
	}

	err = b.transport.SendFrames(b.ctx, rec.Address, frames)
	if err != nil {
		b.logger.Error("sending frames", "device_id", deviceID, "address", rec.Address, "error", err)
	}
	if b.telemetry != nil {
		b.telemetry.WriteCommandResult(deviceID, len(frames), err == nil)
	}
}

// OnNewDevice publishes the Home Assistant discovery document (when a
// discovery prefix is configured) and the device info document. Implements
// the coordinator's Listener interface.
func (b *Bridge) OnNewDevice(rec device.Record) {
	b.logger.Info("new device", "id", rec.ExternalID, "name", rec.Name, "model", rec.Model)

	if prefix := b.cfg.Gateway.HomeAssistantPrefix; prefix != "" {
		payload, err := homeAssistantConfigPayload(rec, b.topics)
		if err != nil {
			b.logger.Error("building discovery document", "id", rec.ExternalID, "error", err)
		} else if err := b.mqtt.PublishRetained(b.topics.HomeAssistantConfig(prefix, rec.ExternalID), payload); err != nil {
			b.logger.Error("publishing discovery document", "id", rec.ExternalID, "error", err)
		}
	}

	payload, err := deviceInfoPayload(rec)
	if err != nil {
		b.logger.Error("building info document", "id", rec.ExternalID, "error", err)
		return
	}
	if err := b.mqtt.PublishDefault(b.topics.DeviceInfo(rec.ExternalID), payload); err != nil {
		b.logger.Error("publishing info document", "id", rec.ExternalID, "error", err)
	}

	if b.telemetry != nil {
		b.telemetry.WriteDiscovery(rec.ExternalID, rec.Model)
	}
}

// OnStateUpdate publishes the retained status document. Implements the
// coordinator's Listener interface.
func (b *Bridge) OnStateUpdate(rec device.Record) {
	payload, err := deviceStatusPayload(rec)
	if err != nil {
		b.logger.Error("building status document", "id", rec.ExternalID, "error", err)
		return
	}
	if err := b.mqtt.PublishRetained(b.topics.DeviceStatus(rec.ExternalID), payload); err != nil {
		b.logger.Error("publishing status document", "id", rec.ExternalID, "error", err)
	}

	if b.telemetry != nil {
		b.telemetry.WriteDeviceState(rec.ExternalID, rec.Model, rec.PowerState())
	}
}
