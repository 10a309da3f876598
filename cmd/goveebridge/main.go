// Govee BLE Bridge - MQTT gateway for Govee Bluetooth lights
//
// This is the main entry point for the bridge. It discovers Govee lights
// over passive BLE scanning, mirrors their state to MQTT, and translates
// JSON commands from the bus into Govee's 20-byte BLE frame protocol,
// optionally announcing every light to Home Assistant via MQTT discovery.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/govee-ble-bridge/internal/ble"
	"github.com/nerrad567/govee-ble-bridge/internal/bridge"
	"github.com/nerrad567/govee-ble-bridge/internal/device"
	"github.com/nerrad567/govee-ble-bridge/internal/infrastructure/config"
	"github.com/nerrad567/govee-ble-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/govee-ble-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/govee-ble-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/govee-ble-bridge/internal/protocol"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Govee BLE Bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Connect to MQTT broker
	topics := mqtt.Topics{Root: cfg.Gateway.RootTopic, GatewayID: cfg.Gateway.ID}
	mqttClient, err := mqtt.Connect(cfg.MQTT, topics)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Initialise the BLE radio
	radio, err := ble.NewAdapter()
	if err != nil {
		return fmt.Errorf("initialising bluetooth adapter: %w", err)
	}
	radio.SetLogger(log)

	// Device registry and command encoder
	registry := device.NewRegistry()
	registry.SetLogger(log)

	encoder := protocol.NewEncoder()
	encoder.SetLogger(log)

	// Discovery coordinator
	coordinator := ble.NewCoordinator(radio, registry, cfg.BLE.AllowList)
	coordinator.SetLogger(log)

	// Bridge orchestrator
	b, err := bridge.New(bridge.Options{
		Config:     cfg,
		MQTTClient: mqttClient,
		Topics:     topics,
		Transport:  radio,
		Discovery:  coordinator,
		Registry:   registry,
		Encoder:    encoder,
		Telemetry:  telemetry(influxClient),
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	coordinator.SetListener(b)

	if err := b.Start(); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		b.Stop()
	}()

	if err := coordinator.Start(ctx); err != nil {
		return fmt.Errorf("starting discovery: %w", err)
	}
	defer func() {
		log.Info("stopping discovery")
		coordinator.Stop()
	}()

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. Discovery coordinator
	// 2. Bridge (drains any pending commands)
	// 3. InfluxDB (if enabled)
	// 4. MQTT (publishes offline status)

	log.Info("Govee BLE Bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GOVEEBLE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GOVEEBLE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// telemetry adapts an optional InfluxDB client to the bridge's Telemetry
// interface, keeping the nil check out of the bridge.
func telemetry(client *influxdb.Client) bridge.Telemetry {
	if client == nil {
		return nil
	}
	return client
}

// healthCheck verifies infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
