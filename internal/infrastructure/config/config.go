package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Govee BLE bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	BLE      BLEConfig      `yaml:"ble"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GatewayConfig contains bridge-wide identity and topic settings.
type GatewayConfig struct {
	// ID identifies this gateway instance on the bus. It forms the gateway
	// availability topic: {root_topic}/{id}/status.
	ID string `yaml:"id"`

	// RootTopic is the prefix for all bridge topics (devices and gateway).
	RootTopic string `yaml:"root_topic"`

	// HomeAssistantPrefix, when non-empty, enables Home Assistant MQTT
	// discovery. Discovery documents are published under
	// {prefix}/light/{device_id}/config. Usually "homeassistant".
	HomeAssistantPrefix string `yaml:"homeassistant_prefix"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// BLEConfig contains radio and discovery settings.
type BLEConfig struct {
	// AllowList restricts discovery to the listed device addresses.
	// Empty means every Govee advertisement is tracked.
	// Addresses are normalised to uppercase during validation.
	AllowList []string `yaml:"allow_list"`

	// DrainDelay is how long a scheduled drain waits before pulling the
	// command queue, so bursts of messages coalesce into one transaction.
	DrainDelay time.Duration `yaml:"drain_delay"`
}

// InfluxDBConfig contains optional telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GOVEEBLE_SECTION_KEY
// For example: GOVEEBLE_MQTT_HOST, GOVEEBLE_INFLUXDB_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			ID:        "default",
			RootTopic: "govee_ble",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "govee-ble-bridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		BLE: BLEConfig{
			DrainDelay: 500 * time.Millisecond,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GOVEEBLE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Gateway
	if v := os.Getenv("GOVEEBLE_GATEWAY_ID"); v != "" {
		cfg.Gateway.ID = v
	}
	if v := os.Getenv("GOVEEBLE_GATEWAY_ROOT_TOPIC"); v != "" {
		cfg.Gateway.RootTopic = v
	}

	// MQTT
	if v := os.Getenv("GOVEEBLE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GOVEEBLE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GOVEEBLE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("GOVEEBLE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors and normalises values.
//
// It verifies topic and identity settings, MQTT parameters, and the BLE
// allow-list. Allow-list addresses are canonicalised to uppercase so later
// comparisons against advertisement addresses are exact.
//
// Returns:
//   - error: Description of the first problem found, or nil
func (c *Config) Validate() error {
	// Gateway
	if c.Gateway.ID == "" {
		return fmt.Errorf("gateway.id cannot be empty")
	}
	if c.Gateway.RootTopic == "" {
		return fmt.Errorf("gateway.root_topic cannot be empty")
	}
	if strings.ContainsAny(c.Gateway.RootTopic, "+#") {
		return fmt.Errorf("gateway.root_topic cannot contain wildcard characters: %s", c.Gateway.RootTopic)
	}
	if strings.Contains(c.Gateway.RootTopic, "/") {
		return fmt.Errorf("gateway.root_topic cannot contain '/': %s", c.Gateway.RootTopic)
	}

	// MQTT
	if c.MQTT.Broker.Host == "" {
		return fmt.Errorf("mqtt.broker.host cannot be empty")
	}
	if c.MQTT.Broker.Port <= 0 || c.MQTT.Broker.Port > 65535 {
		return fmt.Errorf("mqtt.broker.port must be 1-65535, got %d", c.MQTT.Broker.Port)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1, or 2, got %d", c.MQTT.QoS)
	}

	// BLE
	if c.BLE.DrainDelay < 0 {
		return fmt.Errorf("ble.drain_delay cannot be negative")
	}
	for i, addr := range c.BLE.AllowList {
		if addr == "" {
			return fmt.Errorf("ble.allow_list[%d] cannot be empty", i)
		}
		c.BLE.AllowList[i] = strings.ToUpper(addr)
	}

	// InfluxDB (only checked when enabled)
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			return fmt.Errorf("influxdb.url cannot be empty when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			return fmt.Errorf("influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	return nil
}
