package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
gateway:
  id: "garage"
  root_topic: "govee_ble"
  homeassistant_prefix: "homeassistant"
mqtt:
  broker:
    host: "broker.local"
    port: 1883
    client_id: "test-client"
  qos: 1
ble:
  allow_list:
    - "c5:37:34:32:3d:1e"
  drain_delay: 250ms
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.ID != "garage" {
		t.Errorf("Gateway.ID = %q, want %q", cfg.Gateway.ID, "garage")
	}

	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}

	if cfg.BLE.DrainDelay != 250*time.Millisecond {
		t.Errorf("BLE.DrainDelay = %v, want %v", cfg.BLE.DrainDelay, 250*time.Millisecond)
	}

	// Allow-list addresses are canonicalised to uppercase
	if got := cfg.BLE.AllowList[0]; got != "C5:37:34:32:3D:1E" {
		t.Errorf("BLE.AllowList[0] = %q, want %q", got, "C5:37:34:32:3D:1E")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
mqtt:
  broker:
    host: "from-file"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("GOVEEBLE_MQTT_HOST", "from-env")
	t.Setenv("GOVEEBLE_MQTT_PASSWORD", "secret")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "from-env" {
		t.Errorf("MQTT.Broker.Host = %q, want env override %q", cfg.MQTT.Broker.Host, "from-env")
	}
	if cfg.MQTT.Auth.Password != "secret" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "secret")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "empty gateway id",
			mutate:  func(c *Config) { c.Gateway.ID = "" },
			wantErr: true,
		},
		{
			name:    "empty root topic",
			mutate:  func(c *Config) { c.Gateway.RootTopic = "" },
			wantErr: true,
		},
		{
			name:    "root topic with wildcard",
			mutate:  func(c *Config) { c.Gateway.RootTopic = "govee+" },
			wantErr: true,
		},
		{
			name:    "root topic with slash",
			mutate:  func(c *Config) { c.Gateway.RootTopic = "govee/ble" },
			wantErr: true,
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid broker port",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 0 },
			wantErr: true,
		},
		{
			name:    "negative drain delay",
			mutate:  func(c *Config) { c.BLE.DrainDelay = -time.Second },
			wantErr: true,
		},
		{
			name:    "empty allow list entry",
			mutate:  func(c *Config) { c.BLE.AllowList = []string{""} },
			wantErr: true,
		},
		{
			name:    "influxdb enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
