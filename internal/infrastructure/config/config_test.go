package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
robot:
  name: "Vector-A1B2"
  address: "192.168.1.50"
  connect_timeout: 5s
  behavior_control: true
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: true
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
relay:
  state_interval: 250ms
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

	if cfg.Robot.Name != "Vector-A1B2" {
		t.Errorf("Robot.Name = %q, want %q", cfg.Robot.Name, "Vector-A1B2")
	}
	if cfg.Robot.Address != "192.168.1.50" {
		t.Errorf("Robot.Address = %q, want %q", cfg.Robot.Address, "192.168.1.50")
	}
	if cfg.Robot.ConnectTimeout != 5*time.Second {
		t.Errorf("Robot.ConnectTimeout = %v, want 5s", cfg.Robot.ConnectTimeout)
	}
	if !cfg.Robot.BehaviorControl {
		t.Error("Robot.BehaviorControl = false, want true")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.Relay.StateInterval != 250*time.Millisecond {
		t.Errorf("Relay.StateInterval = %v, want 250ms", cfg.Relay.StateInterval)
	}
	// Unset in file, so the default survives.
	if cfg.Relay.BatteryInterval != time.Minute {
		t.Errorf("Relay.BatteryInterval = %v, want 1m", cfg.Relay.BatteryInterval)
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

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
robot:
  name: ""
database:
  path: "/tmp/test.db"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("VECTORLINK_ROBOT_NAME", "")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty robot.name, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	validJWTSecret := "test-secret-key-at-least-32-chars!"

	valid := func() *Config {
		return &Config{
			Robot:    RobotConfig{Name: "Vector-A1B2", ConnectTimeout: 10 * time.Second},
			Database: DatabaseConfig{Path: "/data/vectorlink.db"},
			MQTT:     MQTTConfig{QoS: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(_ *Config) {},
			wantErr: false,
		},
		{
			name:    "missing robot name",
			mutate:  func(c *Config) { c.Robot.Name = "" },
			wantErr: true,
		},
		{
			name:    "zero connect timeout",
			mutate:  func(c *Config) { c.Robot.ConnectTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "negative relay interval",
			mutate:  func(c *Config) { c.Relay.StateInterval = -time.Second },
			wantErr: true,
		},
		{
			name: "api enabled with valid secret",
			mutate: func(c *Config) {
				c.API = APIConfig{Enabled: true, Port: 8443}
				c.Security.JWT.Secret = validJWTSecret
			},
			wantErr: false,
		},
		{
			name: "api enabled without secret",
			mutate: func(c *Config) {
				c.API = APIConfig{Enabled: true, Port: 8443}
			},
			wantErr: true,
		},
		{
			name: "api enabled with short secret",
			mutate: func(c *Config) {
				c.API = APIConfig{Enabled: true, Port: 8443}
				c.Security.JWT.Secret = "short"
			},
			wantErr: true,
		},
		{
			name: "api enabled with invalid port",
			mutate: func(c *Config) {
				c.API = APIConfig{Enabled: true, Port: 70000}
				c.Security.JWT.Secret = validJWTSecret
			},
			wantErr: true,
		},
		{
			name:    "api disabled ignores port",
			mutate:  func(c *Config) { c.API = APIConfig{Enabled: false, Port: 0} },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Grant: GrantConfig{Timeout: 20},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
	if got := cfg.GetGrantTimeout().Seconds(); got != 20 {
		t.Errorf("GetGrantTimeout() = %v, want 20", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("VECTORLINK_ROBOT_NAME", "Vector-Z9Y8")
	t.Setenv("VECTORLINK_ROBOT_ADDRESS", "10.0.0.7")
	t.Setenv("VECTORLINK_DATABASE_PATH", "/custom/path.db")
	t.Setenv("VECTORLINK_MQTT_HOST", "mqtt.example.com")
	t.Setenv("VECTORLINK_MQTT_USERNAME", "testuser")
	t.Setenv("VECTORLINK_MQTT_PASSWORD", "testpass")
	t.Setenv("VECTORLINK_API_HOST", "192.168.1.1")
	t.Setenv("VECTORLINK_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("VECTORLINK_JWT_SECRET", "jwt-secret")

	applyEnvOverrides(cfg)

	checks := []struct {
		field string
		got   string
		want  string
	}{
		{"Robot.Name", cfg.Robot.Name, "Vector-Z9Y8"},
		{"Robot.Address", cfg.Robot.Address, "10.0.0.7"},
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"API.Host", cfg.API.Host, "192.168.1.1"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
		{"Security.JWT.Secret", cfg.Security.JWT.Secret, "jwt-secret"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Robot.ConnectTimeout != 10*time.Second {
		t.Errorf("defaultConfig Robot.ConnectTimeout = %v, want 10s", cfg.Robot.ConnectTimeout)
	}
	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.Grant.AccountsURL == "" || cfg.Grant.CertsURL == "" {
		t.Error("defaultConfig should carry grant endpoints")
	}
}
