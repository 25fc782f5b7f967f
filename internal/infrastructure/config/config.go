package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for vectorlink.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Robot     RobotConfig     `yaml:"robot"`
	Database  DatabaseConfig  `yaml:"database"`
	Grant     GrantConfig     `yaml:"grant"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Relay     RelayConfig     `yaml:"relay"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// RobotConfig identifies the robot to connect to and how control is negotiated.
type RobotConfig struct {
	// Name is the robot's device name as printed on its face (e.g. "Vector-A1B2").
	// It is the key into the credential store.
	Name string `yaml:"name"`

	// Address overrides the stored address (host or host:port). Empty uses the stored one.
	Address string `yaml:"address"`

	// ConnectTimeout bounds channel establishment.
	// Default: 10s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// BehaviorControl requests exclusive control at startup when true.
	BehaviorControl bool `yaml:"behavior_control"`

	// OverrideSafety requests control at override-behaviors priority, which
	// suppresses safety behaviours such as cliff and low-battery reactions.
	OverrideSafety bool `yaml:"override_safety"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// GrantConfig contains the cloud endpoints used by the authorization grant flow.
type GrantConfig struct {
	AccountsURL string `yaml:"accounts_url"`
	CertsURL    string `yaml:"certs_url"`
	AppKey      string `yaml:"app_key"`
	ClientName  string `yaml:"client_name"`
	Timeout     int    `yaml:"timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
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
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP status API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// RelayConfig controls how robot events are forwarded to the bus and telemetry.
type RelayConfig struct {
	// StateInterval is the minimum spacing between relayed robot state samples.
	// robot_state arrives at frame rate; anything faster than this is dropped.
	StateInterval time.Duration `yaml:"state_interval"`

	// BatteryInterval is how often battery state is polled. Zero disables polling.
	BatteryInterval time.Duration `yaml:"battery_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings for the status API.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: VECTORLINK_SECTION_KEY
// For example: VECTORLINK_ROBOT_NAME, VECTORLINK_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration with environment overrides applied.
// Used by commands that can run without a config file (grant, token).
func Default() *Config {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	return cfg
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Robot: RobotConfig{
			ConnectTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:        "./data/vectorlink.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Grant: GrantConfig{
			AccountsURL: "https://accounts.api.anki.com/1/sessions",
			CertsURL:    "https://session-certs.token.global.anki-services.com/vic",
			AppKey:      "aung2ieCho3aiph7Een3Ei",
			ClientName:  "vectorlink",
			Timeout:     30,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "vectorlink",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8443,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Relay: RelayConfig{
			StateInterval:   time.Second,
			BatteryInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 1440,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: VECTORLINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Robot
	if v := os.Getenv("VECTORLINK_ROBOT_NAME"); v != "" {
		cfg.Robot.Name = v
	}
	if v := os.Getenv("VECTORLINK_ROBOT_ADDRESS"); v != "" {
		cfg.Robot.Address = v
	}

	// Database
	if v := os.Getenv("VECTORLINK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("VECTORLINK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("VECTORLINK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("VECTORLINK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("VECTORLINK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("VECTORLINK_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// Security - JWT secret (always override in production)
	if v := os.Getenv("VECTORLINK_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// minJWTSecretLength is the shortest accepted HMAC secret for the status API.
const minJWTSecretLength = 32

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Robot.Name == "" {
		errs = append(errs, "robot.name is required (set VECTORLINK_ROBOT_NAME environment variable)")
	}
	if c.Robot.ConnectTimeout <= 0 {
		errs = append(errs, "robot.connect_timeout must be positive")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Relay.StateInterval < 0 || c.Relay.BatteryInterval < 0 {
		errs = append(errs, "relay intervals must not be negative")
	}

	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}

		// The status API exposes robot state; a forgeable token would let
		// anyone on the network read it.
		if c.Security.JWT.Secret == "" {
			errs = append(errs, "security.jwt.secret is required when api.enabled (set VECTORLINK_JWT_SECRET environment variable)")
		} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
			errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetGrantTimeout returns the grant flow HTTP timeout as a Duration.
func (c *Config) GetGrantTimeout() time.Duration {
	return time.Duration(c.Grant.Timeout) * time.Second
}
