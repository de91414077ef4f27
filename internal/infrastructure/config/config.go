package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Gray Logic Graphite feeder.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Graphite GraphiteConfig `yaml:"graphite"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
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

// GraphiteConfig contains the Graphite backend connection settings.
//
// The backend is any listener that accepts the Graphite plaintext protocol
// (carbon-cache, go-carbon, VictoriaMetrics). Lines are sent over a
// persistent TCP connection or as UDP datagrams depending on Protocol.
type GraphiteConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Protocol string `yaml:"protocol"` // "tcp" or "udp"
	Prefix   string `yaml:"prefix"`

	// ConnectTimeout and WriteTimeout bound how long a single send may
	// block the event dispatch path, in seconds.
	ConnectTimeout int `yaml:"connect_timeout"`
	WriteTimeout   int `yaml:"write_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
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

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Supported Graphite transport protocols.
const (
	ProtocolTCP = "tcp"
	ProtocolUDP = "udp"
)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAPHITE_FEEDER_SECTION_KEY
// For example: GRAPHITE_FEEDER_MQTT_HOST, GRAPHITE_FEEDER_GRAPHITE_HOST
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

	// Normalise before validation. Trailing dots on the prefix would
	// produce empty path segments on the wire.
	cfg.Graphite.Prefix = strings.TrimRight(cfg.Graphite.Prefix, ".")
	cfg.Graphite.Protocol = strings.ToLower(cfg.Graphite.Protocol)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-graphite",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Graphite: GraphiteConfig{
			Host:           "localhost",
			Port:           2003,
			Protocol:       ProtocolTCP,
			Prefix:         "ha",
			ConnectTimeout: 10,
			WriteTimeout:   5,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8086,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAPHITE_FEEDER_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("GRAPHITE_FEEDER_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAPHITE_FEEDER_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAPHITE_FEEDER_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Graphite
	if v := os.Getenv("GRAPHITE_FEEDER_GRAPHITE_HOST"); v != "" {
		cfg.Graphite.Host = v
	}
	if v := os.Getenv("GRAPHITE_FEEDER_GRAPHITE_PREFIX"); v != "" {
		cfg.Graphite.Prefix = v
	}

	// API
	if v := os.Getenv("GRAPHITE_FEEDER_API_HOST"); v != "" {
		cfg.API.Host = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Graphite validation
	if c.Graphite.Host == "" {
		errs = append(errs, "graphite.host is required")
	}
	if c.Graphite.Port < 1 || c.Graphite.Port > 65535 {
		errs = append(errs, "graphite.port must be between 1 and 65535")
	}
	if c.Graphite.Protocol != ProtocolTCP && c.Graphite.Protocol != ProtocolUDP {
		errs = append(errs, "graphite.protocol must be tcp or udp")
	}
	if c.Graphite.Prefix == "" {
		errs = append(errs, "graphite.prefix is required")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Addr returns the Graphite backend address in host:port form.
func (g GraphiteConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// GetConnectTimeout returns the Graphite connect timeout as a Duration.
func (g GraphiteConfig) GetConnectTimeout() time.Duration {
	return time.Duration(g.ConnectTimeout) * time.Second
}

// GetWriteTimeout returns the Graphite write timeout as a Duration.
func (g GraphiteConfig) GetWriteTimeout() time.Duration {
	return time.Duration(g.WriteTimeout) * time.Second
}
