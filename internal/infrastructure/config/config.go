package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/neuroair-core/internal/command"
	"github.com/nerrad567/neuroair-core/internal/scent"
)

// Driver names accepted in device.driver.
const (
	DriverMQTT = "mqtt"
	DriverLog  = "log"
)

// Config is the root configuration structure for NeuroAIR Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	Speech    SpeechConfig    `yaml:"speech"`
	Platforms PlatformsConfig `yaml:"platforms"`

	// Profiles, Commands and Scenes replace the built-in defaults when set.
	Profiles []scent.Profile          `yaml:"profiles"`
	Commands []command.CommandBinding `yaml:"commands"`
	Scenes   []command.SceneBinding   `yaml:"scenes"`
}

// DeviceConfig describes the controlled appliance.
type DeviceConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	RoomHint string `yaml:"room_hint"`

	// Driver selects how commands reach the appliance: "mqtt" or "log".
	Driver string `yaml:"driver"`

	// SleepDelay is how long the sleep routine keeps the appliance on.
	SleepDelay time.Duration `yaml:"sleep_delay"`

	// EmotionThreshold is the confidence above which an unmatched
	// utterance still triggers emotion adaptation.
	EmotionThreshold float64 `yaml:"emotion_threshold"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// HistoryRetention bounds how long dispatch history is kept. 0 keeps everything.
	HistoryRetention time.Duration `yaml:"history_retention"`
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

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
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

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`

	// AuthEnabled guards the API and platform endpoints with link tokens.
	AuthEnabled bool `yaml:"auth_enabled"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`

	// LinkTokenTTL is the lifetime of platform link tokens in hours.
	LinkTokenTTL int `yaml:"link_token_ttl"`
}

// SpeechConfig configures the external audio processor.
type SpeechConfig struct {
	// URL is the processor's WebSocket endpoint. Empty disables audio input.
	URL      string `yaml:"url"`
	Language string `yaml:"language"`

	// Timeout bounds one recognition session, in seconds.
	Timeout int `yaml:"timeout"`
}

// PlatformsConfig configures the smart-home platform adapters.
type PlatformsConfig struct {
	Yandex        PlatformToggle `yaml:"yandex"`
	Google        GoogleConfig   `yaml:"google"`
	HomeAssistant PlatformToggle `yaml:"home_assistant"`

	// TextConfidence is attached to text-only voice requests, which carry
	// no recogniser confidence of their own. At or below the emotion
	// threshold an unmatched phrase is reported as not understood.
	TextConfidence float64 `yaml:"text_confidence"`
}

// PlatformToggle enables or disables a platform adapter.
type PlatformToggle struct {
	Enabled bool `yaml:"enabled"`
}

// GoogleConfig configures the Google Home adapter.
type GoogleConfig struct {
	Enabled     bool   `yaml:"enabled"`
	AgentUserID string `yaml:"agent_user_id"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//  4. Validation, including the profile catalog and command bindings
//
// Environment variables follow the pattern: NEUROAIR_SECTION_KEY
// For example: NEUROAIR_DATABASE_PATH, NEUROAIR_MQTT_HOST
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
	if _, err := cfg.Catalog(); err != nil {
		return nil, fmt.Errorf("validating profiles: %w", err)
	}
	if _, err := cfg.Registry(); err != nil {
		return nil, fmt.Errorf("validating commands: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			ID:               "neuroair-1",
			Name:             "NeuroAIR Ароматизатор",
			RoomHint:         "Living Room",
			Driver:           DriverMQTT,
			SleepDelay:       30 * time.Minute,
			EmotionThreshold: 0.7,
		},
		Database: DatabaseConfig{
			Path:        "./data/neuroair.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "neuroair-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
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
		Security: SecurityConfig{
			AuthEnabled: true,
			JWT: JWTConfig{
				Issuer:       "neuroair-core",
				LinkTokenTTL: 24 * 365,
			},
		},
		Speech: SpeechConfig{
			Language: "ru",
			Timeout:  30,
		},
		Platforms: PlatformsConfig{
			Yandex:         PlatformToggle{Enabled: true},
			Google:         GoogleConfig{Enabled: true, AgentUserID: "neuroair-user"},
			HomeAssistant:  PlatformToggle{Enabled: true},
			TextConfidence: 0.5,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: NEUROAIR_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("NEUROAIR_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}
	if v := os.Getenv("NEUROAIR_DEVICE_DRIVER"); v != "" {
		cfg.Device.Driver = v
	}

	// Database
	if v := os.Getenv("NEUROAIR_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("NEUROAIR_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("NEUROAIR_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("NEUROAIR_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("NEUROAIR_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("NEUROAIR_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("NEUROAIR_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("NEUROAIR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Speech
	if v := os.Getenv("NEUROAIR_SPEECH_URL"); v != "" {
		cfg.Speech.URL = v
	}

	// Security - JWT secret (always override in production)
	if v := os.Getenv("NEUROAIR_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Device validation
	if c.Device.ID == "" {
		errs = append(errs, "device.id is required")
	}
	if c.Device.Driver != DriverMQTT && c.Device.Driver != DriverLog {
		errs = append(errs, fmt.Sprintf("device.driver must be %q or %q", DriverMQTT, DriverLog))
	}
	if c.Device.SleepDelay <= 0 {
		errs = append(errs, "device.sleep_delay must be positive")
	}
	if c.Device.EmotionThreshold <= 0 || c.Device.EmotionThreshold > 1 {
		errs = append(errs, "device.emotion_threshold must be above 0 and at most 1")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Platforms validation
	if c.Platforms.TextConfidence < 0 || c.Platforms.TextConfidence > 1 {
		errs = append(errs, "platforms.text_confidence must be between 0 and 1")
	}

	// Security validation - the JWT secret signs platform link tokens.
	const minJWTSecretLength = 32
	if c.Security.AuthEnabled {
		if c.Security.JWT.Secret == "" {
			errs = append(errs, "security.jwt.secret is required (set NEUROAIR_JWT_SECRET environment variable)")
		} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
			errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Catalog builds the scent profile catalog, falling back to the
// built-in profiles when none are configured. The catalog must contain
// a "default" profile.
func (c *Config) Catalog() (*scent.Catalog, error) {
	profiles := c.Profiles
	if len(profiles) == 0 {
		profiles = scent.DefaultProfiles()
	}

	catalog, err := scent.NewCatalog(profiles...)
	if err != nil {
		return nil, err
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Registry builds the command registry, falling back to the built-in
// phrases and scenes for whichever list is not configured.
func (c *Config) Registry() (*command.Registry, error) {
	commands := c.Commands
	if len(commands) == 0 {
		commands = command.DefaultCommands()
	}
	scenes := c.Scenes
	if len(scenes) == 0 {
		scenes = command.DefaultScenes()
	}
	return command.NewRegistry(commands, scenes)
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

// GetSpeechTimeout returns the recognition session timeout as a Duration.
func (c *Config) GetSpeechTimeout() time.Duration {
	return time.Duration(c.Speech.Timeout) * time.Second
}

// GetLinkTokenTTL returns the platform link token lifetime as a Duration.
func (c *Config) GetLinkTokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.LinkTokenTTL) * time.Hour
}
