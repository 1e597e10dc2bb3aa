package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends accepted by HomeConfig.Storage.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config is the root configuration structure for the smart home core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Home       HomeConfig       `yaml:"home"`
	Automation AutomationConfig `yaml:"automation"`
	Database   DatabaseConfig   `yaml:"database"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// HomeConfig describes where the home's state and event log live.
type HomeConfig struct {
	Name string `yaml:"name"`

	// Storage selects the snapshot backend: "file" (JSON documents) or "sqlite".
	Storage string `yaml:"storage"`

	// DataFile holds users and devices when Storage is "file".
	DataFile string `yaml:"data_file"`

	// RulesFile holds the rule description log when Storage is "file".
	RulesFile string `yaml:"rules_file"`

	// EventLog is the append-only text event log. Empty disables it.
	EventLog string `yaml:"event_log"`
}

// AutomationConfig contains defaults for the built-in rule templates.
type AutomationConfig struct {
	TemperatureHigh float64 `yaml:"temperature_high"`
	TemperatureLow  float64 `yaml:"temperature_low"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// EventLog mirrors every recorded event into the event_log table.
	EventLog bool `yaml:"event_log"`
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
	MaxAttempts  int `yaml:"max_attempts"`
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

	// File is used when Output is "file".
	File string `yaml:"file"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// TextfilePath is written after each command in the node_exporter
	// textfile collector format.
	TextfilePath string `yaml:"textfile_path"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults), skipped when path is empty or the file does not exist
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SMARTHOME_SECTION_KEY
// For example: SMARTHOME_HOME_DATA_FILE, SMARTHOME_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// First run without a config file: defaults apply.
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Home: HomeConfig{
			Name:      "Home",
			Storage:   StorageFile,
			DataFile:  "data.json",
			RulesFile: "automation_rules.json",
			EventLog:  "logs.txt",
		},
		Automation: AutomationConfig{
			TemperatureHigh: 30,
			TemperatureLow:  20,
		},
		Database: DatabaseConfig{
			Path:        "./data/smarthome.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "smarthome-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Org:           "smarthome",
			Bucket:        "devices",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Home
	if v := os.Getenv("SMARTHOME_HOME_STORAGE"); v != "" {
		cfg.Home.Storage = v
	}
	if v := os.Getenv("SMARTHOME_HOME_DATA_FILE"); v != "" {
		cfg.Home.DataFile = v
	}
	if v := os.Getenv("SMARTHOME_HOME_RULES_FILE"); v != "" {
		cfg.Home.RulesFile = v
	}
	if v := os.Getenv("SMARTHOME_HOME_EVENT_LOG"); v != "" {
		cfg.Home.EventLog = v
	}

	// Database
	if v := os.Getenv("SMARTHOME_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("SMARTHOME_MQTT_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MQTT.Enabled = b
		}
	}
	if v := os.Getenv("SMARTHOME_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SMARTHOME_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SMARTHOME_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("SMARTHOME_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("SMARTHOME_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	switch c.Home.Storage {
	case StorageFile:
		if c.Home.DataFile == "" {
			errs = append(errs, "home.data_file is required for file storage")
		}
		if c.Home.RulesFile == "" {
			errs = append(errs, "home.rules_file is required for file storage")
		}
	case StorageSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for sqlite storage")
		}
	default:
		errs = append(errs, fmt.Sprintf("home.storage must be %q or %q", StorageFile, StorageSQLite))
	}

	if c.Database.EventLog && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database.event_log is enabled")
	}

	if c.Automation.TemperatureLow >= c.Automation.TemperatureHigh {
		errs = append(errs, "automation.temperature_low must be below automation.temperature_high")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && (c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535) {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if strings.EqualFold(c.Logging.Output, "file") && c.Logging.File == "" {
		errs = append(errs, "logging.file is required when logging.output is file")
	}

	if c.Metrics.Enabled && c.Metrics.TextfilePath == "" {
		errs = append(errs, "metrics.textfile_path is required when metrics are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// FlushInterval returns the InfluxDB flush interval as a Duration.
func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.InfluxDB.FlushInterval) * time.Second
}
