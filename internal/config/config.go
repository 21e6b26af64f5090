package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the gateway and the edge agent
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	Retention  RetentionConfig  `mapstructure:"retention"`
	Edge       EdgeConfig       `mapstructure:"edge"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	TimescaleDB PostgresConfig `mapstructure:"timescaledb"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MQTTConfig struct {
	BrokerURL      string        `mapstructure:"broker_url"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	ClientID       string        `mapstructure:"client_id"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	TelemetryTopic string        `mapstructure:"telemetry_topic"`
	AlertTopic     string        `mapstructure:"alert_topic"`
	LegacyTopic    string        `mapstructure:"legacy_topic"`
}

type ThresholdsConfig struct {
	TemperatureMax float64 `mapstructure:"temperature_max"`
	ShockMax       float64 `mapstructure:"shock_max"`
}

// IngestConfig controls the ordering between persistence and broadcast.
// "broadcast_first" sends threshold alerts before persistence is attempted;
// "persist_first" gates every broadcast on successful storage.
type IngestConfig struct {
	Policy string `mapstructure:"policy"`
}

// RetentionConfig controls the gateway-side sweep that trims readings older
// than MaxAge. The hypertable retention policy is the primary mechanism; the
// sweep covers deployments where the policy could not be installed.
type RetentionConfig struct {
	MaxAge        time.Duration `mapstructure:"max_age"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type EdgeConfig struct {
	DeviceID         string        `mapstructure:"device_id"`
	MotionInterval   time.Duration `mapstructure:"motion_interval"`
	ReportInterval   time.Duration `mapstructure:"report_interval"`
	ConnectInterval  time.Duration `mapstructure:"connect_interval"`
	BufferPath       string        `mapstructure:"buffer_path"`
	BufferMaxRecords int           `mapstructure:"buffer_max_records"`
}

const (
	IngestPolicyBroadcastFirst = "broadcast_first"
	IngestPolicyPersistFirst   = "persist_first"
)

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("CARGOMON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.timescaledb.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.db", 0)

	// MQTT defaults
	viper.SetDefault("mqtt.broker_url", "tcp://localhost:1883")
	viper.SetDefault("mqtt.connect_timeout", "10s")
	viper.SetDefault("mqtt.telemetry_topic", "cargo/telemetry")
	viper.SetDefault("mqtt.alert_topic", "cargo/alerts")
	viper.SetDefault("mqtt.legacy_topic", "cargo/telemetry")

	// Threshold defaults (cold-chain cargo)
	viper.SetDefault("thresholds.temperature_max", 8.0)
	viper.SetDefault("thresholds.shock_max", 2.5)

	// Ingest defaults
	viper.SetDefault("ingest.policy", IngestPolicyBroadcastFirst)

	// Retention defaults: 13 months, matching the hypertable policy
	viper.SetDefault("retention.max_age", "9528h")
	viper.SetDefault("retention.sweep_interval", "24h")

	// Edge defaults
	viper.SetDefault("edge.motion_interval", "20ms")
	viper.SetDefault("edge.report_interval", "5s")
	viper.SetDefault("edge.connect_interval", "15s")
	viper.SetDefault("edge.buffer_path", "./offline_buffer.jsonl")
	viper.SetDefault("edge.buffer_max_records", 10000)
}

func validateConfig(config *Config) error {
	if config.MQTT.BrokerURL == "" {
		return fmt.Errorf("mqtt broker_url is required")
	}
	if config.Ingest.Policy != IngestPolicyBroadcastFirst &&
		config.Ingest.Policy != IngestPolicyPersistFirst {
		return fmt.Errorf("ingest policy must be %q or %q",
			IngestPolicyBroadcastFirst, IngestPolicyPersistFirst)
	}
	if config.Retention.MaxAge <= 0 || config.Retention.SweepInterval <= 0 {
		return fmt.Errorf("retention max_age and sweep_interval must be positive")
	}
	if config.Edge.BufferMaxRecords < 0 {
		return fmt.Errorf("edge buffer_max_records must not be negative")
	}
	return nil
}
