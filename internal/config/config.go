package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	URL          string `mapstructure:"url"`
	AutoMigrate  bool   `mapstructure:"autoMigrate"`
	MaxOpenConns int    `mapstructure:"maxOpenConns"`
}

// LedgerConfig bounds how long stock mutations may wait on contended rows.
type LedgerConfig struct {
	LockTimeout      time.Duration `mapstructure:"lockTimeout"`
	OperationTimeout time.Duration `mapstructure:"operationTimeout"`
	MaxRetries       int           `mapstructure:"maxRetries"`
	RetryDelay       time.Duration `mapstructure:"retryDelay"`
}

type ReplenishmentConfig struct {
	DefaultSupplier string `mapstructure:"defaultSupplier"`
	LeadTimeDays    int    `mapstructure:"leadTimeDays"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type TelemetryConfig struct {
	OtelEndpoint string `mapstructure:"otelEndpoint"`
	ServiceName  string `mapstructure:"serviceName"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Ledger        LedgerConfig        `mapstructure:"ledger"`
	Replenishment ReplenishmentConfig `mapstructure:"replenishment"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry"`
	Log           LogConfig           `mapstructure:"log"`
}

var envBindings = map[string]string{
	"server.port":                   "APP_PORT",
	"server.shutdownTimeout":        "SERVER_SHUTDOWN_TIMEOUT",
	"database.driver":               "DATABASE_DRIVER",
	"database.url":                  "DATABASE_URL",
	"database.autoMigrate":          "DATABASE_AUTO_MIGRATE",
	"database.maxOpenConns":         "DATABASE_MAX_OPEN_CONNS",
	"ledger.lockTimeout":            "LEDGER_LOCK_TIMEOUT",
	"ledger.operationTimeout":       "LEDGER_OPERATION_TIMEOUT",
	"ledger.maxRetries":             "LEDGER_MAX_RETRIES",
	"ledger.retryDelay":             "LEDGER_RETRY_DELAY",
	"replenishment.defaultSupplier": "REPLENISHMENT_DEFAULT_SUPPLIER",
	"replenishment.leadTimeDays":    "REPLENISHMENT_LEAD_TIME_DAYS",
	"kafka.brokers":                 "KAFKA_BROKERS",
	"kafka.topic":                   "KAFKA_TOPIC",
	"telemetry.otelEndpoint":        "OTEL_ENDPOINT",
	"telemetry.serviceName":         "OTEL_SERVICE_NAME",
	"log.level":                     "LOG_LEVEL",
	"log.development":               "LOG_DEVELOPMENT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdownTimeout", "10s")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.autoMigrate", true)
	v.SetDefault("database.maxOpenConns", 20)
	v.SetDefault("ledger.lockTimeout", "2s")
	v.SetDefault("ledger.operationTimeout", "5s")
	v.SetDefault("ledger.maxRetries", 3)
	v.SetDefault("ledger.retryDelay", "20ms")
	v.SetDefault("replenishment.defaultSupplier", "Supplier 1")
	v.SetDefault("replenishment.leadTimeDays", 5)
	v.SetDefault("kafka.topic", "replenishment-orders")
	v.SetDefault("telemetry.serviceName", "stockroom")
	v.SetDefault("log.level", "info")
}

// LoadConfig reads config.yaml from path (optional) and overrides it with
// environment variables. A .env file in the working directory is loaded first
// when present.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return cfg, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.Kafka.Brokers = splitBrokers(cfg.Kafka.Brokers)

	return cfg, cfg.Validate()
}

// KAFKA_BROKERS arrives as a single comma-separated string.
func splitBrokers(in []string) []string {
	var out []string
	for _, b := range in {
		for _, part := range strings.Split(b, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url (DATABASE_URL) is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}
	if c.Replenishment.DefaultSupplier == "" {
		errs = append(errs, errors.New("replenishment.defaultSupplier must not be empty"))
	}
	if c.Replenishment.LeadTimeDays < 0 {
		errs = append(errs, errors.New("replenishment.leadTimeDays must not be negative"))
	}
	if c.Ledger.MaxRetries < 1 {
		errs = append(errs, errors.New("ledger.maxRetries must be at least 1"))
	}
	return errors.Join(errs...)
}
