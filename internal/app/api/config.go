package api

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"go.temporal.io/sdk/client"
	"gopkg.in/yaml.v3"
)

// Supported values for Config.StoreDriver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config carries the settings shared by the api, worker and migrate binaries.
type Config struct {
	Port                   string `yaml:"port" toml:"port"`
	StoreDriver            string `yaml:"store_driver" toml:"store_driver"`
	PostgresDSN            string `yaml:"postgres_dsn" toml:"postgres_dsn"`
	MySQLDSN               string `yaml:"mysql_dsn" toml:"mysql_dsn"`
	TemporalAddress        string `yaml:"temporal_address" toml:"temporal_address"`
	TemporalNamespace      string `yaml:"temporal_namespace" toml:"temporal_namespace"`
	TemporalDisabled       bool   `yaml:"temporal_disabled" toml:"temporal_disabled"`
	LocationBaseURL        string `yaml:"location_base_url" toml:"location_base_url"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds" toml:"shutdown_timeout_seconds"`
	IdempotencyEnabled     bool   `yaml:"idempotency_enabled" toml:"idempotency_enabled"`
	AutoMigrate            bool   `yaml:"auto_migrate" toml:"auto_migrate"`
	LogLevel               string `yaml:"log_level" toml:"log_level"`
	Environment            string `yaml:"environment" toml:"environment"`
	OTLPEndpoint           string `yaml:"otlp_endpoint" toml:"otlp_endpoint"`
	OTLPInsecure           bool   `yaml:"otlp_insecure" toml:"otlp_insecure"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Port:                   "8080",
		TemporalAddress:        client.DefaultHostPort,
		TemporalNamespace:      client.DefaultNamespace,
		ShutdownTimeoutSeconds: 10,
		AutoMigrate:            true,
		LogLevel:               "info",
		Environment:            "local",
		OTLPInsecure:           true,
	}
}

// LoadConfig applies defaults, then the optional YAML or TOML file at path,
// then environment overrides, and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path = strings.TrimSpace(path); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if cfg.LocationBaseURL == "" {
		cfg.LocationBaseURL = "http://localhost:" + cfg.Port
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(raw))
		decoder.KnownFields(true)
		if err := decoder.Decode(c); err != nil {
			return fmt.Errorf("decode yaml config %s: %w", path, err)
		}
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(raw))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(c); err != nil {
			return fmt.Errorf("decode toml config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}

func (c *Config) applyEnv() error {
	overrideString(&c.Port, "PORT")
	overrideString(&c.StoreDriver, "STORE_DRIVER")
	overrideString(&c.PostgresDSN, "POSTGRES_DSN")
	overrideString(&c.MySQLDSN, "MYSQL_DSN")
	overrideString(&c.TemporalAddress, "TEMPORAL_ADDRESS")
	overrideString(&c.TemporalNamespace, "TEMPORAL_NAMESPACE")
	overrideString(&c.LocationBaseURL, "LOCATION_BASE_URL")
	overrideString(&c.LogLevel, "LOG_LEVEL")
	overrideString(&c.Environment, "ENVIRONMENT")
	overrideString(&c.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	overrideBool(&c.TemporalDisabled, "TEMPORAL_DISABLED")
	overrideBool(&c.IdempotencyEnabled, "IDEMPOTENCY_ENABLED")
	overrideBool(&c.AutoMigrate, "AUTO_MIGRATE")
	if raw, ok := lookupEnv("OTEL_EXPORTER_OTLP_INSECURE"); ok {
		c.OTLPInsecure = raw != "0" && !strings.EqualFold(raw, "false")
	}
	if raw, ok := lookupEnv("SHUTDOWN_TIMEOUT_SECONDS"); ok {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT_SECONDS must be an integer: %w", err)
		}
		c.ShutdownTimeoutSeconds = seconds
	}
	return nil
}

// Validate checks basic constraints.
func (c Config) Validate() error {
	switch strings.ToLower(c.StoreDriver) {
	case "", DriverMemory, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("store driver must be one of memory, postgres, mysql; got %q", c.StoreDriver)
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("shutdown timeout must be a positive number of seconds")
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535; got %q", c.Port)
	}
	return nil
}

// Driver resolves the store driver. Without an explicit choice, a Postgres DSN
// selects postgres and everything else runs in memory.
func (c Config) Driver() string {
	if driver := strings.ToLower(strings.TrimSpace(c.StoreDriver)); driver != "" {
		return driver
	}
	if c.PostgresDSN != "" {
		return DriverPostgres
	}
	return DriverMemory
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// ShutdownTimeout is the grace period for in-flight requests on shutdown.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

func overrideString(target *string, key string) {
	if val, ok := lookupEnv(key); ok {
		*target = val
	}
}

func overrideBool(target *bool, key string) {
	if val, ok := lookupEnv(key); ok {
		*target = isTruthy(val)
	}
}

func lookupEnv(key string) (string, bool) {
	val := strings.TrimSpace(os.Getenv(key))
	return val, val != ""
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
