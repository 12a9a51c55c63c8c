// Package config manages environment variables.
//
// It reads variables from the `.env` file and the process environment,
// loads them into structured Go types (struct), and validates that
// required values are present so they can be reused across the
// application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults for optional config blocks (e.g. observability, warehouse tables).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it gets loaded into the
	// process env before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

/*
	Env vars are read using the prefix METRICS_.

	Keys are normalized: prefix removed, lowercased, and "__" turned into the
	koanf "." delimiter so nested fields can be set from a shell:

	  METRICS_DATABASE__HOST -> database.host -> Config.Database.Host
	  METRICS_DATABASE.HOST  -> database.host (dotted form from .env files)
*/

// EnvPrefix is the prefix every configuration variable must carry.
const EnvPrefix = "METRICS_"

// ServiceName tags logs, traces and APM dashboards.
const ServiceName = "store-metrics"

// Config is the root configuration object for the application.
//
// The `koanf:"..."` tags specify where koanf maps values from.
// The `validate:"..."` tags are enforced by go-playground/validator
// after defaults and env overrides are merged.
type Config struct {
	Primary       Primary             `koanf:"primary" validate:"required"`
	Server        ServerConfig        `koanf:"server" validate:"required"`
	Database      DatabaseConfig      `koanf:"database" validate:"required"`
	Warehouse     WarehouseConfig     `koanf:"warehouse" validate:"required"`
	Redis         RedisConfig         `koanf:"redis"`
	Auth          AuthConfig          `koanf:"auth" validate:"required"`
	RateLimit     RateLimitConfig     `koanf:"rate_limit" validate:"required"`
	Observability ObservabilityConfig `koanf:"observability" validate:"required"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are expressed in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning
// for the analytics warehouse.
//
// ConnMaxLifetime and ConnMaxIdleTime are seconds. QueryTimeout bounds a
// single metric lookup; zero disables the per-query deadline.
type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int           `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int           `koanf:"conn_max_idle_time" validate:"required"`
	QueryTimeout    time.Duration `koanf:"query_timeout"`
	RunMigrations   bool          `koanf:"run_migrations"`
}

// WarehouseConfig names the precomputed fact tables, schema-qualified.
type WarehouseConfig struct {
	MonthlySatisfactionTable string `koanf:"monthly_satisfaction_table" validate:"required"`
	AvgResponseTimeTable     string `koanf:"avg_response_time_table" validate:"required"`
	ParticipationRateTable   string `koanf:"participation_rate_table" validate:"required"`
}

// RedisConfig contains Redis connection details. Address is "host:port".
// Redis is optional; an empty address disables it.
type RedisConfig struct {
	Address string `koanf:"address"`
}

// AuthConfig holds the single static credential accepted by HTTP Basic auth
// on the metrics API.
type AuthConfig struct {
	Username string `koanf:"username" validate:"required"`
	Password string `koanf:"password" validate:"required"`
}

// RateLimitConfig bounds how many metric requests a client IP may issue
// per window.
type RateLimitConfig struct {
	Requests int           `koanf:"requests" validate:"min=1"`
	Window   time.Duration `koanf:"window" validate:"min=1s"`
}

// DefaultWarehouseConfig returns the mart table names produced upstream.
func DefaultWarehouseConfig() WarehouseConfig {
	return WarehouseConfig{
		MonthlySatisfactionTable: "marts.fct_monthly_satisfaction",
		AvgResponseTimeTable:     "marts.fct_avg_response_time",
		ParticipationRateTable:   "marts.fct_participation_rate",
	}
}

// DefaultRateLimitConfig allows 20 requests per second per client.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Requests: 20,
		Window:   time.Second,
	}
}

// defaults is the base layer every env override is merged onto.
func defaults() Config {
	return Config{
		Server: ServerConfig{
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
		},
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			ConnMaxIdleTime: 60,
			QueryTimeout:    10 * time.Second,
		},
		Warehouse:     DefaultWarehouseConfig(),
		RateLimit:     DefaultRateLimitConfig(),
		Observability: DefaultObservabilityConfig(),
	}
}

// listKeys are split on commas when read from the environment.
var listKeys = map[string]bool{
	"server.cors_allowed_origins":        true,
	"observability.health_checks.checks": true,
}

// envValue maps a raw environment variable to a koanf key path and value.
func envValue(key, value string) (string, interface{}) {
	k := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "__", ".")
	if listKeys[k] {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return k, parts
	}
	return k, value
}

// LoadConfig layers environment variables over the defaults, unmarshals the
// result into Config, validates it and returns it.
//
// Environment values are read fresh on every call, which keeps tests free to
// use t.Setenv.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("could not load config defaults: %w", err)
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if err := mainConfig.validate(); err != nil {
		return nil, err
	}

	return mainConfig, nil
}

// MustLoadConfig is LoadConfig for process startup: any error is fatal.
func MustLoadConfig() *Config {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load config")
	}
	return cfg
}

// validate runs the struct-tag rules, pins the observability identity and
// runs the custom observability rules.
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Service name and environment always follow the primary config.
	c.Observability.ServiceName = ServiceName
	c.Observability.Environment = c.Primary.Env

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

// IsLocal reports whether the process runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Primary.Env == "local"
}
