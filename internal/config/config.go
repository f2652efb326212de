package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/tournevent/lalamove/pkg/lalamove"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Lalamove
	LalamoveAPIKey      string        `envconfig:"LALAMOVE_API_KEY"`
	LalamoveAPISecret   string        `envconfig:"LALAMOVE_API_SECRET"`
	LalamoveMarket      string        `envconfig:"LALAMOVE_MARKET" default:"MY"`
	LalamoveEnvironment string        `envconfig:"LALAMOVE_ENVIRONMENT" default:"production"`
	LalamoveTimeout     time.Duration `envconfig:"LALAMOVE_TIMEOUT" default:"30s"`
	LalamoveDebug       bool          `envconfig:"LALAMOVE_DEBUG" default:"false"`
	LalamoveEnabled     bool          `envconfig:"LALAMOVE_ENABLED" default:"true"`
	LalamoveUseMock     bool          `envconfig:"LALAMOVE_USE_MOCK" default:"false"`

	// City cache; in-memory when RedisURL is empty
	RedisURL     string        `envconfig:"REDIS_URL"`
	CityCacheTTL time.Duration `envconfig:"CITY_CACHE_TTL" default:"1h"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.claude.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"delivro-lalamove"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; variables already set in
// the environment take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	if _, err := lalamove.ParseEnvironment(c.LalamoveEnvironment); err != nil {
		return fmt.Errorf("invalid LALAMOVE_ENVIRONMENT: %w", err)
	}
	if c.LalamoveEnabled && !c.LalamoveUseMock {
		if c.LalamoveAPIKey == "" || c.LalamoveAPISecret == "" {
			return errors.New("LALAMOVE_API_KEY and LALAMOVE_API_SECRET are required unless LALAMOVE_USE_MOCK is set")
		}
	}
	if c.CityCacheTTL < 0 {
		return fmt.Errorf("invalid CITY_CACHE_TTL: %s", c.CityCacheTTL)
	}
	return nil
}

// Lalamove returns the carrier configuration.
func (c *Config) Lalamove() lalamove.Config {
	env, _ := lalamove.ParseEnvironment(c.LalamoveEnvironment)
	return lalamove.Config{
		APIKey:      c.LalamoveAPIKey,
		APISecret:   c.LalamoveAPISecret,
		Market:      c.LalamoveMarket,
		Environment: env,
		Timeout:     c.LalamoveTimeout,
		Debug:       c.LalamoveDebug,
		UseMock:     c.LalamoveUseMock,
	}
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("lalamove.enabled", c.LalamoveEnabled),
		attribute.String("lalamove.market", c.LalamoveMarket),
		attribute.String("lalamove.environment", c.LalamoveEnvironment),
		attribute.Bool("lalamove.mock", c.LalamoveUseMock),
		attribute.Bool("cache.redis", c.RedisURL != ""),
	}
}
