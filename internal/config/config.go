package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Log      LogConfig
	Redis    RedisConfig
	Checkout CheckoutConfig
	Metrics  MetricsConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, always set DB_PASSWORD via environment variable.
// In production, set DB_SSLMODE to "require" or "verify-full".
type DBConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        int    `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name        string `envconfig:"DB_NAME" default:"sneaker_db"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"` // Use "require" in production
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns, c.MinConns)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// RedisConfig configures the idempotency store. Idempotency is disabled when URL is empty.
type RedisConfig struct {
	URL            string        `envconfig:"REDIS_URL"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
}

// Enabled reports whether a Redis URL was configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

// CheckoutConfig tunes the settlement engine.
type CheckoutConfig struct {
	MaxAttempts       int           `envconfig:"CHECKOUT_MAX_ATTEMPTS" default:"3"`
	RetryBackoff      time.Duration `envconfig:"CHECKOUT_RETRY_BACKOFF" default:"25ms"`
	ShippingFlatRate  string        `envconfig:"CHECKOUT_SHIPPING_FLAT_RATE" default:"0"`
	StrictPromotions  bool          `envconfig:"CHECKOUT_STRICT_PROMOTIONS" default:"false"`
	LookupConcurrency int           `envconfig:"CHECKOUT_LOOKUP_CONCURRENCY" default:"8"`
}

// ShippingRate parses ShippingFlatRate as a currency amount.
func (c CheckoutConfig) ShippingRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.ShippingFlatRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid CHECKOUT_SHIPPING_FLAT_RATE %q: %w", c.ShippingFlatRate, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("CHECKOUT_SHIPPING_FLAT_RATE must not be negative")
	}
	return rate.Round(2), nil
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"METRICS_PATH" default:"/metrics"`
}

// Load reads an optional .env file, then parses environment variables into the Config struct.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Checkout.MaxAttempts < 1 {
		return errors.New("CHECKOUT_MAX_ATTEMPTS must be at least 1")
	}
	if c.Checkout.LookupConcurrency < 1 {
		return errors.New("CHECKOUT_LOOKUP_CONCURRENCY must be at least 1")
	}
	if _, err := c.Checkout.ShippingRate(); err != nil {
		return err
	}
	return nil
}
