// Package config loads typed application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const devJWTSecret = "hades-dev-secret-change-me"

type Config struct {
	// --- Application ---
	AppHost      string `envconfig:"APP_HOST" default:"localhost"`
	AppPort      string `envconfig:"APP_PORT" default:"4000"`
	AppEnv       string `envconfig:"APP_ENV" default:"prod"`
	PublicDomain string `envconfig:"PUBLIC_DOMAIN" default:"http://localhost:4000"`

	// --- Database ---
	DBHost     string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort     string `envconfig:"DB_PORT" default:"3306"`
	DBUser     string `envconfig:"DB_USER" default:"hades"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"hades"`

	// --- Cache (redis / dragonfly) ---
	CacheHost     string `envconfig:"CACHE_HOST" default:"localhost"`
	CachePort     int    `envconfig:"CACHE_PORT" default:"6379"`
	CachePassword string `envconfig:"CACHE_PASSWORD"`

	// --- Sessions ---
	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	// --- Object storage ---
	S3AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Region          string `envconfig:"S3_REGION" default:"us-east-1"`
	S3EndpointURL     string `envconfig:"S3_ENDPOINT_URL"`
	S3ConfigBucket    string `envconfig:"S3_CONFIG_BUCKET" default:"configs"`
	S3AvatarBucket    string `envconfig:"S3_AVATAR_BUCKET" default:"avatars"`
	S3PublicBaseURL   string `envconfig:"S3_PUBLIC_BASE_URL"`
	ClientBinaryKey   string `envconfig:"CLIENT_BINARY_KEY" default:"client/hades.dll"`

	// --- Stripe ---
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripePriceCents    int64  `envconfig:"STRIPE_PRICE_CENTS" default:"1000"`
	StripeCurrency      string `envconfig:"STRIPE_CURRENCY" default:"eur"`
	StripeProductName   string `envconfig:"STRIPE_PRODUCT_NAME" default:"Hades Premium"`
	StripeInterval      string `envconfig:"STRIPE_INTERVAL" default:"month"`

	// --- Abuse protection ---
	HCaptchaSecret  string        `envconfig:"HCAPTCHA_SECRET"`
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"10"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Metrics ---
	MetricsUser     string `envconfig:"METRICS_USER" default:"admin"`
	MetricsPassword string `envconfig:"METRICS_PASSWORD"`
}

// Load reads the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field rules and fills dev-only fallbacks.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if !c.IsDev() {
			return errors.New("config: JWT_SECRET is required")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.DBPassword == "" && !c.IsDev() {
		return errors.New("config: DB_PASSWORD is required")
	}
	if c.JWTTTL <= 0 {
		return errors.New("config: JWT_TTL must be positive")
	}
	if c.StripePriceCents <= 0 {
		return errors.New("config: STRIPE_PRICE_CENTS must be positive")
	}
	if c.RateLimitMax <= 0 {
		return errors.New("config: RATE_LIMIT_MAX must be positive")
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}

// ListenAddr is host:port for fiber's Listen.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.AppHost, c.AppPort)
}

// DatabaseDSN returns the go-sql-driver/mysql DSN used by gorm.
func (c *Config) DatabaseDSN() string {
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// MigrationURL is the golang-migrate mysql URL for the same database.
func (c *Config) MigrationURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// StorageConfigured reports whether S3 credentials were provided.
func (c *Config) StorageConfigured() bool {
	return c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}
