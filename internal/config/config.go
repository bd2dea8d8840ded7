package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Auth       AuthConfig
	CORS       CORSConfig
	Logging    LoggingConfig
	Redis      RedisConfig
	Stripe     StripeConfig
	Storage    StorageConfig
	Moderation ModerationConfig
	Jobs       JobsConfig

	// SeedDemoData loads sample listings into an empty in-memory store.
	SeedDemoData bool
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver   string // postgres or memory
	URL      string // Full PostgreSQL URL
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int
	Host string
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	JWTSecret string
	AdminRole string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// RedisConfig enables the listing cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// StripeConfig enables billing when SecretKey is set.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	SuccessURL    string
	CancelURL     string
}

// StorageConfig enables photo uploads when Endpoint is set.
type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// ModerationConfig selects the verification policy.
type ModerationConfig struct {
	Strict bool
}

// JobsConfig schedules background work.
type JobsConfig struct {
	SweepSchedule string
	SweepGrace    time.Duration
}

// Load reads config/local.env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load("config/local.env")
	return FromEnv()
}

// FromEnv reads configuration from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{}

	if err := cfg.loadDatabase(); err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	if err := cfg.loadServer(); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	cfg.loadAuth()
	cfg.loadCORS()
	cfg.loadLogging()
	if err := cfg.loadRedis(); err != nil {
		return nil, fmt.Errorf("load redis config: %w", err)
	}
	cfg.loadStripe()
	cfg.loadStorage()
	if err := cfg.loadFlags(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadDatabase() error {
	c.Database.Driver = strings.ToLower(getEnvOrDefault("STORE_DRIVER", DriverPostgres))
	c.Database.URL = os.Getenv("DATABASE_URL")
	if c.Database.URL != "" {
		return nil
	}

	c.Database.Host = getEnvOrDefault("DB_HOST", "localhost")
	c.Database.User = os.Getenv("DB_USER")
	c.Database.Password = os.Getenv("DB_PASSWORD")
	c.Database.Name = os.Getenv("DB_NAME")
	c.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")

	port, err := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	c.Database.Port = port

	if c.Database.Host != "" && c.Database.User != "" && c.Database.Name != "" {
		c.Database.URL = fmt.Sprintf(
			"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
			c.Database.User,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
			c.Database.SSLMode,
		)
	}
	return nil
}

func (c *Config) loadServer() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}
	c.Server.Port = port
	c.Server.Host = getEnvOrDefault("HOST", "0.0.0.0")
	return nil
}

func (c *Config) loadAuth() {
	c.Auth.JWTSecret = os.Getenv("AUTH_JWT_SECRET")
	c.Auth.AdminRole = getEnvOrDefault("AUTH_ADMIN_ROLE", "admin")
}

func (c *Config) loadCORS() {
	c.CORS.AllowedOrigins = splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"))
}

func (c *Config) loadLogging() {
	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", "info")
	c.Logging.Format = getEnvOrDefault("LOG_FORMAT", "json")
}

func (c *Config) loadRedis() error {
	c.Redis.Addr = os.Getenv("REDIS_ADDR")
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")

	db, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	c.Redis.DB = db

	ttl, err := time.ParseDuration(getEnvOrDefault("LISTING_CACHE_TTL", "1h"))
	if err != nil {
		return fmt.Errorf("invalid LISTING_CACHE_TTL: %w", err)
	}
	c.Redis.TTL = ttl
	return nil
}

func (c *Config) loadStripe() {
	c.Stripe.SecretKey = os.Getenv("STRIPE_SECRET_KEY")
	c.Stripe.WebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	c.Stripe.PriceID = os.Getenv("STRIPE_PRICE_ID")
	c.Stripe.SuccessURL = getEnvOrDefault("STRIPE_SUCCESS_URL", "http://localhost:5173/profile?checkout=success")
	c.Stripe.CancelURL = getEnvOrDefault("STRIPE_CANCEL_URL", "http://localhost:5173/profile?checkout=cancelled")
}

func (c *Config) loadStorage() {
	c.Storage.Endpoint = os.Getenv("S3_ENDPOINT")
	c.Storage.AccessKey = os.Getenv("S3_ACCESS_KEY")
	c.Storage.SecretKey = os.Getenv("S3_SECRET_KEY")
	c.Storage.Bucket = getEnvOrDefault("S3_BUCKET", "listing-photos")
	c.Storage.UseSSL = getEnvOrDefault("S3_USE_SSL", "false") == "true"
	c.Storage.PublicBaseURL = os.Getenv("S3_PUBLIC_BASE_URL")
}

func (c *Config) loadFlags() error {
	var err error
	if c.Moderation.Strict, err = parseBool("MODERATION_STRICT", false); err != nil {
		return err
	}
	if c.SeedDemoData, err = parseBool("SEED_DEMO_DATA", false); err != nil {
		return err
	}
	c.Jobs.SweepSchedule = getEnvOrDefault("SUBSCRIPTION_SWEEP_SCHEDULE", "@every 1h")
	grace, err := time.ParseDuration(getEnvOrDefault("SUBSCRIPTION_GRACE_PERIOD", "48h"))
	if err != nil {
		return fmt.Errorf("invalid SUBSCRIPTION_GRACE_PERIOD: %w", err)
	}
	c.Jobs.SweepGrace = grace
	return nil
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var errors []string

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			errors = append(errors, "DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
		}
	case DriverMemory:
	default:
		errors = append(errors, "STORE_DRIVER must be one of: postgres, memory")
	}

	if c.Auth.JWTSecret == "" {
		errors = append(errors, "AUTH_JWT_SECRET is required")
	} else if len(c.Auth.JWTSecret) < 16 {
		errors = append(errors, "AUTH_JWT_SECRET must be at least 16 characters")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, "PORT must be between 1 and 65535")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errors = append(errors, "LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		errors = append(errors, "LOG_FORMAT must be one of: json, text")
	}

	if c.Stripe.SecretKey != "" {
		if c.Stripe.WebhookSecret == "" {
			errors = append(errors, "STRIPE_WEBHOOK_SECRET is required when STRIPE_SECRET_KEY is set")
		}
		if c.Stripe.PriceID == "" {
			errors = append(errors, "STRIPE_PRICE_ID is required when STRIPE_SECRET_KEY is set")
		}
	}
	if c.Storage.Endpoint != "" && (c.Storage.AccessKey == "" || c.Storage.SecretKey == "") {
		errors = append(errors, "S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_ENDPOINT is set")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
