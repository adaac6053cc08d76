package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	LogLevel          string
	DBDSN             string
	DBMaxConns        int
	JWTSecret         string
	JWTAccessTokenTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AMQPURL        string
	NotifyExchange string

	PaymentGatewayURL   string
	PaymentGatewayKey   string
	PaymentWebhookToken string
	PaymentTimeout      time.Duration
	IdempotencyTTL      time.Duration

	BulkMaxItems int

	RateLimitEnabled        bool
	RateLimitCapacity       int
	RateLimitRefillInterval time.Duration
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded")
	}

	cfg := &Config{}
	var err error

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}
	if cfg.DBMaxConns, err = getEnvAsInt("DB_MAX_CONNS", 0); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	// JWT secret is required for verifying staff tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_TTL: %w", err)
	}

	// Redis backs payment idempotency and rate limiting; empty disables both.
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisDB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	// Empty AMQP_URL falls back to log-only notifications.
	cfg.AMQPURL = getEnv("AMQP_URL", "")
	cfg.NotifyExchange = getEnv("NOTIFY_EXCHANGE", "hotel.events")

	cfg.PaymentGatewayURL = os.Getenv("PAYMENT_GATEWAY_URL")
	if cfg.PaymentGatewayURL == "" {
		return nil, fmt.Errorf("PAYMENT_GATEWAY_URL is required")
	}
	cfg.PaymentGatewayKey = getEnv("PAYMENT_GATEWAY_KEY", "")
	cfg.PaymentWebhookToken = os.Getenv("PAYMENT_WEBHOOK_TOKEN")
	if cfg.PaymentWebhookToken == "" {
		return nil, fmt.Errorf("PAYMENT_WEBHOOK_TOKEN is required")
	}
	if cfg.PaymentTimeout, err = getEnvAsDuration("PAYMENT_TIMEOUT", 10*time.Second); err != nil {
		return nil, fmt.Errorf("invalid PAYMENT_TIMEOUT: %w", err)
	}
	if cfg.IdempotencyTTL, err = getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return nil, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
	}

	if cfg.BulkMaxItems, err = getEnvAsInt("BULK_MAX_ITEMS", 50); err != nil {
		return nil, fmt.Errorf("invalid BULK_MAX_ITEMS: %w", err)
	}
	if cfg.BulkMaxItems < 1 {
		return nil, fmt.Errorf("BULK_MAX_ITEMS must be positive")
	}

	if cfg.RateLimitEnabled, err = getEnvAsBool("RATE_LIMIT_ENABLED", true); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_ENABLED: %w", err)
	}
	if cfg.RateLimitCapacity, err = getEnvAsInt("RATE_LIMIT_CAPACITY", 60); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_CAPACITY: %w", err)
	}
	if cfg.RateLimitRefillInterval, err = getEnvAsDuration("RATE_LIMIT_REFILL_INTERVAL", time.Second); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_INTERVAL: %w", err)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Return 0 and a wrapped error to provide context
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration parses values such as "15m" or "1h".
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	return val, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid boolean: %w", key, valStr, err)
	}
	return val, nil
}
