package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL    string
	MigrationsPath string
	LogLevel       string
	LogFormat      string
	Port           string
	PrometheusPort string
	CORSOrigins    []string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	TokenTTL    time.Duration

	StripeSecretKey      string
	StripePublishableKey string
	FrontendURL          string
	PriceAmount          int64
	PriceCurrency        string
	PaymentSweepInterval time.Duration

	CloudinaryURL string

	TelegramToken  string
	TelegramChatID int64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "text"),
		Port:           getEnvOrDefault("PORT", "8080"),
		PrometheusPort: getEnvOrDefault("PROMETHEUS_PORT", "9090"),
		CORSOrigins:    splitList(getEnvOrDefault("CORS_ORIGINS", "http://localhost:3000")),

		JWTIssuer:   getEnvOrDefault("JWT_ISSUER", "familyalbum"),
		JWTAudience: getEnvOrDefault("JWT_AUDIENCE", "familyalbum-web"),

		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		FrontendURL:          strings.TrimSuffix(getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"), "/"),
		PriceCurrency:        strings.ToLower(getEnvOrDefault("PRICE_CURRENCY", "inr")),

		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
	}

	// Required environment variables
	if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if cfg.JWTSecret = os.Getenv("JWT_SECRET"); cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(getEnvOrDefault("TOKEN_TTL", "168h")); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if cfg.PaymentSweepInterval, err = time.ParseDuration(getEnvOrDefault("PAYMENT_SWEEP_INTERVAL", "1m")); err != nil {
		return nil, fmt.Errorf("invalid PAYMENT_SWEEP_INTERVAL: %w", err)
	}
	if cfg.PriceAmount, err = strconv.ParseInt(getEnvOrDefault("PRICE_AMOUNT", "19900"), 10, 64); err != nil || cfg.PriceAmount <= 0 {
		return nil, fmt.Errorf("PRICE_AMOUNT must be a positive integer")
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		if cfg.TelegramChatID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
	}

	return cfg, nil
}

// PaymentsEnabled reports whether a payment provider key is configured
func (c *Config) PaymentsEnabled() bool {
	return c.StripeSecretKey != ""
}

// UploadsEnabled reports whether an image host is configured
func (c *Config) UploadsEnabled() bool {
	return c.CloudinaryURL != ""
}

// NotificationsEnabled reports whether operator notifications are configured
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
