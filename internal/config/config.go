// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServiceName string
	Addr        string
	AppName     string
	CORSOrigins []string

	Database DatabaseConfig
	Auth     AuthConfig
	Store    StoreConfig
	Mail     MailConfig
	Stripe   StripeConfig
	OAuth    OAuthConfig
	RabbitMQ RabbitMQConfig
}

// DatabaseConfig holds database connection settings. An empty URL selects
// in-memory storage.
type DatabaseConfig struct {
	URL string
}

// AuthConfig holds token secrets and lifetimes.
type AuthConfig struct {
	JWTSecret          string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	OTPTTL             time.Duration
	ResetTTL           time.Duration
}

// Token store backends.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
	StoreRedis  = "redis"
)

// StoreConfig selects where OTPs and refresh tokens live.
type StoreConfig struct {
	Backend   string
	BadgerDir string
	RedisURL  string
}

// MailConfig holds SMTP relay settings. An empty Host keeps mail in an
// in-process outbox.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Support  string
}

// StripeConfig holds payment settings. An empty SecretKey disables checkout.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

// OAuthConfig holds OAuth client settings.
type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	AppleClientID      string
}

// RabbitMQConfig holds event publishing settings. An empty URL logs
// events instead.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "healthmate"),
		Addr:        getEnv("ADDR", ":8080"),
		AppName:     getEnv("APP_NAME", "HealthMate"),
		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"*"}),
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			RefreshTokenSecret: getEnv("REFRESH_TOKEN_SECRET", ""),
			AccessTokenTTL:     getEnvAsDuration("ACCESS_TOKEN_TTL", time.Hour),
			RefreshTokenTTL:    getEnvAsDuration("REFRESH_TOKEN_TTL", 720*time.Hour),
			OTPTTL:             getEnvAsDuration("OTP_TTL", 10*time.Minute),
			ResetTTL:           getEnvAsDuration("RESET_TTL", 15*time.Minute),
		},
		Store: StoreConfig{
			Backend:   getEnv("TOKEN_STORE", StoreMemory),
			BadgerDir: getEnv("BADGER_DIR", "data/badger"),
			RedisURL:  getEnv("REDIS_URL", ""),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("MAIL_FROM", "no-reply@healthmate.app"),
			Support:  getEnv("SUPPORT_EMAIL", "support@healthmate.app"),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			SuccessURL:    getEnv("STRIPE_SUCCESS_URL", "http://localhost:8080/api/v1/subscription/success"),
			CancelURL:     getEnv("STRIPE_CANCEL_URL", "http://localhost:8080/api/v1/subscription/cancel"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
			AppleClientID:      getEnv("APPLE_CLIENT_ID", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "healthmate.events"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required but not set in environment variables")
	}
	if c.Auth.RefreshTokenSecret == "" {
		return errors.New("REFRESH_TOKEN_SECRET is required but not set in environment variables")
	}
	switch c.Store.Backend {
	case StoreMemory, StoreBadger:
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return errors.New("REDIS_URL is required when TOKEN_STORE=redis")
		}
	default:
		return fmt.Errorf("TOKEN_STORE must be memory, badger or redis, got %q", c.Store.Backend)
	}
	if c.Stripe.SecretKey != "" && c.Stripe.WebhookSecret == "" {
		return errors.New("STRIPE_WEBHOOK_SECRET is required when STRIPE_SECRET_KEY is set")
	}
	return nil
}

// LoadDotEnv loads the first .env found in the working directory or its
// two parents. It returns the loaded path, or "" when none exists.
func LoadDotEnv() (string, error) {
	var paths []string
	if wd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(wd)
		paths = append(paths,
			filepath.Join(wd, ".env"),
			filepath.Join(parent, ".env"),
			filepath.Join(filepath.Dir(parent), ".env"),
		)
	} else {
		paths = append(paths, ".env")
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return "", fmt.Errorf("load %s: %w", p, err)
		}
		return p, nil
	}
	return "", nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
