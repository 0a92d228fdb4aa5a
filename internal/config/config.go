package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

// NotifyMode selects how payment confirmations leave the request path
type NotifyMode string

const (
	NotifyModeQueue NotifyMode = "queue"
	NotifyModeAsync NotifyMode = "async"
)

// Config holds server and worker configuration.
type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	DatabaseURL string
	RedisURL    string
	RedisPrefix string

	StripeWebhookSecret string
	PayHereMerchantID   string
	PayHereSecret       string
	MidtransServerKey   string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string
	BrandName    string

	NotifyMode     NotifyMode
	NotifyTimeout  time.Duration
	WorkerInterval time.Duration

	CallbackRetentionDays int
	BodyLimit             string
	RateLimitPerSecond    float64
}

// Load reads configuration from environment variables. Call godotenv.Load first
// to pick up a local .env file.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "5000"),
		LogLevel: strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		RedisPrefix: getEnv("REDIS_PREFIX", "golanka"),

		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PayHereMerchantID:   os.Getenv("PAYHERE_MERCHANT_ID"),
		PayHereSecret:       os.Getenv("PAYHERE_SECRET"),
		MidtransServerKey:   os.Getenv("MIDTRANS_SERVER_KEY"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASS"),
		EmailFrom:    os.Getenv("EMAIL_FROM"),
		BrandName:    getEnv("BRAND_NAME", "GoLanka Travel"),

		NotifyMode: NotifyMode(strings.ToLower(getEnv("NOTIFY_MODE", string(NotifyModeQueue)))),
		BodyLimit:  getEnv("BODY_LIMIT", "1M"),
	}
	if cfg.EmailFrom == "" {
		cfg.EmailFrom = cfg.SMTPUser
	}

	var err error
	if cfg.NotifyTimeout, err = getDuration("NOTIFY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.WorkerInterval, err = getDuration("WORKER_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.CallbackRetentionDays, err = getInt("CALLBACK_RETENTION_DAYS", 90); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerSecond, err = getFloat("RATE_LIMIT_PER_SECOND", 10); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.NotifyMode {
	case NotifyModeQueue, NotifyModeAsync:
	default:
		errs = append(errs, fmt.Errorf("NOTIFY_MODE must be %q or %q, got %q", NotifyModeQueue, NotifyModeAsync, c.NotifyMode))
	}
	if (c.PayHereMerchantID == "") != (c.PayHereSecret == "") {
		errs = append(errs, errors.New("PAYHERE_MERCHANT_ID and PAYHERE_SECRET must be set together"))
	}
	if c.NotifyTimeout <= 0 {
		errs = append(errs, errors.New("NOTIFY_TIMEOUT must be positive"))
	}
	if c.WorkerInterval <= 0 {
		errs = append(errs, errors.New("WORKER_INTERVAL must be positive"))
	}
	if c.CallbackRetentionDays <= 0 {
		errs = append(errs, errors.New("CALLBACK_RETENTION_DAYS must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GormLogLevel logs every query only when debugging outside production
func (c *Config) GormLogLevel() logger.LogLevel {
	if c.IsProduction() {
		return logger.Warn
	}
	if c.LogLevel == "DEBUG" {
		return logger.Info
	}
	return logger.Warn
}

func (c *Config) StripeEnabled() bool {
	return c.StripeWebhookSecret != ""
}

func (c *Config) PayHereEnabled() bool {
	return c.PayHereMerchantID != "" && c.PayHereSecret != ""
}

func (c *Config) MidtransEnabled() bool {
	return c.MidtransServerKey != ""
}

func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
