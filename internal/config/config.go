package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	SMTP     SMTPConfig
	Xendit   XenditConfig
	Billing  BillingConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type XenditConfig struct {
	APIKey          string
	Environment     string
	WebhookToken    string
	PaymentExpiry   int // hours
	SuccessRedirect string
	FailureRedirect string
}

// BillingConfig holds the periodic trigger intervals for the billing jobs.
type BillingConfig struct {
	FireInterval    time.Duration
	OverdueInterval time.Duration
}

func Load() (*Config, error) {
	// .env is optional outside local development
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "paylane"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// SMTP configuration
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	config.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     smtpPort,
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "no-reply@paylane.dev"),
		FromName: getEnv("SMTP_FROM_NAME", "Paylane Billing"),
	}

	// Xendit payment gateway configuration
	paymentExpiry, err := strconv.Atoi(getEnv("XENDIT_PAYMENT_EXPIRY_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid XENDIT_PAYMENT_EXPIRY_HOURS: %w", err)
	}

	config.Xendit = XenditConfig{
		APIKey:          getEnv("XENDIT_API_KEY", ""),
		Environment:     getEnv("XENDIT_ENVIRONMENT", "sandbox"),
		WebhookToken:    getEnv("XENDIT_WEBHOOK_TOKEN", ""),
		PaymentExpiry:   paymentExpiry,
		SuccessRedirect: getEnv("XENDIT_SUCCESS_REDIRECT", ""),
		FailureRedirect: getEnv("XENDIT_FAILURE_REDIRECT", ""),
	}

	// Billing job configuration
	fireInterval, err := time.ParseDuration(getEnv("BILLING_FIRE_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid BILLING_FIRE_INTERVAL: %w", err)
	}
	overdueInterval, err := time.ParseDuration(getEnv("BILLING_OVERDUE_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid BILLING_OVERDUE_INTERVAL: %w", err)
	}
	config.Billing = BillingConfig{
		FireInterval:    fireInterval,
		OverdueInterval: overdueInterval,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Xendit.Environment != "sandbox" && c.Xendit.Environment != "live" {
		return fmt.Errorf("XENDIT_ENVIRONMENT must be 'sandbox' or 'live'")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
