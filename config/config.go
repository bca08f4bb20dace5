package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTKey    string
	JWTTTL    time.Duration
	SaltRound int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SendgridAPIKey  string
	EmailSender     string
	EmailSenderName string

	AdminEmail    string
	AdminPassword string

	FrontendURL string
	CorsOrigins string

	PaymentApiURL        string
	PaymentSecretKey     string
	PaymentWebhookSecret string
	PaymentCurrency      string

	MuxApiURL        string
	MuxTokenID       string
	MuxTokenSecret   string
	MuxWebhookSecret string

	WebhookTolerance time.Duration
	OrderTTL         time.Duration

	// Warnings collected while loading; logged once the logger is up
	Warnings []string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	envFileMissing := godotenv.Load() != nil

	AppConfig = FromEnv()

	if envFileMissing {
		AppConfig.warn(".env file not found. Using system environment variables.")
	}
	if AppConfig.JWTKey == "defaultSecret" {
		AppConfig.warn("Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.PaymentWebhookSecret == "" {
		AppConfig.warn("PAYMENT_WEBHOOK_SECRET is empty, payment webhooks will be rejected.")
	}
	if AppConfig.MuxWebhookSecret == "" {
		AppConfig.warn("MUX_WEBHOOK_SECRET is empty, Mux webhooks will be rejected.")
	}
}

// FromEnv builds a Config from the current process environment without touching .env files.
func FromEnv() *Config {
	env := &envReader{}
	cfg := &Config{
		Port:     getEnv("PORT", "3000"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "academy"),

		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		JWTTTL:    env.getDuration("JWT_TTL", 24*time.Hour),
		SaltRound: env.getInt("SALT_ROUND", 10),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       env.getInt("REDIS_DB", 0),

		SendgridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		EmailSender:     getEnv("EMAIL_SENDER", "no-reply@academy.local"),
		EmailSenderName: getEnv("EMAIL_SENDER_NAME", "Academy"),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		CorsOrigins: getEnv("CORS_ORIGINS", "*"),

		PaymentApiURL:        strings.TrimRight(getEnv("PAYMENT_API_URL", "https://api.stripe.com"), "/"),
		PaymentSecretKey:     getEnv("PAYMENT_SECRET_KEY", ""),
		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		PaymentCurrency:      strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),

		MuxApiURL:        strings.TrimRight(getEnv("MUX_API_URL", "https://api.mux.com"), "/"),
		MuxTokenID:       getEnv("MUX_TOKEN_ID", ""),
		MuxTokenSecret:   getEnv("MUX_TOKEN_SECRET", ""),
		MuxWebhookSecret: getEnv("MUX_WEBHOOK_SECRET", ""),

		WebhookTolerance: env.getDuration("WEBHOOK_TOLERANCE", 5*time.Minute),
		OrderTTL:         env.getDuration("ORDER_TTL", 24*time.Hour),
	}
	cfg.Warnings = env.warnings
	return cfg
}

func (c *Config) warn(msg string) {
	c.Warnings = append(c.Warnings, msg)
}

// IsProduction reports whether the app runs with APP_ENV=production
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// envReader parses typed variables and keeps a warning for every value it had to reject
type envReader struct {
	warnings []string
}

// getInt retrieves an environment variable as an integer or returns the default integer value
func (r *envReader) getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		r.warnings = append(r.warnings, fmt.Sprintf("Error converting environment variable %s to int: %v", key, err))
		return defaultValue
	}
	return intValue
}

// getDuration accepts Go duration strings ("90s", "24h")
func (r *envReader) getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		r.warnings = append(r.warnings, fmt.Sprintf("Error converting environment variable %s to duration %q", key, value))
		return defaultValue
	}
	return d
}
