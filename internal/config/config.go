package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for skillhub
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Catalog   CatalogConfig
	Reconcile ReconcileConfig
	Mail      MailConfig
	Slack     SlackConfig
	LogLevel  string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds PostgreSQL configuration. An empty DSN selects the in-memory store.
type DatabaseConfig struct {
	DSN           string
	MaxOpenConns  int
	MaxIdleConns  int
	MaxLifetime   time.Duration
	MigrationsDir string
}

// Enabled reports whether a database is configured
func (c DatabaseConfig) Enabled() bool {
	return c.DSN != ""
}

// RedisConfig holds Redis configuration. An empty address disables the cache and
// distributed locks.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	CacheTTL time.Duration
	LockTTL  time.Duration
}

// Enabled reports whether Redis is configured
func (c RedisConfig) Enabled() bool {
	return c.Address != ""
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// CatalogConfig holds the seed catalog location
type CatalogConfig struct {
	Dir string
}

// ReconcileConfig holds counter reconciliation worker configuration
type ReconcileConfig struct {
	Interval time.Duration
}

// MailConfig holds SMTP settings for inquiry notifications
type MailConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	FromName   string
	Recipients []string
	SSL        bool
}

// Enabled reports whether email delivery is configured
func (c MailConfig) Enabled() bool {
	return c.Username != "" && c.Password != ""
}

// SlackConfig holds the inquiry webhook
type SlackConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// Enabled reports whether the webhook is configured
func (c SlackConfig) Enabled() bool {
	return c.WebhookURL != ""
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	mailUser := getEnv("SMTP_USERNAME", "")
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: LoadDatabase(),
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", 10*time.Minute),
			LockTTL:  getEnvAsDuration("REDIS_LOCK_TTL", 5*time.Second),
		},
		Auth: LoadAuth(),
		Catalog: CatalogConfig{
			Dir: getEnv("CATALOG_DIR", "catalog"),
		},
		Reconcile: ReconcileConfig{
			Interval: getEnvAsDuration("RECONCILE_INTERVAL", 5*time.Minute),
		},
		Mail: MailConfig{
			Host:       getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:       getEnvAsInt("SMTP_PORT", 465),
			Username:   mailUser,
			Password:   getEnv("SMTP_PASSWORD", ""),
			From:       getEnv("SMTP_FROM", mailUser),
			FromName:   getEnv("SMTP_FROM_NAME", "SkillHub 알림봇"),
			Recipients: getEnvAsList("INQUIRY_RECIPIENTS", nil),
			SSL:        getEnvAsBool("SMTP_SSL", true),
		},
		Slack: SlackConfig{
			WebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
			Timeout:    getEnvAsDuration("SLACK_TIMEOUT", 10*time.Second),
		},
		LogLevel: LoadLogLevel(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadDatabase reads only the database section, for commands that need nothing else
func LoadDatabase() DatabaseConfig {
	return DatabaseConfig{
		DSN:           getEnv("DATABASE_DSN", ""),
		MaxOpenConns:  getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 25),
		MaxIdleConns:  getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 2),
		MaxLifetime:   getEnvAsDuration("DATABASE_MAX_LIFETIME", 30*time.Minute),
		MigrationsDir: getEnv("DATABASE_MIGRATIONS_DIR", "migrations"),
	}
}

// LoadAuth reads only the token settings
func LoadAuth() AuthConfig {
	return AuthConfig{
		JWTSecret: getEnv("JWT_SECRET", ""),
		Issuer:    getEnv("JWT_ISSUER", ""),
	}
}

// LoadLogLevel reads only the log level
func LoadLogLevel() string {
	return getEnv("LOG_LEVEL", "info")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT secret is required")
	}

	if c.Catalog.Dir == "" {
		return errors.New("catalog dir is required")
	}

	if c.Reconcile.Interval < 0 {
		return fmt.Errorf("invalid reconcile interval: %s", c.Reconcile.Interval)
	}

	if c.Mail.Enabled() && (c.Mail.Port < 1 || c.Mail.Port > 65535) {
		return fmt.Errorf("invalid smtp port: %d", c.Mail.Port)
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// ParseLogLevel maps debug|info|warn|error onto a slog level
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level: %q", s)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty items
func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
