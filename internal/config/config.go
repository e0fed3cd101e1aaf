// Package config loads process configuration from the environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	ledger "freelance-tax/internal/ledger/domain"
	"freelance-tax/internal/logger"
)

// Store selects the persistence backend.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds everything the commands need.
type Config struct {
	Store       string        `yaml:"store"`
	DatabaseURL string        `yaml:"database_url"`
	HTTPAddr    string        `yaml:"http_addr"`
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`

	Receipts ReceiptsConfig `yaml:"receipts"`

	Reminders RemindersConfig `yaml:"reminders"`

	// Settings seeds the tax settings when none are stored yet.
	Settings *ledger.Settings `yaml:"settings"`

	Log LogConfig `yaml:"log"`
}

// ReceiptsConfig locates receipt storage.
type ReceiptsConfig struct {
	Root      string `yaml:"root"`
	PublicURL string `yaml:"public_url"`
	Bucket    string `yaml:"bucket"`
}

// RemindersConfig drives the daily schedule reminder.
type RemindersConfig struct {
	WebhookURL  string `yaml:"webhook_url"`
	DailyAt     string `yaml:"daily_at"`
	HorizonDays int    `yaml:"horizon_days"`
}

// LogConfig mirrors logger.LogConfig for the YAML file.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	TimeFormat string `yaml:"time_format"`
	Output     string `yaml:"output"`
}

// Load reads the environment, then overlays FREELANCE_CONFIG when set.
func Load() (Config, error) {
	cfg := Config{
		Store:       getenvDefault("STORE", StorePostgres),
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		TokenTTL:    getenvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
		Receipts: ReceiptsConfig{
			Root:      getenvDefault("RECEIPTS_ROOT", "var/receipts"),
			PublicURL: getenvDefault("RECEIPTS_PUBLIC_URL", "http://localhost:8080/files"),
			Bucket:    getenvDefault("RECEIPTS_BUCKET", "receipts"),
		},
		Reminders: RemindersConfig{
			WebhookURL:  os.Getenv("REMINDER_WEBHOOK_URL"),
			DailyAt:     getenvDefault("REMINDER_DAILY_AT", "08:00"),
			HorizonDays: getenvIntDefault("REMINDER_HORIZON_DAYS", 7),
		},
		Log: LogConfig{
			Level:      getenvDefault("LOG_LEVEL", "info"),
			Format:     getenvDefault("LOG_FORMAT", "console"),
			TimeFormat: getenvDefault("LOG_TIME_FORMAT", time.RFC3339),
			Output:     getenvDefault("LOG_OUTPUT", "stdout"),
		},
	}

	if path := os.Getenv("FREELANCE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the store name and the settings seed.
func (c Config) Validate() error {
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}
	if c.Reminders.HorizonDays < 0 {
		return errors.New("REMINDER_HORIZON_DAYS must not be negative")
	}
	if c.Settings != nil {
		if err := c.Settings.Validate(); err != nil {
			return fmt.Errorf("settings: %w", err)
		}
	}
	return nil
}

// RequireDatabase reports an error when the postgres store has no DSN.
func (c Config) RequireDatabase() error {
	if c.Store == StorePostgres && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL or PG_DSN is required")
	}
	return nil
}

// RequireJWTSecret reports an error when the server would run unauthenticated.
func (c Config) RequireJWTSecret() error {
	if c.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}
	return nil
}

// LoggerConfig returns the logger configuration.
func (c Config) LoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		TimeFormat: c.Log.TimeFormat,
		Output:     c.Log.Output,
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
