// Package config loads application configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendR2     = "r2"
)

// Config holds all application configuration
type Config struct {
	// LINE Bot Configuration
	LineChannelToken  string
	LineChannelSecret string

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	WebhookTimeout  time.Duration
	GlobalRateRPS   float64 // outbound replies per second across the process

	// Data Configuration
	DataDir       string // file and sqlite backends
	CardsDir      string // holds line/ and adaptive/ card documents
	StoreBackend  string // file, sqlite or r2
	InterviewKey  string // availability record key
	CandidateName string

	// R2 Configuration (STORE_BACKEND=r2)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2Prefix          string
	R2LockTTL         time.Duration

	// Activity endpoint
	ActivityEnabled  bool
	ActivityUsername string
	ActivityPassword string // empty = no auth

	// Observability
	SentryDSN           string
	SentryEnvironment   string
	SentrySampleRate    float64
	BetterStackToken    string
	BetterStackEndpoint string

	// Metrics Authentication
	MetricsUsername string
	MetricsPassword string // empty = no auth
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LineChannelToken:  getEnvWithLegacy(EnvLineChannelAccessToken, legacyLineChannelAccessToken),
		LineChannelSecret: getEnvWithLegacy(EnvLineChannelSecret, legacyLineChannelSecret),

		Port:            getEnv(EnvPort, "3978"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
		WebhookTimeout:  getDurationEnv(EnvWebhookTimeout, WebhookProcessing),
		GlobalRateRPS:   getFloatEnv(EnvGlobalRateRPS, 100),

		DataDir:       getEnv(EnvDataDir, getDefaultDataDir()),
		CardsDir:      getEnv(EnvCardsDir, filepath.Join("assets", "cards")),
		StoreBackend:  strings.ToLower(getEnv(EnvStoreBackend, BackendFile)),
		InterviewKey:  getEnv(EnvInterviewKey, "default"),
		CandidateName: getEnv(EnvCandidateName, "Aman"),

		R2AccountID:       getEnv(EnvR2AccountID, ""),
		R2AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
		R2BucketName:      getEnv(EnvR2BucketName, ""),
		R2Prefix:          getEnv(EnvR2Prefix, "availability/"),
		R2LockTTL:         getDurationEnv(EnvR2LockTTL, R2LockTTL),

		ActivityEnabled:  getBoolEnv(EnvActivityEnabled, false),
		ActivityUsername: getEnv(EnvActivityUsername, "bot"),
		ActivityPassword: getEnv(EnvActivityPassword, ""),

		SentryDSN:           getEnv(EnvSentryDSN, ""),
		SentryEnvironment:   getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:    getFloatEnv(EnvSentrySampleRate, 1.0),
		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks required values and ranges. All problems are reported at once.
func (c *Config) Validate() error {
	var errs []error

	if c.LineChannelToken == "" {
		errs = append(errs, errors.New("LINE_CHANNEL_ACCESS_TOKEN is required"))
	}
	if c.LineChannelSecret == "" {
		errs = append(errs, errors.New("LINE_CHANNEL_SECRET is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", c.ShutdownTimeout))
	}
	if c.WebhookTimeout <= 0 {
		errs = append(errs, fmt.Errorf("WEBHOOK_TIMEOUT must be positive, got %v", c.WebhookTimeout))
	}
	if c.GlobalRateRPS <= 0 {
		errs = append(errs, fmt.Errorf("GLOBAL_RATE_RPS must be positive, got %v", c.GlobalRateRPS))
	}
	if c.CardsDir == "" {
		errs = append(errs, errors.New("CARDS_DIR is required"))
	}
	if c.InterviewKey == "" {
		errs = append(errs, errors.New("INTERVIEW_KEY is required"))
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("SENTRY_SAMPLE_RATE must be between 0 and 1, got %v", c.SentrySampleRate))
	}

	switch c.StoreBackend {
	case BackendFile, BackendSQLite:
		if c.DataDir == "" {
			errs = append(errs, errors.New("DATA_DIR is required"))
		}
	case BackendR2:
		errs = append(errs, c.validateR2()...)
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be one of file, sqlite, r2; got %q", c.StoreBackend))
	}

	return errors.Join(errs...)
}

func (c *Config) validateR2() []error {
	var errs []error
	required := []struct{ name, value string }{
		{"R2_ACCOUNT_ID", c.R2AccountID},
		{"R2_ACCESS_KEY_ID", c.R2AccessKeyID},
		{"R2_SECRET_ACCESS_KEY", c.R2SecretAccessKey},
		{"R2_BUCKET_NAME", c.R2BucketName},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is required when STORE_BACKEND=r2", r.name))
		}
	}
	if c.R2LockTTL <= 0 {
		errs = append(errs, fmt.Errorf("R2_LOCK_TTL must be positive, got %v", c.R2LockTTL))
	}
	return errs
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "availability.db")
}

// FileStoreDir returns the directory of the file backend.
func (c *Config) FileStoreDir() string {
	return filepath.Join(c.DataDir, "availability")
}

// LineCardsDir returns the directory of LINE Flex card documents.
func (c *Config) LineCardsDir() string {
	return filepath.Join(c.CardsDir, "line")
}

// AdaptiveCardsDir returns the directory of Adaptive Card documents.
func (c *Config) AdaptiveCardsDir() string {
	return filepath.Join(c.CardsDir, "adaptive")
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvWithLegacy prefers key and falls back to the unprefixed legacy name.
func getEnvWithLegacy(key, legacy string) string {
	return getEnv(key, os.Getenv(legacy))
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
