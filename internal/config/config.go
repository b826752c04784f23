// Package config provides application configuration management.
// It loads settings from a .env file and CHARTLET_* environment variables
// and provides defaults for the server and the command-line tool.
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

// Strategy names accepted by CHARTLET_PROBE_STRATEGY and CHARTLET_DOWNLOAD_STRATEGY.
const (
	ProbeImage  = "image"
	ProbeStatus = "status"

	DownloadLink  = "link"
	DownloadFetch = "fetch"
)

// Defaults for the remote chart host.
const (
	DefaultChartHost   = "cms.must.edu.pk:8082"
	DefaultChartScheme = "https"
)

// ValidationMode selects which settings are required.
type ValidationMode int

const (
	// ServerMode validates everything the HTTP service needs.
	ServerMode ValidationMode = iota
	// CLIMode skips server-only settings (port, data dir, archive).
	CLIMode
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	ServerName      string

	// Data Configuration
	DataDir string // Directory holding the lookup history database

	// Chart Host
	ChartHost            string
	ChartScheme          string
	ProbeStrategy        string
	DownloadStrategy     string
	PlaceholderOnMissing bool

	// Scraper Configuration
	ScraperTimeout time.Duration
	ScraperRPS     float64 // Outbound requests per second to the chart host (0 = unlimited)
	ScraperBurst   float64

	// Batch Configuration
	BatchWorkers int
	MaxRangeSize int

	// Per-client rate limit (Token Bucket Algorithm)
	ClientRateBurst  float64
	ClientRateRefill float64 // Tokens refilled per second

	// R2 Archive
	R2Enabled         bool
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2ArchivePrefix   string

	// Sentry (Better Stack Errors)
	SentryEnabled     bool
	SentryToken       string
	SentryHost        string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack Logs
	BetterStackToken    string
	BetterStackEndpoint string

	// Metrics Authentication
	MetricsAuthEnabled bool
	MetricsUsername    string
	MetricsPassword    string
}

// Load reads configuration for the HTTP service.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration from environment variables and validates
// it for the given mode. A .env file in the working directory is loaded first
// when present; real environment variables win.
func LoadForMode(mode ValidationMode) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
		ServerName:      getEnv(EnvServerName, ""),

		DataDir: getEnv(EnvDataDir, getDefaultDataDir()),

		ChartHost:            getEnv(EnvChartHost, DefaultChartHost),
		ChartScheme:          getEnv(EnvChartScheme, DefaultChartScheme),
		ProbeStrategy:        strings.ToLower(getEnv(EnvProbeStrategy, ProbeImage)),
		DownloadStrategy:     strings.ToLower(getEnv(EnvDownloadStrategy, DownloadFetch)),
		PlaceholderOnMissing: getBoolEnv(EnvPlaceholderOnMissing, false),

		ScraperTimeout: getDurationEnv(EnvScraperTimeout, ScraperRequest),
		ScraperRPS:     getFloatEnv(EnvScraperRPS, 5),
		ScraperBurst:   getFloatEnv(EnvScraperBurst, 5),

		BatchWorkers: getIntEnv(EnvBatchWorkers, 4),
		MaxRangeSize: getIntEnv(EnvMaxRangeSize, 1000),

		ClientRateBurst:  getFloatEnv(EnvClientRateBurst, 30),
		ClientRateRefill: getFloatEnv(EnvClientRateRefill, 1),

		R2Enabled:         getBoolEnv(EnvR2Enabled, false),
		R2AccountID:       getEnv(EnvR2AccountID, ""),
		R2AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
		R2BucketName:      getEnv(EnvR2BucketName, ""),
		R2ArchivePrefix:   getEnv(EnvR2ArchivePrefix, "bundles/"),

		SentryEnabled:     getBoolEnv(EnvSentryEnabled, false),
		SentryToken:       getEnv(EnvSentryToken, ""),
		SentryHost:        getEnv(EnvSentryHost, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		MetricsAuthEnabled: getBoolEnv(EnvMetricsAuthEnabled, false),
		MetricsUsername:    getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword:    getEnv(EnvMetricsPassword, ""),
	}

	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for server mode.
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode checks if required configuration values are set.
// All problems are reported at once.
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var errs []error

	if c.ChartHost == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvChartHost))
	}
	if c.ChartScheme != "http" && c.ChartScheme != "https" {
		errs = append(errs, fmt.Errorf("%s must be http or https, got %q", EnvChartScheme, c.ChartScheme))
	}
	if c.ProbeStrategy != ProbeImage && c.ProbeStrategy != ProbeStatus {
		errs = append(errs, fmt.Errorf("%s must be %q or %q, got %q", EnvProbeStrategy, ProbeImage, ProbeStatus, c.ProbeStrategy))
	}
	if c.DownloadStrategy != DownloadLink && c.DownloadStrategy != DownloadFetch {
		errs = append(errs, fmt.Errorf("%s must be %q or %q, got %q", EnvDownloadStrategy, DownloadLink, DownloadFetch, c.DownloadStrategy))
	}
	if c.ScraperTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvScraperTimeout, c.ScraperTimeout))
	}
	if c.ScraperRPS < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %v", EnvScraperRPS, c.ScraperRPS))
	}
	if c.ScraperRPS > 0 && c.ScraperBurst < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1 when rate limiting, got %v", EnvScraperBurst, c.ScraperBurst))
	}
	if c.BatchWorkers < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", EnvBatchWorkers, c.BatchWorkers))
	}
	if c.MaxRangeSize < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", EnvMaxRangeSize, c.MaxRangeSize))
	}

	if mode == ServerMode {
		if c.Port == "" {
			errs = append(errs, fmt.Errorf("%s is required", EnvPort))
		}
		if c.DataDir == "" {
			errs = append(errs, fmt.Errorf("%s is required", EnvDataDir))
		}
		if c.ClientRateBurst <= 0 || c.ClientRateRefill <= 0 {
			errs = append(errs, errors.New("client rate limit burst and refill must be positive"))
		}
		if c.R2Enabled {
			if c.R2AccountID == "" || c.R2AccessKeyID == "" || c.R2SecretAccessKey == "" || c.R2BucketName == "" {
				errs = append(errs, errors.New("R2 archive requires account ID, access key, secret key and bucket name"))
			}
		}
		if c.SentryEnabled && (c.SentryToken == "" || c.SentryHost == "") {
			errs = append(errs, fmt.Errorf("%s and %s are required when Sentry is enabled", EnvSentryToken, EnvSentryHost))
		}
		if c.MetricsAuthEnabled && c.MetricsPassword == "" {
			errs = append(errs, fmt.Errorf("%s is required when metrics auth is enabled", EnvMetricsPassword))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
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

// getBoolEnv accepts anything strconv.ParseBool does.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// SQLitePath returns the full path to the lookup history database.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "lookups.db")
}

// R2Endpoint returns the account-scoped R2 S3 endpoint.
func (c *Config) R2Endpoint() string {
	if c.R2AccountID == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2AccountID)
}

// ChartBaseURL returns scheme://host for the chart host.
func (c *Config) ChartBaseURL() string {
	return c.ChartScheme + "://" + c.ChartHost
}
