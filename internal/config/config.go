// Package config defines the immutable application configuration.
// All stage-level knobs the original kept as process-wide constants
// (city, API key, credential paths, folder id) live here and are passed
// into each stage at construction time.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is loaded once at startup and never modified.
type Config struct {
	// City weather is collected for. Single fixed city by design.
	City string `envconfig:"WEATHER_CITY" default:"Karachi" validate:"required"`

	// OpenWeatherMap credentials. When the env var is empty the key is
	// read from APIKeyFile; when both are empty, fetching is disabled.
	OpenWeatherAPIKey string `envconfig:"OPENWEATHERMAP_API_KEY"`
	APIKeyFile        string `envconfig:"WEATHER_API_KEY_FILE"`

	// Outbound HTTP timeout for all fetch calls, both variants.
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	// Standalone collection geometry: (TotalHours*60)/IntervalMinutes
	// evenly spaced forecast lookups starting from "now".
	TotalHours      int `envconfig:"COLLECT_TOTAL_HOURS" default:"8" validate:"min=1"`
	IntervalMinutes int `envconfig:"COLLECT_INTERVAL_MINUTES" default:"10" validate:"min=1"`

	// Scheduler interval for the daemon variant.
	FetchInterval time.Duration `envconfig:"FETCH_INTERVAL" default:"8h"`

	// Local persistence.
	OutputDir string `envconfig:"OUTPUT_DIR" default:"weather_data" validate:"required"`

	// Google Drive upload. The alternate path is tried when the primary
	// key file is absent; when neither exists, upload is disabled.
	DriveCredentialsFile    string `envconfig:"DRIVE_CREDENTIALS_FILE" default:"service-account.json"`
	DriveCredentialsAltFile string `envconfig:"DRIVE_CREDENTIALS_ALT_FILE" default:"credentials/service-account.json"`
	DriveFolderID           string `envconfig:"DRIVE_FOLDER_ID" default:"1qWb9DWctbYKJGB0pahx-AlD6b7RFqeXz" validate:"required"`

	// Ops HTTP server.
	Port string `envconfig:"PORT" default:"8080"`

	// Run-history retention.
	StoreMaxHistory int           `envconfig:"STORE_MAX_HISTORY" default:"96"`
	StoreMaxAge     time.Duration `envconfig:"STORE_MAX_AGE" default:"720h"`
}

// Load reads configuration from the environment (and an optional .env
// file), resolves the API-key file fallback, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if cfg.APIKeyFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.APIKeyFile = filepath.Join(home, "weather_api_key.txt")
		}
	}
	if cfg.OpenWeatherAPIKey == "" && cfg.APIKeyFile != "" {
		if data, err := os.ReadFile(cfg.APIKeyFile); err == nil {
			cfg.OpenWeatherAPIKey = strings.TrimSpace(string(data))
		}
	}
	if cfg.OpenWeatherAPIKey == "" {
		log.Printf("WARN: no OpenWeatherMap API key found; fetching is disabled")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SeriesCount returns the number of forecast lookups per standalone run.
func (c *Config) SeriesCount() int {
	return (c.TotalHours * 60) / c.IntervalMinutes
}

// SeriesInterval returns the spacing between standalone forecast lookups.
func (c *Config) SeriesInterval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// ScheduledIntervalLabel describes the daemon's collection cadence.
func (c *Config) ScheduledIntervalLabel() string {
	return fmt.Sprintf("Every %d hours", int(c.FetchInterval.Hours()))
}

// StandaloneIntervalLabel describes the standalone loop's cadence.
func (c *Config) StandaloneIntervalLabel() string {
	return fmt.Sprintf("Every %d minutes", c.IntervalMinutes)
}
