// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPowerAPIURL is the NASA POWER daily point endpoint.
const DefaultPowerAPIURL = "https://power.larc.nasa.gov/api/temporal/daily/point"

// Config holds application configuration
type Config struct {
	Port     int
	LogLevel string
	DevMode  bool

	PowerAPIURL      string
	PowerTimeout     time.Duration
	PowerRetryDelay  time.Duration
	AvailabilityLag  int // days between today and the newest date the source can serve
	CacheTTL         time.Duration
	CacheCleanupCron string

	Financial FinancialConfig
	Export    *ExportConfig
}

// FinancialConfig overrides the ROI calculator constants
type FinancialConfig struct {
	CostPerWattUSD         float64
	SystemEfficiency       float64
	DegradationRatePerYear float64
	HorizonYears           int
}

// ExportConfig holds the S3-compatible bucket used for CSV exports.
// Nil when EXPORT_BUCKET is not set.
type ExportConfig struct {
	Bucket          string
	Endpoint        string // empty for AWS, set for R2/MinIO
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvAsInt("PORT", 8001),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		PowerAPIURL:      getEnv("POWER_API_URL", DefaultPowerAPIURL),
		PowerTimeout:     time.Duration(getEnvAsInt("POWER_TIMEOUT_SECONDS", 30)) * time.Second,
		PowerRetryDelay:  time.Duration(getEnvAsInt("POWER_RETRY_DELAY_MS", 1000)) * time.Millisecond,
		AvailabilityLag:  getEnvAsInt("DATA_AVAILABILITY_LAG_DAYS", 3),
		CacheTTL:         time.Duration(getEnvAsInt("CACHE_TTL_MINUTES", 60)) * time.Minute,
		CacheCleanupCron: getEnv("CACHE_CLEANUP_SCHEDULE", "@every 10m"),
		Financial: FinancialConfig{
			CostPerWattUSD:         getEnvAsFloat("COST_PER_WATT_USD", 2.50),
			SystemEfficiency:       getEnvAsFloat("SYSTEM_EFFICIENCY", 0.80),
			DegradationRatePerYear: getEnvAsFloat("DEGRADATION_RATE", 0.005),
			HorizonYears:           getEnvAsInt("PROJECT_HORIZON_YEARS", 25),
		},
		Export: loadExportConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadExportConfig() *ExportConfig {
	bucket := getEnv("EXPORT_BUCKET", "")
	if bucket == "" {
		return nil
	}
	return &ExportConfig{
		Bucket:          bucket,
		Endpoint:        getEnv("EXPORT_ENDPOINT", ""),
		Region:          getEnv("EXPORT_REGION", "auto"),
		AccessKeyID:     getEnv("EXPORT_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("EXPORT_SECRET_ACCESS_KEY", ""),
		Prefix:          getEnv("EXPORT_PREFIX", "solar-data/"),
	}
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.PowerAPIURL == "" {
		return fmt.Errorf("POWER_API_URL must not be empty")
	}
	if c.PowerTimeout <= 0 {
		return fmt.Errorf("POWER_TIMEOUT_SECONDS must be positive")
	}
	if c.PowerRetryDelay < 0 {
		return fmt.Errorf("POWER_RETRY_DELAY_MS must not be negative")
	}
	if c.AvailabilityLag < 0 {
		return fmt.Errorf("DATA_AVAILABILITY_LAG_DAYS must not be negative")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL_MINUTES must not be negative")
	}
	if c.Export != nil && (c.Export.AccessKeyID == "") != (c.Export.SecretAccessKey == "") {
		return fmt.Errorf("EXPORT_ACCESS_KEY_ID and EXPORT_SECRET_ACCESS_KEY must be set together")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
