// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Database types
const (
	SQLiteDatabase = "sqlite"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	PrivateKey  string   `mapstructure:"privatekey"`
	Domain      string   `mapstructure:"domain"`

	// File paths
	DatabasePath string `mapstructure:"storagepath"`
	DatabaseName string `mapstructure:"-"` // Derived from other settings
	GeoDBPath    string `mapstructure:"geodbpath"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseType         string `mapstructure:"dbtype"`
	DatabaseMaxOpenConns int    `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int    `mapstructure:"dbmaxidleconns"`

	// Every store call made while serving a request is bounded by this timeout.
	QueryTimeoutSeconds int `mapstructure:"querytimeoutseconds"`

	// Engagement score weighting. The 0-100 scale and the High/Medium/Low
	// banding are fixed; the relative weight of each input is policy.
	EngagementViewsWeight     float64 `mapstructure:"engagementviewsweight"`
	EngagementTimeWeight      float64 `mapstructure:"engagementtimeweight"`
	EngagementDiversityWeight float64 `mapstructure:"engagementdiversityweight"`

	// Job scheduling settings
	JobIntervalSeconds int `mapstructure:"jobintervalseconds"`

	// Data retention settings
	EventRetentionDays int `mapstructure:"eventretentiondays"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		// Set defaults
		v.SetDefault("appname", "dealview")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("privatekey", "88888888888888888888888888888888")
		v.SetDefault("storagepath", "storage")
		v.SetDefault("geodbpath", "storage/GeoLite2-Country.mmdb")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbtype", SQLiteDatabase)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("querytimeoutseconds", 10)
		v.SetDefault("engagementviewsweight", 0.4)
		v.SetDefault("engagementtimeweight", 0.4)
		v.SetDefault("engagementdiversityweight", 0.2)
		v.SetDefault("jobintervalseconds", 60)
		v.SetDefault("eventretentiondays", 180)

		// Bind environment variables
		v.BindEnv("appname", "DEALVIEW_APP_NAME")
		v.BindEnv("appport", "DEALVIEW_APP_PORT")
		v.BindEnv("environment", "DEALVIEW_ENV")
		v.BindEnv("loglevel", "DEALVIEW_LOG_LEVEL")
		v.BindEnv("privatekey", "DEALVIEW_PRIVATE_KEY")
		v.BindEnv("domain", "DEALVIEW_DOMAIN")
		v.BindEnv("storagepath", "DEALVIEW_STORAGE_PATH")
		v.BindEnv("geodbpath", "DEALVIEW_GEO_DB_PATH")
		v.BindEnv("logsdir", "DEALVIEW_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "DEALVIEW_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "DEALVIEW_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "DEALVIEW_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbtype", "DEALVIEW_DB_TYPE")
		v.BindEnv("dbmaxopenconns", "DEALVIEW_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "DEALVIEW_DB_MAX_IDLE_CONNS")
		v.BindEnv("querytimeoutseconds", "DEALVIEW_QUERY_TIMEOUT_SECONDS")
		v.BindEnv("engagementviewsweight", "DEALVIEW_ENGAGEMENT_VIEWS_WEIGHT")
		v.BindEnv("engagementtimeweight", "DEALVIEW_ENGAGEMENT_TIME_WEIGHT")
		v.BindEnv("engagementdiversityweight", "DEALVIEW_ENGAGEMENT_DIVERSITY_WEIGHT")
		v.BindEnv("jobintervalseconds", "DEALVIEW_JOB_INTERVAL_SECONDS")
		v.BindEnv("eventretentiondays", "DEALVIEW_EVENT_RETENTION_DAYS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		// Set derived values
		cfg.DatabaseName = cfg.GetDatabasePath()

		// In production the private key must be explicitly set (not the default)
		defaultKey := "88888888888888888888888888888888"
		if cfg.PrivateKey == "" {
			log.Fatal("Private key is required")
		}
		if cfg.IsProduction() && cfg.PrivateKey == defaultKey {
			log.Fatal("Production requires a unique DEALVIEW_PRIVATE_KEY (cannot use default)")
		}
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validDBTypes := map[string]bool{
		SQLiteDatabase: true,
	}
	if !validDBTypes[c.DatabaseType] {
		return fmt.Errorf("invalid database type: %s", c.DatabaseType)
	}

	if c.QueryTimeoutSeconds <= 0 {
		return fmt.Errorf("querytimeoutseconds must be positive, got %d", c.QueryTimeoutSeconds)
	}

	totalWeight := c.EngagementViewsWeight + c.EngagementTimeWeight + c.EngagementDiversityWeight
	if totalWeight <= 0 {
		return fmt.Errorf("engagement score weights must sum to a positive value, got %f", totalWeight)
	}

	if c.EventRetentionDays <= 0 {
		return fmt.Errorf("eventretentiondays must be positive, got %d", c.EventRetentionDays)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetPort returns the HTTP server port (implements cartridge.Config interface).
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetAppName returns the application name (implements cartridge.FactoryConfig interface).
func (c *Config) GetAppName() string {
	return c.AppName
}

// DatabaseDSN returns the database connection string (implements cartridge.FactoryConfig interface).
func (c *Config) DatabaseDSN() string {
	return c.GetDatabasePath()
}

// GetSessionSecret returns the session encryption key (implements cartridge.FactoryConfig interface).
func (c *Config) GetSessionSecret() string {
	return c.PrivateKey
}

// GetQueryTimeout returns the bound applied to store calls made on behalf of
// a single request.
func (c *Config) GetQueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// GetJobInterval returns how often the background scheduler wakes up.
func (c *Config) GetJobInterval() time.Duration {
	return time.Duration(c.JobIntervalSeconds) * time.Second
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1 (required for E2E test stability)
// - Development/Production: 10 (allows concurrent reads for parallel analytics queries)
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1 // Required for E2E test stability
	}

	return 10 // Higher concurrency for development and production
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1 (matches MaxOpenConns for test stability)
// - Development/Production: 5 (keep half the connections warm for reuse)
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1 // Matches MaxOpenConns for test stability
	}

	return 5 // Keep half the pool warm for development and production
}

// GetLogLevel returns the log level as a string (implements cartridge.LogConfigProvider).
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory (implements cartridge.LogConfigProvider).
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// GetPublicDirectory returns the path to public/static assets (implements cartridge.Config).
func (c *Config) GetPublicDirectory() string {
	return "web/static"
}

// GetAssetsPrefix returns the URL prefix for static assets (implements cartridge.Config).
func (c *Config) GetAssetsPrefix() string {
	return "/assets"
}

// ScoreWeights returns the engagement score weighting as a value object for
// the analytics package.
func (c *Config) ScoreWeights() (views, timeSpent, diversity float64) {
	return c.EngagementViewsWeight, c.EngagementTimeWeight, c.EngagementDiversityWeight
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
