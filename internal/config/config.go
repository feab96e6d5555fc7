package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Dropship    DropshipConfig
	Security    SecurityConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DropshipConfig tunes the order automation service
type DropshipConfig struct {
	AdapterTimeout   time.Duration
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	MaxAttempts      int
	TrackingInterval time.Duration
}

type SecurityConfig struct {
	AdminTokenHash string // bcrypt hash of the admin role token
	CredentialKey  string // AES key for supplier credentials at rest
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ADAPTER_TIMEOUT", "5s")
	viper.SetDefault("RETRY_BASE_DELAY", "30s")
	viper.SetDefault("RETRY_MAX_DELAY", "30m")
	viper.SetDefault("RETRY_MAX_ATTEMPTS", "5")
	viper.SetDefault("TRACKING_INTERVAL", "10m")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	adapterTimeout, err := time.ParseDuration(getEnvOrViper("ADAPTER_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADAPTER_TIMEOUT: %w", err)
	}
	retryBase, err := time.ParseDuration(getEnvOrViper("RETRY_BASE_DELAY", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RETRY_BASE_DELAY: %w", err)
	}
	retryMax, err := time.ParseDuration(getEnvOrViper("RETRY_MAX_DELAY", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RETRY_MAX_DELAY: %w", err)
	}
	trackingInterval, err := time.ParseDuration(getEnvOrViper("TRACKING_INTERVAL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRACKING_INTERVAL: %w", err)
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "dropship"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Dropship: DropshipConfig{
			AdapterTimeout:   adapterTimeout,
			RetryBaseDelay:   retryBase,
			RetryMaxDelay:    retryMax,
			MaxAttempts:      viper.GetInt("RETRY_MAX_ATTEMPTS"),
			TrackingInterval: trackingInterval,
		},
		Security: SecurityConfig{
			AdminTokenHash: getEnvOrViper("ADMIN_TOKEN_HASH", ""),
			CredentialKey:  getEnvOrViper("CREDENTIAL_KEY", ""),
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.Security.AdminTokenHash == "" {
		return nil, fmt.Errorf("ADMIN_TOKEN_HASH is required")
	}
	if len(cfg.Security.CredentialKey) != 32 {
		return nil, fmt.Errorf("CREDENTIAL_KEY must be 32 bytes")
	}
	if cfg.Dropship.MaxAttempts < 1 {
		return nil, fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
