package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Upload        UploadConfig
	ExchangeRates ExchangeRatesConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Name string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type UploadConfig struct {
	MaxFileBytes    int64
	MaxRows         int
	DefaultCurrency string
	LedgerCurrency  string
	// ArchiveDir keeps a copy of every imported file when set.
	ArchiveDir string
}

type ExchangeRatesConfig struct {
	TTL         time.Duration
	RefreshSpec string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Name: getEnv("SERVER_NAME", "family-finance-tracker"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "family_finance"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Upload: UploadConfig{
			MaxFileBytes:    getEnvAsInt64("UPLOAD_MAX_FILE_BYTES", 10<<20),
			MaxRows:         getEnvAsInt("UPLOAD_MAX_ROWS", 10000),
			DefaultCurrency: strings.ToUpper(getEnv("UPLOAD_DEFAULT_CURRENCY", "ARS")),
			LedgerCurrency:  strings.ToUpper(getEnv("UPLOAD_LEDGER_CURRENCY", "ARS")),
			ArchiveDir:      getEnv("UPLOAD_ARCHIVE_DIR", ""),
		},
		ExchangeRates: ExchangeRatesConfig{
			TTL:         getEnvAsDuration("EXCHANGE_RATES_TTL", time.Hour),
			RefreshSpec: getEnv("EXCHANGE_RATES_REFRESH_SPEC", "@hourly"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Upload.MaxFileBytes <= 0 {
		return errors.New("UPLOAD_MAX_FILE_BYTES must be positive")
	}
	if c.Upload.MaxRows <= 0 {
		return errors.New("UPLOAD_MAX_ROWS must be positive")
	}
	if len(c.Upload.DefaultCurrency) != 3 {
		return fmt.Errorf("UPLOAD_DEFAULT_CURRENCY must be an ISO 4217 code, got %q", c.Upload.DefaultCurrency)
	}
	if len(c.Upload.LedgerCurrency) != 3 {
		return fmt.Errorf("UPLOAD_LEDGER_CURRENCY must be an ISO 4217 code, got %q", c.Upload.LedgerCurrency)
	}
	return nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
