package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(10<<20), cfg.Upload.MaxFileBytes)
	assert.Equal(t, 10000, cfg.Upload.MaxRows)
	assert.Equal(t, "ARS", cfg.Upload.DefaultCurrency)
	assert.Equal(t, "ARS", cfg.Upload.LedgerCurrency)
	assert.Equal(t, time.Hour, cfg.ExchangeRates.TTL)
	assert.Equal(t, "@hourly", cfg.ExchangeRates.RefreshSpec)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("UPLOAD_MAX_FILE_BYTES", "2048")
	t.Setenv("UPLOAD_MAX_ROWS", "50")
	t.Setenv("UPLOAD_DEFAULT_CURRENCY", "usd")
	t.Setenv("EXCHANGE_RATES_TTL", "15m")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("UPLOAD_ARCHIVE_DIR", "/var/lib/family-finance/uploads")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(2048), cfg.Upload.MaxFileBytes)
	assert.Equal(t, 50, cfg.Upload.MaxRows)
	assert.Equal(t, "USD", cfg.Upload.DefaultCurrency)
	assert.Equal(t, 15*time.Minute, cfg.ExchangeRates.TTL)
	assert.False(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, "/var/lib/family-finance/uploads", cfg.Upload.ArchiveDir)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative max rows", "UPLOAD_MAX_ROWS", "-1"},
		{"zero file size", "UPLOAD_MAX_FILE_BYTES", "0"},
		{"bad currency", "UPLOAD_DEFAULT_CURRENCY", "PESOS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", c.DSN())

	t.Setenv("DATABASE_URL", "postgres://x@y/z")
	assert.Equal(t, "postgres://x@y/z", c.DSN())
}
