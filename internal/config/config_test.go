package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir on older Go).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, int64(1), cfg.Pricing.UnitPrice)
	assert.Equal(t, 24*time.Hour, cfg.Pricing.Period)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTLIdempotency)
	assert.True(t, cfg.Features.EnableRealTimeUpdates)
}

func TestLoad_FromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("ENABLE_IDEMPOTENCY", "false")
	t.Setenv("PRICING_UNIT_PRICE", "3")
	t.Setenv("PRICING_PERIOD_HOURS", "12")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("DB_MAX_CONNECTIONS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, int64(3), cfg.Pricing.UnitPrice)
	assert.Equal(t, 12*time.Hour, cfg.Pricing.Period)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 25, cfg.Database.MaxConnections, "unparsable values fall back to the default")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080", Env: "development"},
			Storage:  StorageConfig{Driver: StoragePostgres},
			Database: DatabaseConfig{Host: "localhost", Name: "bikesharing"},
			Redis:    RedisConfig{Enabled: true, Host: "localhost"},
			Pricing:  PricingConfig{UnitPrice: 1, Period: 24 * time.Hour},
			Features: FeatureFlags{EnableIdempotency: true},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "Valid", mutate: func(*Config) {}},
		{name: "Unknown driver", mutate: func(c *Config) { c.Storage.Driver = "sqlite" }, wantErr: "STORAGE_DRIVER"},
		{name: "Memory in production", mutate: func(c *Config) {
			c.Storage.Driver = StorageMemory
			c.Server.Env = "production"
		}, wantErr: "not allowed in production"},
		{name: "Missing database host", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: "DB_HOST"},
		{name: "Idempotency without Redis", mutate: func(c *Config) { c.Redis.Enabled = false }, wantErr: "ENABLE_IDEMPOTENCY"},
		{name: "Zero unit price", mutate: func(c *Config) { c.Pricing.UnitPrice = 0 }, wantErr: "PRICING_UNIT_PRICE"},
		{name: "Negative period", mutate: func(c *Config) { c.Pricing.Period = -time.Hour }, wantErr: "PRICING_PERIOD_HOURS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
