package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OMDB_API_KEY", "abc123")
	t.Setenv("CONFIG_DIR", dir)

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "https://www.omdbapi.com/", cfg.OMDbURL)
	assert.Equal(t, "abc123", cfg.OMDbAPIKey)
	assert.Equal(t, 3, cfg.MinQueryLength)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 30*time.Minute, cfg.DetailCacheTTL)
	assert.Equal(t, StorageBolt, cfg.StorageDriver)
	assert.Equal(t, dir, cfg.ConfigDir)
	assert.Contains(t, cfg.BoltFile, "popcorn.db")
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromOverrides(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "abc123")
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("MIN_QUERY_LENGTH", "5")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("STORAGE_DRIVER", "SQLite")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MinQueryLength)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, StorageSQLite, cfg.StorageDriver)
}

func TestLoadFromMissingAPIKey(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "")
	t.Setenv("CONFIG_DIR", t.TempDir())

	_, err := LoadFrom(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OMDB_API_KEY")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			OMDbURL:        "http://localhost",
			OMDbAPIKey:     "key",
			MinQueryLength: 3,
			RequestTimeout: time.Second,
			StorageDriver:  StorageMemory,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "zero threshold allowed", mutate: func(c *Config) { c.MinQueryLength = 0 }},
		{name: "negative threshold", mutate: func(c *Config) { c.MinQueryLength = -1 }, wantErr: "MIN_QUERY_LENGTH"},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: "REQUEST_TIMEOUT"},
		{name: "zero cache ttl disables cache", mutate: func(c *Config) { c.DetailCacheTTL = 0 }},
		{name: "negative cache ttl", mutate: func(c *Config) { c.DetailCacheTTL = -time.Minute }, wantErr: "DETAIL_CACHE_TTL"},
		{name: "negative retries", mutate: func(c *Config) { c.MaxRetries = -1 }, wantErr: "MAX_RETRIES"},
		{name: "unknown driver", mutate: func(c *Config) { c.StorageDriver = "redis" }, wantErr: "STORAGE_DRIVER"},
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
