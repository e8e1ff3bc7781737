package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers accepted in STORAGE_DRIVER
const (
	StorageBolt   = "bolt"
	StorageSQLite = "sqlite"
	StorageFile   = "file"
	StorageMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	// OMDb
	OMDbURL           string
	OMDbAPIKey        string
	MinQueryLength    int           // Shorter queries never hit the network (default: 3)
	RequestTimeout    time.Duration // Upper bound for a single search or detail cycle (default: 10s)
	MaxRetries        int           // Retries for transient transport failures (default: 2)
	RequestsPerSecond float64       // Outbound rate limit (default: 5)
	DetailCacheTTL    time.Duration // How long fetched details are reused (default: 30m)

	// Storage
	StorageDriver string
	ConfigDir     string
	BoltFile      string // $CONFIG_DIR/popcorn.db
	SQLiteFile    string // $CONFIG_DIR/popcorn.sqlite
	DataDir       string // $CONFIG_DIR/data (file driver)

	// Server
	ServerPort string

	// Tracing
	TracingEnabled bool

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds the configuration from the given viper instance.
// Flags bound by the CLI take precedence over the environment.
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = v.ReadInConfig()

	setDefaults(v)

	configDir := v.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "popcorn")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	cfg := &Config{
		// OMDb
		OMDbURL:           v.GetString("OMDB_URL"),
		OMDbAPIKey:        v.GetString("OMDB_API_KEY"),
		MinQueryLength:    v.GetInt("MIN_QUERY_LENGTH"),
		RequestTimeout:    v.GetDuration("REQUEST_TIMEOUT"),
		MaxRetries:        v.GetInt("MAX_RETRIES"),
		RequestsPerSecond: v.GetFloat64("REQUESTS_PER_SECOND"),
		DetailCacheTTL:    v.GetDuration("DETAIL_CACHE_TTL"),

		// Storage
		StorageDriver: strings.ToLower(v.GetString("STORAGE_DRIVER")),
		ConfigDir:     configDir,
		BoltFile:      filepath.Join(configDir, "popcorn.db"),
		SQLiteFile:    filepath.Join(configDir, "popcorn.sqlite"),
		DataDir:       filepath.Join(configDir, "data"),

		// Server
		ServerPort: v.GetString("SERVER_PORT"),

		// Tracing
		TracingEnabled: v.GetBool("TRACING_ENABLED"),

		// Logging
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.StorageDriver != StorageMemory {
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("OMDB_URL", "https://www.omdbapi.com/")
	v.SetDefault("MIN_QUERY_LENGTH", 3)
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("MAX_RETRIES", 2)
	v.SetDefault("REQUESTS_PER_SECOND", 5)
	v.SetDefault("DETAIL_CACHE_TTL", "30m")
	v.SetDefault("STORAGE_DRIVER", StorageBolt)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.OMDbURL == "" {
		return fmt.Errorf("OMDB_URL is required")
	}
	if c.OMDbAPIKey == "" {
		return fmt.Errorf("OMDB_API_KEY is required")
	}
	if c.MinQueryLength < 0 {
		return fmt.Errorf("MIN_QUERY_LENGTH must not be negative, got %d", c.MinQueryLength)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.DetailCacheTTL < 0 {
		return fmt.Errorf("DETAIL_CACHE_TTL must not be negative, got %s", c.DetailCacheTTL)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative, got %d", c.MaxRetries)
	}

	switch c.StorageDriver {
	case StorageBolt, StorageSQLite, StorageFile, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	return nil
}
