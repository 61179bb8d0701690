// Package config handles configuration loading for fedlens.
// It supports YAML config files, an optional .env file and environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingCredential is returned by Validate when no FRED API key is
// configured. Nothing can be fetched without one.
var ErrMissingCredential = errors.New("FRED API key is not configured (set FED_API_KEY, FRED_API_KEY or fred.api_key)")

// ErrInvalidConfig wraps out-of-range settings reported by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the complete application configuration.
type Config struct {
	FRED    FREDConfig    `mapstructure:"fred"    yaml:"fred" json:"fred"`
	Cache   CacheConfig   `mapstructure:"cache"   yaml:"cache" json:"cache"`
	Fetch   FetchConfig   `mapstructure:"fetch"   yaml:"fetch" json:"fetch"`
	API     APIConfig     `mapstructure:"api"     yaml:"api" json:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`
}

// FREDConfig holds the statistics API connection settings.
type FREDConfig struct {
	APIKey            string `mapstructure:"api_key"             yaml:"api_key" json:"api_key"`
	BaseURL           string `mapstructure:"base_url"            yaml:"base_url" json:"base_url"`
	TimeoutSec        int    `mapstructure:"timeout_sec"         yaml:"timeout_sec" json:"timeout_sec"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
}

// Timeout returns the per-request timeout.
func (f FREDConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

// CacheConfig holds series cache settings.
type CacheConfig struct {
	TTLSec int `mapstructure:"ttl_sec" yaml:"ttl_sec" json:"ttl_sec"`
}

// TTL returns how long a fetched series stays fresh.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// FetchConfig holds fetch fan-out settings.
type FetchConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency" json:"concurrency"` // 1 = sequential
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host" json:"host"`
	Port        int      `mapstructure:"port"         yaml:"port" json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
}

// Addr returns host:port.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level" json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.fedlens/config.yaml (home directory)
//  3. /etc/fedlens/config.yaml (system)
//
// A .env file in the working directory is loaded first if present; it never
// overrides variables already set in the environment.
//
// Environment variables override config file values.
// Format: FEDLENS_<SECTION>_<KEY>, e.g., FEDLENS_CACHE_TTL_SEC
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".fedlens"))
	v.AddConfigPath("/etc/fedlens")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FEDLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("fred.api_key", "")
	v.SetDefault("fred.base_url", "https://api.stlouisfed.org/fred")
	v.SetDefault("fred.timeout_sec", 30)
	v.SetDefault("fred.requests_per_minute", 120)

	v.SetDefault("cache.ttl_sec", 3600) // 1 hour

	v.SetDefault("fetch.concurrency", 1)

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// apiKeyEnvVars are checked in order; the first non-empty one wins.
var apiKeyEnvVars = []string{"FEDLENS_FRED_API_KEY", "FED_API_KEY", "FRED_API_KEY"}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	for _, name := range apiKeyEnvVars {
		if key := os.Getenv(name); key != "" {
			cfg.FRED.APIKey = key
			return
		}
	}
}

// Validate reports configuration that makes the service unusable. A missing
// API key yields ErrMissingCredential.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.FRED.APIKey) == "" {
		return ErrMissingCredential
	}
	switch {
	case c.Cache.TTLSec <= 0:
		return fmt.Errorf("%w: cache.ttl_sec must be positive, got %d", ErrInvalidConfig, c.Cache.TTLSec)
	case c.Fetch.Concurrency < 1:
		return fmt.Errorf("%w: fetch.concurrency must be at least 1, got %d", ErrInvalidConfig, c.Fetch.Concurrency)
	case c.FRED.TimeoutSec <= 0:
		return fmt.Errorf("%w: fred.timeout_sec must be positive, got %d", ErrInvalidConfig, c.FRED.TimeoutSec)
	case c.API.Port < 0 || c.API.Port > 65535:
		return fmt.Errorf("%w: api.port out of range: %d", ErrInvalidConfig, c.API.Port)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
