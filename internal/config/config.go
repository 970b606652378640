// Package config reads the portal client's settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/mathportal/internal/errs"
)

// Cache backends.
const (
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
	CacheMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	APIURL      string
	Token       string
	HTTPTimeout time.Duration

	// CacheBackend selects where local progress lives: sqlite, redis or memory.
	CacheBackend string
	DBPath       string // Empty means the default data dir path.
	RedisURL     string
	RedisTTL     time.Duration // Zero keeps keys forever.

	SyncInterval time.Duration
	LogLevel     string
	LogFormat    string
	LogFile      string // Empty means <data dir>/mathportal.log.
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		APIURL:       "http://localhost:9532/api",
		HTTPTimeout:  15 * time.Second,
		CacheBackend: CacheSQLite,
		RedisURL:     "redis://localhost:6379/0",
		SyncInterval: 30 * time.Second,
		LogLevel:     "info",
		LogFormat:    "json",
	}
}

// Load reads configuration from environment variables with defaults.
// It loads .env file if present but does not fail if missing.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	d := Default()
	cfg := &Config{
		APIURL:       getEnv("MATHPORTAL_API_URL", d.APIURL),
		Token:        getEnv("MATHPORTAL_TOKEN", ""),
		CacheBackend: strings.ToLower(getEnv("MATHPORTAL_CACHE", d.CacheBackend)),
		DBPath:       getEnv("MATHPORTAL_DB", ""),
		RedisURL:     getEnv("REDIS_URL", d.RedisURL),
		LogLevel:     getEnv("LOG_LEVEL", d.LogLevel),
		LogFormat:    getEnv("LOG_FORMAT", d.LogFormat),
		LogFile:      getEnv("LOG_FILE", ""),
	}

	var err error
	if cfg.HTTPTimeout, err = getEnvSeconds("MATHPORTAL_HTTP_TIMEOUT", d.HTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.SyncInterval, err = getEnvSeconds("SYNC_INTERVAL", d.SyncInterval); err != nil {
		return nil, err
	}
	if cfg.RedisTTL, err = getEnvSeconds("REDIS_TTL", 0); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have a closed set of values.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case CacheSQLite, CacheRedis, CacheMemory:
	default:
		return errs.Configf("MATHPORTAL_CACHE", "unknown cache backend %q", c.CacheBackend)
	}
	if c.CacheBackend == CacheRedis && c.RedisURL == "" {
		return errs.Configf("REDIS_URL", "required for the redis cache backend")
	}
	if c.SyncInterval <= 0 {
		return errs.Configf("SYNC_INTERVAL", "must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return errs.Configf("MATHPORTAL_HTTP_TIMEOUT", "must be positive")
	}
	switch c.LogFormat {
	case "json", "pretty":
	default:
		return errs.Configf("LOG_FORMAT", "want json or pretty, got %q", c.LogFormat)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvSeconds reads a whole number of seconds.
func getEnvSeconds(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &errs.ConfigurationError{Field: key, Reason: "want a whole number of seconds", Err: err}
	}
	return time.Duration(n) * time.Second, nil
}
