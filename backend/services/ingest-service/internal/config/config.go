package config

import (
	"errors"
	"time"

	libconfig "airmonitor/backend/libs/config"
	"airmonitor/backend/libs/httpserver"
	"airmonitor/backend/libs/readings"
)

const defaultPort = "8081"

// Config defines ingest service configuration.
type Config struct {
	HTTP struct {
		Port         string `yaml:"port" env:"INGEST_HTTP_PORT"`
		MaxBodyBytes int64  `yaml:"maxBodyBytes" env:"INGEST_MAX_BODY_BYTES"`
	} `yaml:"http"`
	Storage readings.StorageConfig `yaml:"storage"`
	Redis   struct {
		Addr     string        `yaml:"addr" env:"INGEST_REDIS_ADDR"`
		Password string        `yaml:"password" env:"INGEST_REDIS_PASSWORD"`
		DB       int           `yaml:"db" env:"INGEST_REDIS_DB"`
		TTL      time.Duration `yaml:"ttl" env:"INGEST_REDIS_TTL"`
	} `yaml:"redis"`
	// APIKeys holds plain keys or bcrypt hashes produced by `airctl hash-key`.
	APIKeys []string `yaml:"apiKeys" env:"INGEST_API_KEYS"`
}

// Load configuration using shared helper.
func Load() (*Config, error) {
	cfg := &Config{Storage: readings.DefaultStorage()}
	cfg.HTTP.Port = defaultPort
	cfg.HTTP.MaxBodyBytes = 64 << 10
	cfg.Redis.TTL = 24 * time.Hour

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if len(c.APIKeys) == 0 {
		return errors.New("config: at least one api key required")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return errors.New("config: max body bytes must be positive")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	return httpserver.HTTPAddress(c.HTTP.Port, defaultPort)
}

// CacheEnabled reports whether a redis address is configured.
func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != ""
}
