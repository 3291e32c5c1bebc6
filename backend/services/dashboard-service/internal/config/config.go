package config

import (
	"fmt"
	"time"

	libconfig "airmonitor/backend/libs/config"
	"airmonitor/backend/libs/httpserver"
	"airmonitor/backend/libs/readings"
)

const (
	defaultPort    = "3000"
	defaultMaxRows = 100
)

// Config defines dashboard service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"PORT"`
	} `yaml:"http"`
	Environment string                 `yaml:"environment" env:"APP_ENV"`
	Storage     readings.StorageConfig `yaml:"storage"`
	Redis       struct {
		Addr     string `yaml:"addr" env:"DASHBOARD_REDIS_ADDR"`
		Password string `yaml:"password" env:"DASHBOARD_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"DASHBOARD_REDIS_DB"`
	} `yaml:"redis"`
	JWT struct {
		Secret string `yaml:"secret" env:"DASHBOARD_JWT_SECRET"`
	} `yaml:"jwt"`
	WS struct {
		PingInterval time.Duration `yaml:"pingInterval" env:"DASHBOARD_WS_PING_INTERVAL"`
		WriteTimeout time.Duration `yaml:"writeTimeout" env:"DASHBOARD_WS_WRITE_TIMEOUT"`
	} `yaml:"ws"`
	Page struct {
		MaxRows int `yaml:"maxRows" env:"DASHBOARD_MAX_ROWS"`
	} `yaml:"page"`
}

// Load configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{Storage: readings.DefaultStorage()}
	cfg.HTTP.Port = defaultPort
	cfg.Environment = "development"
	cfg.WS.PingInterval = 30 * time.Second
	cfg.WS.WriteTimeout = 10 * time.Second
	cfg.Page.MaxRows = defaultMaxRows

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	if cfg.Page.MaxRows <= 0 {
		return nil, fmt.Errorf("config: DASHBOARD_MAX_ROWS must be positive, got %d", cfg.Page.MaxRows)
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	return httpserver.HTTPAddress(c.HTTP.Port, defaultPort)
}

// AuthEnabled reports whether API routes require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWT.Secret != ""
}

// LiveEnabled reports whether the websocket feed has a redis source.
func (c *Config) LiveEnabled() bool {
	return c.Redis.Addr != ""
}
