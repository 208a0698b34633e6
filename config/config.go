/*
config.go - Service configuration

PURPOSE:
  Defines the YAML configuration structure and the loading order:
  defaults, then an optional config file, then environment overrides.

PRECEDENCE (lowest to highest):
  1. Built-in defaults
  2. Config file (-config flag, YAML)
  3. Environment variables (PORT, DB_PATH, LOG_LEVEL, USD_PB_THRESHOLD)

SEE ALSO:
  - cmd/server/main.go: loads this at startup
*/
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Database DatabaseConfig `json:"database" yaml:"database"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Hedge    HedgeConfig    `json:"hedge" yaml:"hedge"`
}

// ServerConfig contains HTTP server parameters
type ServerConfig struct {
	Port int `json:"port" yaml:"port"`
}

// DatabaseConfig contains SQLite parameters
type DatabaseConfig struct {
	Path string `json:"path" yaml:"path"` // ":memory:" for in-memory
}

// LogConfig contains logging parameters
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

// HedgeConfig contains aggregation-engine parameters
type HedgeConfig struct {
	// Fallback warning level when threshold_configuration has no row.
	USDPBDefaultThreshold float64 `json:"usd_pb_default_threshold" yaml:"usd_pb_default_threshold"`
	// Upper bound on concurrent table queries per instruction.
	QueryConcurrency int `json:"query_concurrency" yaml:"query_concurrency"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "hedge.db"},
		Log:      LogConfig{Level: "info", Pretty: true},
		Hedge: HedgeConfig{
			USDPBDefaultThreshold: 150_000,
			QueryConcurrency:      8,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Hedge.USDPBDefaultThreshold < 0 {
		return fmt.Errorf("usd_pb_default_threshold must not be negative")
	}
	if c.Hedge.QueryConcurrency < 1 {
		return fmt.Errorf("query_concurrency must be at least 1")
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("USD_PB_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Hedge.USDPBDefaultThreshold = t
		}
	}
}
