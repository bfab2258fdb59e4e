// Package config loads adaptsim's runtime settings. Values come from the
// built-in defaults, then an optional YAML file, then ADAPTSIM_* environment
// variables; command-line flags are applied last by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the complete runtime configuration.
type Config struct {
	Server      ServerConfig `yaml:"server"`
	Log         LogConfig    `yaml:"log"`
	RegistryDir string       `yaml:"registryDir"`
	Review      ReviewConfig `yaml:"review"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	Port int    `yaml:"port"`
}

// Address joins Addr and Port.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Addr, s.Port)
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// ReviewConfig configures drafted review rounds.
type ReviewConfig struct {
	// Seed makes drafted reviewer comments reproducible. Zero picks a
	// random seed per session.
	Seed uint64 `yaml:"seed"`
	// MaxAnchors bounds how many diff hunks reviewers comment on.
	MaxAnchors int `yaml:"maxAnchors"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: "127.0.0.1", Port: 8080},
		Log:    LogConfig{Level: "info"},
		Review: ReviewConfig{MaxAnchors: 8},
	}
}

// LoadFile reads path over the defaults. A missing file yields the defaults;
// an unreadable or malformed file is an error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from ADAPTSIM_* variables. Malformed numbers
// are reported rather than ignored.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if val := getenv("ADAPTSIM_ADDR"); val != "" {
		c.Server.Addr = val
	}
	if val := getenv("ADAPTSIM_PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("ADAPTSIM_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if val := getenv("ADAPTSIM_LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := getenv("ADAPTSIM_LOG_DEV"); val != "" {
		dev, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("ADAPTSIM_LOG_DEV: %w", err)
		}
		c.Log.Development = dev
	}
	if val := getenv("ADAPTSIM_REGISTRY_DIR"); val != "" {
		c.RegistryDir = val
	}
	if val := getenv("ADAPTSIM_REVIEW_SEED"); val != "" {
		seed, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("ADAPTSIM_REVIEW_SEED: %w", err)
		}
		c.Review.Seed = seed
	}
	return c.Validate()
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if _, err := zapcore.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.Review.MaxAnchors < 0 {
		return fmt.Errorf("review maxAnchors must not be negative")
	}
	if c.RegistryDir != "" {
		fi, err := os.Stat(c.RegistryDir)
		if err != nil {
			return fmt.Errorf("registry dir: %w", err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("registry dir %s is not a directory", c.RegistryDir)
		}
	}
	return nil
}
