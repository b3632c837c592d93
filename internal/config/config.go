// Package config loads wayfinder settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/raphaelgruber/wayfinder/internal/enrichment"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Remote conversation store
	ServerURL     string
	ClientTimeout time.Duration

	// Enrichment
	DefaultOrigin string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Path of the YAML file that was read, empty if none.
	ConfigFile string
}

// fileConfig mirrors the YAML layout. Empty fields keep their defaults.
type fileConfig struct {
	ServerURL     string `yaml:"server_url"`
	ClientTimeout string `yaml:"client_timeout"`
	DefaultOrigin string `yaml:"default_origin"`
	LogFile       string `yaml:"log_file"`
	LogLevel      string `yaml:"log_level"`
}

// Defaults.
const (
	DefaultServerURL     = "http://localhost:5000"
	DefaultClientTimeout = 60 * time.Second
	DefaultLogFile       = "/tmp/wayfinder.log"
)

// Load reads configuration from the default YAML file (if present) and environment variables.
func Load() (Config, error) {
	return LoadFile(getEnv("WAYFINDER_CONFIG", DefaultPath()))
}

// LoadFile reads configuration from path, then applies environment overrides.
// A missing file is not an error.
func LoadFile(path string) (Config, error) {
	cfg := Config{
		ServerURL:     DefaultServerURL,
		ClientTimeout: DefaultClientTimeout,
		DefaultOrigin: enrichment.DefaultOrigin,
		LogFile:       DefaultLogFile,
		LogLevel:      slog.LevelWarn,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			var fc fileConfig
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
			if err := fc.apply(&cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
			cfg.ConfigFile = path
		}
	}

	cfg.ServerURL = getEnv("WAYFINDER_SERVER_URL", cfg.ServerURL)
	cfg.DefaultOrigin = getEnv("WAYFINDER_ORIGIN", cfg.DefaultOrigin)
	cfg.LogFile = getEnv("WAYFINDER_LOG_FILE", cfg.LogFile)
	if v := os.Getenv("WAYFINDER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv("WAYFINDER_CLIENT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("WAYFINDER_CLIENT_TIMEOUT: %w", err)
		}
		cfg.ClientTimeout = d
	}

	return cfg, nil
}

func (fc fileConfig) apply(cfg *Config) error {
	if fc.ServerURL != "" {
		cfg.ServerURL = fc.ServerURL
	}
	if fc.ClientTimeout != "" {
		d, err := time.ParseDuration(fc.ClientTimeout)
		if err != nil {
			return fmt.Errorf("client_timeout: %w", err)
		}
		cfg.ClientTimeout = d
	}
	if fc.DefaultOrigin != "" {
		cfg.DefaultOrigin = fc.DefaultOrigin
	}
	if fc.LogFile != "" {
		cfg.LogFile = fc.LogFile
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(fc.LogLevel)
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/wayfinder/config.yaml, or "" if no config dir is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "wayfinder", "config.yaml")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
