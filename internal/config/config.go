// Package config handles configuration loading and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultDataDir       = "~/.tada"
	DefaultBackend       = "sqlite"
	DefaultTheme         = "classic"
	DefaultStatusTTL     = 3 * time.Second
	DefaultProbeAddr     = "1.1.1.1:443"
	DefaultProbeInterval = 5 * time.Second
	DefaultProbeTimeout  = 2 * time.Second
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

// Config holds the full configuration for tada.
type Config struct {
	DataDir   string        `toml:"data_dir"`
	Backend   string        `toml:"backend"` // sqlite or json
	Theme     string        `toml:"theme"`   // classic, neon, mono
	StatusTTL time.Duration `toml:"status_ttl"`

	Log          LogConfig          `toml:"log"`
	Connectivity ConnectivityConfig `toml:"connectivity"`

	// Path of the file the values were read from, if any.
	Source string `toml:"-"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text, json, logfmt
	File   string `toml:"file"`   // interactive view only; empty means <data_dir>/tada.log
}

type ConnectivityConfig struct {
	ProbeAddr     string        `toml:"probe_addr"`
	ProbeInterval time.Duration `toml:"probe_interval"`
	ProbeTimeout  time.Duration `toml:"probe_timeout"`
	Offline       bool          `toml:"offline"` // pretend the network is always down
}

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. Config file (TOML): path if given, else the first one found
// 3. Environment variables
//
// Command-line flags are applied on top by the caller, then Finalize.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		cfg.Source = path
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.DataDir = DefaultDataDir
	cfg.Backend = DefaultBackend
	cfg.Theme = DefaultTheme
	cfg.StatusTTL = DefaultStatusTTL
	cfg.Log.Level = DefaultLogLevel
	cfg.Log.Format = DefaultLogFormat
	cfg.Connectivity.ProbeAddr = DefaultProbeAddr
	cfg.Connectivity.ProbeInterval = DefaultProbeInterval
	cfg.Connectivity.ProbeTimeout = DefaultProbeTimeout
}

// findConfigFile looks in the current directory, then in ~/.tada.
func findConfigFile() string {
	names := []string{"tada.toml", ".tada.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		names = append(names, filepath.Join(home, ".tada", "config.toml"))
	}
	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TADA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TADA_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("TADA_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("TADA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TADA_PROBE_ADDR"); v != "" {
		cfg.Connectivity.ProbeAddr = v
	}
	if v := os.Getenv("TADA_OFFLINE"); v != "" {
		cfg.Connectivity.Offline = boolFromString(v)
	}
	if v := os.Getenv("TADA_STATUS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TADA_STATUS_TTL: %w", err)
		}
		cfg.StatusTTL = d
	}
	return nil
}

// Finalize validates the merged config and expands paths.
func (c *Config) Finalize() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case "sqlite", "json":
	default:
		return fmt.Errorf("unknown backend %q (want sqlite or json)", c.Backend)
	}
	dir, err := expandHome(c.DataDir)
	if err != nil {
		return err
	}
	c.DataDir = dir
	if c.Log.File == "" {
		c.Log.File = filepath.Join(c.DataDir, "tada.log")
	} else if c.Log.File, err = expandHome(c.Log.File); err != nil {
		return err
	}
	if c.StatusTTL <= 0 {
		c.StatusTTL = DefaultStatusTTL
	}
	if c.Connectivity.ProbeInterval <= 0 {
		c.Connectivity.ProbeInterval = DefaultProbeInterval
	}
	if c.Connectivity.ProbeTimeout <= 0 {
		c.Connectivity.ProbeTimeout = DefaultProbeTimeout
	}
	return nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// boolFromString parses a boolean from a string.
func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
