// Package config loads gatepass settings from ~/.gatepass/config.yaml, an
// optional .env file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/Flyrell/gatepass/internal/schedule"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the effective gatepass configuration.
type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Access    AccessConfig    `yaml:"access"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	Lang      string          `yaml:"lang"`
	Log       LogConfig       `yaml:"log"`
}

type BackendConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type DashboardConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// AccessConfig describes which days members may be granted access for.
type AccessConfig struct {
	Days string `yaml:"days"`
}

type ScannerConfig struct {
	// Device is a line-oriented QR reader, FIFO, or "-" for stdin. Empty means
	// codes are typed into the scanner screen.
	Device  string `yaml:"device"`
	Journal string `yaml:"journal"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Dir returns the gatepass state directory.
func Dir(homeDir string) string {
	return filepath.Join(homeDir, ".gatepass")
}

// Path returns the path to config.yaml.
func Path(homeDir string) string {
	return filepath.Join(Dir(homeDir), "config.yaml")
}

// Default returns the built-in configuration.
func Default(homeDir string) *Config {
	return &Config{
		Backend:   BackendConfig{URL: "http://localhost:4000", Timeout: 10 * time.Second},
		Dashboard: DashboardConfig{Interval: time.Second},
		Access:    AccessConfig{Days: "daily"},
		Scanner:   ScannerConfig{Journal: filepath.Join(Dir(homeDir), "scans.db")},
		Lang:      "en",
		Log:       LogConfig{Level: "info", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28},
	}
}

// LoadEnv loads KEY=VALUE pairs from the given files into the environment
// without overriding variables that are already set. Missing files are
// skipped.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load returns the defaults overlaid with config.yaml (if present) and then
// with environment overrides.
func Load(homeDir string) (*Config, error) {
	c, err := ReadFile(homeDir)
	if err != nil {
		return nil, err
	}

	envOverride(&c.Backend.URL, "BACKEND_URL")
	envOverride(&c.Backend.URL, "GATEPASS_BACKEND_URL")
	envOverrideDuration(&c.Backend.Timeout, "GATEPASS_TIMEOUT")
	envOverride(&c.Lang, "GATEPASS_LANG")
	envOverride(&c.Scanner.Device, "GATEPASS_SCANNER_DEVICE")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverrideInt(&c.Log.MaxSizeMB, "LOG_MAX_SIZE_MB")

	return c, c.Validate()
}

// ReadFile returns the defaults overlaid with config.yaml only.
func ReadFile(homeDir string) (*Config, error) {
	c := Default(homeDir)
	data, err := os.ReadFile(Path(homeDir))
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", Path(homeDir), err)
	}
	return c, nil
}

// Write stores c as config.yaml, creating the state directory if needed.
func Write(homeDir string, c *Config) error {
	if err := os.MkdirAll(Dir(homeDir), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(Path(homeDir), data, 0644)
}

// Validate reports settings that would make gatepass misbehave.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return errors.New("backend.url must not be empty")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("backend.timeout must be positive")
	}
	if c.Dashboard.Interval <= 0 {
		return errors.New("dashboard.interval must be positive")
	}
	if c.Lang != "en" && c.Lang != "ar" {
		return fmt.Errorf("lang must be en or ar, got %q", c.Lang)
	}
	return nil
}

type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

var fields = map[string]field{
	"backend.url": {
		get: func(c *Config) string { return c.Backend.URL },
		set: func(c *Config, v string) error { c.Backend.URL = v; return nil },
	},
	"backend.timeout": {
		get: func(c *Config) string { return c.Backend.Timeout.String() },
		set: func(c *Config, v string) error { return setDuration(&c.Backend.Timeout, v) },
	},
	"dashboard.interval": {
		get: func(c *Config) string { return c.Dashboard.Interval.String() },
		set: func(c *Config, v string) error { return setDuration(&c.Dashboard.Interval, v) },
	},
	"access.days": {
		get: func(c *Config) string { return c.Access.Days },
		set: func(c *Config, v string) error {
			if _, err := schedule.ParseRecurrence(v); err != nil {
				return err
			}
			c.Access.Days = v
			return nil
		},
	},
	"scanner.device": {
		get: func(c *Config) string { return c.Scanner.Device },
		set: func(c *Config, v string) error { c.Scanner.Device = v; return nil },
	},
	"scanner.journal": {
		get: func(c *Config) string { return c.Scanner.Journal },
		set: func(c *Config, v string) error { c.Scanner.Journal = v; return nil },
	},
	"lang": {
		get: func(c *Config) string { return c.Lang },
		set: func(c *Config, v string) error { c.Lang = v; return nil },
	},
	"log.level": {
		get: func(c *Config) string { return c.Log.Level },
		set: func(c *Config, v string) error { c.Log.Level = v; return nil },
	},
	"log.file": {
		get: func(c *Config) string { return c.Log.File },
		set: func(c *Config, v string) error { c.Log.File = v; return nil },
	},
}

// Keys lists the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a dotted key.
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	return f.get(c), nil
}

// Set assigns a dotted key and validates the result.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := f.set(c, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return c.Validate()
}

func setDuration(dst *time.Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envOverrideDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
