// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for greenshare.
//
// Supports TOML, JSON and YAML configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.greenshare/config.toml
//   - ~/.greenshare/config.json
//   - ~/.greenshare/config.yaml
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/greenshare/greenshare-tui/internal/session"
	"github.com/greenshare/greenshare-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete greenshare configuration.
type Config struct {
	// General settings
	Version string `toml:"version" json:"version" yaml:"version"`
	Debug   bool   `toml:"debug" json:"debug" yaml:"debug"`

	// Account used when no --email flag is given
	Account AccountConfig `toml:"account" json:"account" yaml:"account"`

	// Inactivity timeout
	Session SessionConfig `toml:"session" json:"session" yaml:"session"`

	// Local data backend
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`

	// Audit log
	Audit AuditConfig `toml:"audit" json:"audit" yaml:"audit"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui" yaml:"ui"`
}

// AccountConfig identifies the investor.
type AccountConfig struct {
	Email string `toml:"email" json:"email" yaml:"email" validate:"omitempty,email"`
}

// SessionConfig contains the inactivity timeout settings.
type SessionConfig struct {
	// TimeoutSecs is the idle time after which the session is signed out.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs" validate:"gte=1,lte=86400"`
	// WarningSecs is how long before the timeout the warning is shown.
	// Must not exceed timeout_secs. 0 disables the warning.
	WarningSecs int `toml:"warning_secs" json:"warning_secs" yaml:"warning_secs" validate:"gte=0,ltefield=TimeoutSecs"`
	// ActivityThrottleMs limits how often input re-arms the session timers.
	// The deadline still follows the latest input.
	ActivityThrottleMs int `toml:"activity_throttle_ms" json:"activity_throttle_ms" yaml:"activity_throttle_ms" validate:"gte=0,lte=60000"`
}

// StorageConfig contains the SQLite backend settings.
type StorageConfig struct {
	// Path is the SQLite database file ("" = ~/.greenshare/greenshare.db)
	Path string `toml:"path" json:"path" yaml:"path"`
	// SeedDemo loads demo projects into an empty database
	SeedDemo bool `toml:"seed_demo" json:"seed_demo" yaml:"seed_demo"`
}

// AuditConfig contains audit logging settings.
type AuditConfig struct {
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`
	// Path is the audit log file ("" = ~/.greenshare/audit.log)
	Path string `toml:"path" json:"path" yaml:"path"`
	// MaxSizeMB is the size at which the log is rotated
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb" validate:"gte=1,lte=1024"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light"
	Theme string `toml:"theme" json:"theme" yaml:"theme" validate:"oneof=auto dark light"`
	// ShowLanding shows the landing page before the dashboard
	ShowLanding bool `toml:"show_landing" json:"show_landing" yaml:"show_landing"`
	// Mouse enables mouse events (they also count as activity)
	Mouse bool `toml:"mouse" json:"mouse" yaml:"mouse"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Version: "1",
		Session: SessionConfig{
			TimeoutSecs:        300,
			WarningSecs:        30,
			ActivityThrottleMs: 250,
		},
		Storage: StorageConfig{
			SeedDemo: true,
		},
		Audit: AuditConfig{
			Enabled:   true,
			MaxSizeMB: 10,
		},
		UI: UIConfig{
			Theme:       "auto",
			ShowLanding: true,
			Mouse:       true,
		},
	}
}

// SetDefaults fills zero values that have no meaningful zero.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Session.TimeoutSecs == 0 {
		c.Session.TimeoutSecs = d.Session.TimeoutSecs
	}
	if c.Audit.MaxSizeMB == 0 {
		c.Audit.MaxSizeMB = d.Audit.MaxSizeMB
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// SessionTimers converts the session section into controller timings.
func (c *Config) SessionTimers() session.TimerConfig {
	return session.TimerConfig{
		TotalTimeout:    time.Duration(c.Session.TimeoutSecs) * time.Second,
		WarningLeadTime: time.Duration(c.Session.WarningSecs) * time.Second,
	}
}

// ActivityThrottle returns the activity coalescing interval.
func (c *Config) ActivityThrottle() time.Duration {
	return time.Duration(c.Session.ActivityThrottleMs) * time.Millisecond
}

// DatabasePath returns the configured database path or the default one.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "greenshare.db"), nil
}

// AuditLogPath returns the configured audit log path or the default one.
func (c *Config) AuditLogPath() (string, error) {
	if c.Audit.Path != "" {
		return c.Audit.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "audit.log"), nil
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the greenshare configuration directory path.
// GREENSHARE_HOME overrides the default ~/.greenshare.
func ConfigDir() (string, error) {
	if dir := os.Getenv("GREENSHARE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".greenshare"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// candidatePaths lists config files in precedence order.
func candidatePaths() ([]string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return []string{
		filepath.Join(dir, "config.toml"),
		filepath.Join(dir, "config.json"),
		filepath.Join(dir, "config.yaml"),
	}, nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the first config file found, falling back
// to defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	paths, err := candidatePaths()
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
// The format is chosen by extension; anything unknown is read as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if err := decodeFile(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decodeFile(cfg *Config, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read JSON file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode JSON file: %w", err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read YAML file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode YAML file: %w", err)
		}
	default:
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("failed to decode TOML file: %w", err)
		}
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg as TOML to the default config path.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML to path with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - GREENSHARE_SESSION_TIMEOUT: session.timeout_secs
//   - GREENSHARE_SESSION_WARNING: session.warning_secs
//   - GREENSHARE_DB: storage.path
//   - GREENSHARE_AUDIT_LOG: audit.path
//   - GREENSHARE_EMAIL: account.email
//   - GREENSHARE_DEBUG: set to "1" or "true" to enable debug mode
func (c *Config) ApplyEnvOverrides() {
	if v, ok := envInt("GREENSHARE_SESSION_TIMEOUT"); ok {
		c.Session.TimeoutSecs = v
	}
	if v, ok := envInt("GREENSHARE_SESSION_WARNING"); ok {
		c.Session.WarningSecs = v
	}
	if path := os.Getenv("GREENSHARE_DB"); path != "" {
		c.Storage.Path = path
	}
	if path := os.Getenv("GREENSHARE_AUDIT_LOG"); path != "" {
		c.Audit.Path = path
	}
	if email := os.Getenv("GREENSHARE_EMAIL"); email != "" {
		c.Account.Email = email
	}
	if debug := os.Getenv("GREENSHARE_DEBUG"); debug != "" {
		c.Debug = debug == "1" || strings.ToLower(debug) == "true"
	}
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring %s=%q: not an integer\n", key, raw)
		return 0, false
	}
	return v, true
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
