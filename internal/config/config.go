// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by FromEnv.
const EnvPrefix = "APPLY"

// Default values
const (
	DefaultAPIURL         = "http://localhost:8000"
	DefaultTimeoutSeconds = 120
	DefaultBurst          = 1
	DefaultLogLevel       = "info"
	DefaultKeyringService = "apply-assistant"
)

// Config represents the CLI configuration. It can be loaded from a JSON or YAML
// file and from APPLY_* environment variables. All fields are optional.
type Config struct {
	// Backend
	APIURL            string  `json:"api_url,omitempty" yaml:"api_url,omitempty" envconfig:"API_URL"`                                     // Base URL of the backend
	TimeoutSeconds    int     `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" envconfig:"TIMEOUT_SECONDS"`             // Per-request timeout
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty" envconfig:"REQUESTS_PER_SECOND"` // Client-side throttle; 0 disables it
	Burst             int     `json:"burst,omitempty" yaml:"burst,omitempty" envconfig:"BURST"`

	// Local state
	DataDir        string `json:"data_dir,omitempty" yaml:"data_dir,omitempty" envconfig:"DATA_DIR"` // Holds the run lock
	DatabaseURL    string `json:"database_url,omitempty" yaml:"database_url,omitempty" envconfig:"DATABASE_URL"`
	KeyringService string `json:"keyring_service,omitempty" yaml:"keyring_service,omitempty" envconfig:"KEYRING_SERVICE"`

	// Behavior
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty" envconfig:"LOG_LEVEL"`
	Verbose  bool   `json:"verbose,omitempty" yaml:"verbose,omitempty" envconfig:"VERBOSE"` // Print detailed output
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// FromEnv reads APPLY_* environment variables. Unset variables leave fields zero.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, nil
}

// Overlay returns a copy of c with every non-zero field of top applied over it.
func (c *Config) Overlay(top Config) Config {
	result := *c
	if top.APIURL != "" {
		result.APIURL = top.APIURL
	}
	if top.TimeoutSeconds != 0 {
		result.TimeoutSeconds = top.TimeoutSeconds
	}
	if top.RequestsPerSecond != 0 {
		result.RequestsPerSecond = top.RequestsPerSecond
	}
	if top.Burst != 0 {
		result.Burst = top.Burst
	}
	if top.DataDir != "" {
		result.DataDir = top.DataDir
	}
	if top.DatabaseURL != "" {
		result.DatabaseURL = top.DatabaseURL
	}
	if top.KeyringService != "" {
		result.KeyringService = top.KeyringService
	}
	if top.LogLevel != "" {
		result.LogLevel = top.LogLevel
	}
	if top.Verbose {
		result.Verbose = true
	}
	return result
}

// Validate checks that the configuration has valid values.
// Note: empty fields are accepted; MergeWithDefaults fills them.
func (c *Config) Validate() error {
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config error: 'api_url' must be an http(s) URL, got %q", c.APIURL)
		}
	}

	// Validate numeric ranges
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'timeout_seconds' must be non-negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("config error: 'requests_per_second' must be non-negative")
	}
	if c.Burst < 0 {
		return fmt.Errorf("config error: 'burst' must be non-negative")
	}

	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("config error: 'log_level': %w", err)
		}
	}

	if c.DatabaseURL != "" &&
		!strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return fmt.Errorf("config error: 'database_url' must be a postgres:// URL")
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.APIURL == "" {
		result.APIURL = defaults.APIURL
	}
	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.KeyringService == "" {
		result.KeyringService = defaults.KeyringService
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	// Numeric fields: use default if zero
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if result.RequestsPerSecond == 0 {
		result.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if result.Burst == 0 {
		result.Burst = defaults.Burst
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	dataDir := filepath.Join(os.TempDir(), "apply-assistant")
	if dir, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(dir, "apply-assistant")
	}
	return Config{
		APIURL:         DefaultAPIURL,
		TimeoutSeconds: DefaultTimeoutSeconds,
		Burst:          DefaultBurst,
		DataDir:        dataDir,
		KeyringService: DefaultKeyringService,
		LogLevel:       DefaultLogLevel,
	}
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
