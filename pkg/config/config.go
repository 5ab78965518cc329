package config

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete Saker configuration.
//
// This structure captures all configurable aspects of the server lifecycle:
//   - Logging configuration
//   - Bind strategy selection and strategy-specific parameters
//   - Server-wide limits and intervals
//   - Static response headers
//   - TLS certificate locations
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (SAKER_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Bind Configuration Pattern:
// Each bind strategy defines its own parameter struct. The Bind section
// contains strategy-specific subsections (bind.tcp, bind.unix, bind.fd) and
// only the section matching the selected type is decoded and used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Bind selects the listening strategy and its parameters
	Bind BindConfig `mapstructure:"bind"`

	// Server contains server-wide limits and intervals
	Server ServerConfig `mapstructure:"server"`

	// Headers lists static response headers appended after the date header
	// on every refresh cycle
	Headers []HeaderConfig `mapstructure:"headers" validate:"dive"`

	// TLS points at certificate material on disk. Construction of the
	// actual transport security context happens outside this package.
	TLS TLSConfig `mapstructure:"tls"`

	// TLSConfig is the opaque transport security context, supplied by the
	// embedding process. When set, every bound listener is wrapped with it.
	TLSConfig *tls.Config `mapstructure:"-"`

	// NotifyCallback, when set, is invoked by the server's tick scheduler
	// at most once per Server.TimeoutNotify.
	NotifyCallback func(ctx context.Context) error `mapstructure:"-"`

	// Loaded reports whether Finalize has run (defaults applied, validated).
	Loaded bool `mapstructure:"-"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// BindConfig specifies the listening strategy.
//
// The Type field determines which strategy is used. Only the corresponding
// strategy-specific section is decoded. Listeners handed off by a process
// manager bypass this section entirely and are passed to Serve directly.
type BindConfig struct {
	// Type selects the bind strategy
	// Valid values: tcp, unix, fd
	Type string `mapstructure:"type" validate:"required,oneof=tcp unix fd"`

	// TCP contains host/port parameters
	// Only used when Type = "tcp"
	TCP map[string]any `mapstructure:"tcp"`

	// Unix contains filesystem domain socket parameters
	// Only used when Type = "unix"
	Unix map[string]any `mapstructure:"unix"`

	// FD contains pre-opened file descriptor parameters
	// Only used when Type = "fd"
	FD map[string]any `mapstructure:"fd"`
}

// ServerConfig contains server-wide limits and intervals.
type ServerConfig struct {
	// Backlog is the requested listen backlog. Carried for interface parity;
	// the Go runtime manages the actual backlog itself.
	Backlog int `mapstructure:"backlog" validate:"min=0"`

	// MaxRequests stops the server once the shared request counter reaches
	// this value. 0 means unlimited.
	MaxRequests int `mapstructure:"max_requests" validate:"min=0"`

	// MaxConnections limits concurrent accepted connections.
	// 0 means unlimited.
	MaxConnections int `mapstructure:"max_connections" validate:"min=0"`

	// TimeoutNotify is the minimum interval between NotifyCallback
	// invocations.
	TimeoutNotify time.Duration `mapstructure:"timeout_notify" validate:"min=0"`

	// AcceptRate throttles the accept loop. Zero rate disables throttling.
	AcceptRate AcceptRateConfig `mapstructure:"accept_rate"`
}

// AcceptRateConfig configures token-bucket throttling of the accept loop.
type AcceptRateConfig struct {
	// RequestsPerSecond is the sustained accept rate. 0 disables throttling.
	RequestsPerSecond uint `mapstructure:"requests_per_second"`

	// Burst is the bucket capacity.
	Burst uint `mapstructure:"burst"`
}

// HeaderConfig is one static response header.
type HeaderConfig struct {
	// Name is the header name (e.g. "server")
	Name string `mapstructure:"name" validate:"required"`

	// Value is the header value
	Value string `mapstructure:"value"`
}

// TLSConfig points at certificate material on disk.
type TLSConfig struct {
	// CertFile is the path to the PEM certificate (chain)
	CertFile string `mapstructure:"cert_file"`

	// KeyFile is the path to the PEM private key
	KeyFile string `mapstructure:"key_file"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SAKER_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Finalize applies defaults and validates the configuration, marking it
// loaded. It is idempotent; the server calls it for configurations that
// were assembled in code rather than through Load.
func (c *Config) Finalize() error {
	if c.Loaded {
		return nil
	}

	ApplyDefaults(c)

	if err := Validate(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	c.Loaded = true
	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use SAKER_ prefix and underscores
	// Example: SAKER_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("SAKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/saker/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - use defaults. An explicit
		// path that does not exist surfaces as fs.ErrNotExist rather than
		// viper's not-found error.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "saker")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "saker")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
