package config

import (
	"strings"
	"time"
)

// GetDefaultConfig returns a configuration with all default values applied.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyBindDefaults(&cfg.Bind)
	applyServerDefaults(&cfg.Server)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyBindDefaults sets bind strategy defaults.
func applyBindDefaults(cfg *BindConfig) {
	if cfg.Type == "" {
		cfg.Type = "tcp"
	}

	if cfg.TCP == nil {
		cfg.TCP = make(map[string]any)
	}
	if cfg.Unix == nil {
		cfg.Unix = make(map[string]any)
	}
	if cfg.FD == nil {
		cfg.FD = make(map[string]any)
	}

	if cfg.Type == "tcp" {
		if _, ok := cfg.TCP["host"]; !ok {
			cfg.TCP["host"] = "127.0.0.1"
		}
		if _, ok := cfg.TCP["port"]; !ok {
			cfg.TCP["port"] = 8000
		}
	}
}

// applyServerDefaults sets server-wide defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Backlog == 0 {
		cfg.Backlog = 2048
	}
	if cfg.TimeoutNotify == 0 {
		cfg.TimeoutNotify = 30 * time.Second
	}
}
