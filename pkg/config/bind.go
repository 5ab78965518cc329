package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/saker-io/saker/pkg/transport"
)

// ResolveBind resolves the configured bind strategy into a transport.Spec.
//
// This factory uses the Type field to determine which strategy applies, then
// decodes the strategy-specific parameters from the corresponding map.
// Listeners handed off by a process manager take precedence over every
// configured strategy and never reach this function.
//
// Supported types:
//   - "tcp": host/port pair
//   - "unix": filesystem domain socket path
//   - "fd": pre-opened file descriptor wrapped as a domain-socket listener
func ResolveBind(cfg *Config) (transport.Spec, error) {
	switch cfg.Bind.Type {
	case "tcp":
		return resolveTCPBind(cfg.Bind.TCP)
	case "unix":
		return resolveUnixBind(cfg.Bind.Unix)
	case "fd":
		return resolveFDBind(cfg.Bind.FD)
	default:
		return transport.Spec{}, fmt.Errorf("unknown bind type: %q", cfg.Bind.Type)
	}
}

// resolveTCPBind decodes host/port parameters.
func resolveTCPBind(options map[string]any) (transport.Spec, error) {
	type TCPBindConfig struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	}

	var c TCPBindConfig
	if err := mapstructure.Decode(options, &c); err != nil {
		return transport.Spec{}, fmt.Errorf("invalid tcp bind config: %w", err)
	}

	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port < 0 || c.Port > 65535 {
		return transport.Spec{}, fmt.Errorf("invalid tcp bind port %d: must be 0-65535", c.Port)
	}

	return transport.Spec{
		Strategy: transport.StrategyTCP,
		Host:     c.Host,
		Port:     c.Port,
	}, nil
}

// resolveUnixBind decodes domain socket parameters.
func resolveUnixBind(options map[string]any) (transport.Spec, error) {
	type UnixBindConfig struct {
		Path string `mapstructure:"path"`
	}

	var c UnixBindConfig
	if err := mapstructure.Decode(options, &c); err != nil {
		return transport.Spec{}, fmt.Errorf("invalid unix bind config: %w", err)
	}

	if c.Path == "" {
		return transport.Spec{}, fmt.Errorf("unix bind requires a path")
	}

	return transport.Spec{
		Strategy: transport.StrategyUnix,
		Path:     c.Path,
	}, nil
}

// resolveFDBind decodes file descriptor parameters.
func resolveFDBind(options map[string]any) (transport.Spec, error) {
	type FDBindConfig struct {
		FD int `mapstructure:"fd"`
	}

	c := FDBindConfig{FD: -1}
	if err := mapstructure.Decode(options, &c); err != nil {
		return transport.Spec{}, fmt.Errorf("invalid fd bind config: %w", err)
	}

	if c.FD < 0 {
		return transport.Spec{}, fmt.Errorf("fd bind requires a non-negative file descriptor")
	}

	return transport.Spec{
		Strategy: transport.StrategyFD,
		FD:       c.FD,
	}, nil
}
