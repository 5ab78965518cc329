package config

import (
	"strings"
	"testing"

	"github.com/saker-io/saker/pkg/transport"
)

func TestResolveBind_TCP(t *testing.T) {
	cfg := GetDefaultConfig()

	spec, err := ResolveBind(cfg)
	if err != nil {
		t.Fatalf("ResolveBind failed: %v", err)
	}

	if spec.Strategy != transport.StrategyTCP {
		t.Errorf("Expected TCP strategy, got %v", spec.Strategy)
	}
	if spec.Host != "127.0.0.1" {
		t.Errorf("Expected host 127.0.0.1, got %q", spec.Host)
	}
	if spec.Port != 8000 {
		t.Errorf("Expected port 8000, got %d", spec.Port)
	}
}

func TestResolveBind_TCPDefaultHost(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Bind.TCP = map[string]any{"port": 9000}

	spec, err := ResolveBind(cfg)
	if err != nil {
		t.Fatalf("ResolveBind failed: %v", err)
	}

	if spec.Host != "127.0.0.1" {
		t.Errorf("Expected default host 127.0.0.1, got %q", spec.Host)
	}
	if spec.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", spec.Port)
	}
}

func TestResolveBind_TCPPortZero(t *testing.T) {
	// Port 0 is valid: the kernel assigns an ephemeral port
	cfg := GetDefaultConfig()
	cfg.Bind.TCP = map[string]any{"port": 0}

	spec, err := ResolveBind(cfg)
	if err != nil {
		t.Fatalf("ResolveBind failed: %v", err)
	}
	if spec.Port != 0 {
		t.Errorf("Expected port 0, got %d", spec.Port)
	}
}

func TestResolveBind_Unix(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Bind.Type = "unix"
	cfg.Bind.Unix = map[string]any{"path": "/tmp/saker.sock"}

	spec, err := ResolveBind(cfg)
	if err != nil {
		t.Fatalf("ResolveBind failed: %v", err)
	}

	if spec.Strategy != transport.StrategyUnix {
		t.Errorf("Expected unix strategy, got %v", spec.Strategy)
	}
	if spec.Path != "/tmp/saker.sock" {
		t.Errorf("Expected path /tmp/saker.sock, got %q", spec.Path)
	}
}

func TestResolveBind_FD(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Bind.Type = "fd"
	cfg.Bind.FD = map[string]any{"fd": 3}

	spec, err := ResolveBind(cfg)
	if err != nil {
		t.Fatalf("ResolveBind failed: %v", err)
	}

	if spec.Strategy != transport.StrategyFD {
		t.Errorf("Expected fd strategy, got %v", spec.Strategy)
	}
	if spec.FD != 3 {
		t.Errorf("Expected fd 3, got %d", spec.FD)
	}
}

func TestResolveBind_UnknownType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Bind.Type = "quic"

	_, err := ResolveBind(cfg)
	if err == nil {
		t.Fatal("Expected error for unknown bind type")
	}
	if !strings.Contains(err.Error(), "unknown bind type") {
		t.Errorf("Expected 'unknown bind type' error, got: %v", err)
	}
}

func TestResolveBind_NegativePort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Bind.TCP = map[string]any{"port": -1}

	_, err := ResolveBind(cfg)
	if err == nil {
		t.Fatal("Expected error for negative port")
	}
}

func TestResolveBind_BadParameterType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Bind.TCP = map[string]any{"port": []string{"not", "a", "port"}}

	_, err := ResolveBind(cfg)
	if err == nil {
		t.Fatal("Expected decode error for malformed port value")
	}
}
