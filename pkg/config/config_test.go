package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: INFO
  format: text
  output: stdout
bind:
  type: tcp
  tcp:
    host: 127.0.0.1
    port: 8000
server:
  max_requests: 0
  timeout_notify: 30s
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected log level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected text format, got %q", cfg.Logging.Format)
	}
	if cfg.Bind.Type != "tcp" {
		t.Errorf("Expected tcp bind type, got %q", cfg.Bind.Type)
	}
	if cfg.Server.TimeoutNotify != 30*time.Second {
		t.Errorf("Expected 30s timeout_notify, got %v", cfg.Server.TimeoutNotify)
	}
	if !cfg.Loaded {
		t.Error("Expected Loaded to be set after Load")
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Loading a non-existent explicit path falls back to defaults
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load without config file failed: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Bind.Type != "tcp" {
		t.Errorf("Expected default bind type tcp, got %q", cfg.Bind.Type)
	}
	if cfg.Bind.TCP["host"] != "127.0.0.1" {
		t.Errorf("Expected default host 127.0.0.1, got %v", cfg.Bind.TCP["host"])
	}
	if cfg.Bind.TCP["port"] != 8000 {
		t.Errorf("Expected default port 8000, got %v", cfg.Bind.TCP["port"])
	}
	if cfg.Server.Backlog != 2048 {
		t.Errorf("Expected default backlog 2048, got %d", cfg.Server.Backlog)
	}
}

func TestLoad_UnixBind(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
bind:
  type: unix
  unix:
    path: /tmp/saker-test.sock
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Bind.Type != "unix" {
		t.Errorf("Expected unix bind type, got %q", cfg.Bind.Type)
	}
	if cfg.Bind.Unix["path"] != "/tmp/saker-test.sock" {
		t.Errorf("Expected unix path /tmp/saker-test.sock, got %v", cfg.Bind.Unix["path"])
	}
}

func TestLoad_Headers(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
headers:
  - name: server
    value: saker
  - name: x-environment
    value: staging
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Headers) != 2 {
		t.Fatalf("Expected 2 headers, got %d", len(cfg.Headers))
	}
	if cfg.Headers[0].Name != "server" || cfg.Headers[0].Value != "saker" {
		t.Errorf("Unexpected first header: %+v", cfg.Headers[0])
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("bind: [not: closed"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for malformed YAML")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: VERBOSE
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
}

func TestFinalize_Idempotent(t *testing.T) {
	cfg := &Config{}

	if err := cfg.Finalize(); err != nil {
		t.Fatalf("First Finalize failed: %v", err)
	}
	if !cfg.Loaded {
		t.Fatal("Expected Loaded after Finalize")
	}

	// A second Finalize must not re-apply defaults over explicit values
	cfg.Logging.Level = "debug"
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Second Finalize failed: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Second Finalize modified config, level = %q", cfg.Logging.Level)
	}
}
