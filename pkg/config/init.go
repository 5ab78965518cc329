package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultConfigTemplate is the commented starter configuration written by
// InitConfig. It must stay parseable as YAML and load into Config without
// validation errors.
const defaultConfigTemplate = `# Saker Configuration File
#
# Configuration precedence: CLI flags > SAKER_* environment variables >
# this file > built-in defaults.

logging:
  # Minimum log level: DEBUG, INFO, WARN, ERROR
  level: INFO
  # Output format: text or json
  format: text
  # Destination: stdout, stderr, or a file path
  output: stdout

bind:
  # Listening strategy: tcp, unix, or fd
  type: tcp
  tcp:
    host: 127.0.0.1
    port: 8000
  # unix:
  #   path: /tmp/saker.sock
  # fd:
  #   fd: 3

server:
  # Requested listen backlog (informational on Go runtimes)
  backlog: 2048
  # Stop after this many requests; 0 means unlimited
  max_requests: 0
  # Concurrent connection cap; 0 means unlimited
  max_connections: 0
  # Minimum interval between notification callbacks
  timeout_notify: 30s

# Static response headers, appended after the date header each refresh cycle
# headers:
#   - name: server
#     value: saker

# tls:
#   cert_file: /etc/saker/cert.pem
#   key_file: /etc/saker/key.pem
`

// InitConfig writes the default configuration file to the default location.
//
// Returns the path written. Fails if the file already exists unless force
// is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()

	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}

	return path, nil
}

// InitConfigToPath writes the default configuration file to a specific path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
