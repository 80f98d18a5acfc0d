package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultConfigTemplate is the commented starter configuration written by
// InitConfig. Kept as a literal so the comments survive, which a
// yaml.Marshal of Config would lose.
const defaultConfigTemplate = `# flatstore Configuration File
#
# Values can be overridden with FLATSTORE_* environment variables,
# e.g. FLATSTORE_SERVER_LISTEN=:9000

logging:
  # DEBUG, INFO, WARN or ERROR
  level: "INFO"
  # text or json
  format: "text"
  # stdout, stderr or a file path
  output: "stdout"

server:
  # TCP address to bind
  listen: ":8080"
  # Maximum concurrent client sessions (0 = unlimited)
  max_connections: 0
  # Accept-loop throttle in connections per second (0 = unlimited)
  accept_rate_per_second: 0
  # Maximum time to wait for in-flight sessions on shutdown
  shutdown_timeout: 30s

storage:
  type: "filesystem"
  filesystem:
    # Directory holding the stored files (flat namespace)
    root: "/var/lib/flatstore"

metrics:
  # Expose Prometheus metrics on http://:<port>/metrics
  enabled: false
  port: 9090
`

// InitConfig writes the default configuration file to the standard location
// and returns its path. It refuses to overwrite an existing file unless
// force is set.
func InitConfig(force bool) (string, error) {
	configDir := getConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return "", fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
		}
	}

	if err := os.WriteFile(configPath, []byte(defaultConfigTemplate), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
