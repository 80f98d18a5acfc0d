// Package config loads, defaults and validates the flatstore server
// configuration.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (FLATSTORE_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values
//
// Storage backends follow a factory pattern: the storage section names a
// type and carries a type-specific option map, and only the section
// matching the selected type is decoded.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete flatstore server configuration.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains the connection engine settings
	Server ServerConfig `mapstructure:"server"`

	// Storage selects and configures the storage backend
	Storage StorageConfig `mapstructure:"storage"`

	// Metrics controls the optional Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format: text or json
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Output is stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// ServerConfig contains the connection engine settings.
type ServerConfig struct {
	// Listen is the TCP address to bind, e.g. ":8080"
	Listen string `mapstructure:"listen" validate:"required"`

	// MaxConnections caps concurrent client sessions; 0 = unlimited
	MaxConnections int `mapstructure:"max_connections" validate:"gte=0"`

	// AcceptRatePerSecond throttles the accept loop; 0 = unlimited
	AcceptRatePerSecond uint `mapstructure:"accept_rate_per_second"`

	// AcceptBurst is the accept limiter burst capacity
	AcceptBurst uint `mapstructure:"accept_burst"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// StorageConfig selects the storage backend.
//
// Only the section matching Type is used. "filesystem" is the only backend
// that can honor the advisory-lock discipline the protocol relies on.
type StorageConfig struct {
	// Type specifies which storage backend to use
	Type string `mapstructure:"type" validate:"required,oneof=filesystem"`

	// Filesystem contains filesystem-specific configuration
	Filesystem map[string]any `mapstructure:"filesystem"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns the /metrics HTTP endpoint on
	Enabled bool `mapstructure:"enabled"`

	// Port for the metrics HTTP server
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// An empty configPath uses the default location under the user config
// directory; a missing file is not an error, defaults apply.
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

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures environment variables and config file lookup.
func setupViper(v *viper.Viper, configPath string) {
	// Example: FLATSTORE_SERVER_LISTEN=:9000
	v.SetEnvPrefix("FLATSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			// An explicitly passed path that does not exist also falls
			// back to defaults.
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns XDG_CONFIG_HOME/flatstore, falling back to
// ~/.config/flatstore, or "." as a last resort.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "flatstore")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "flatstore")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
