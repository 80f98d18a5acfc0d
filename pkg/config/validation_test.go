package config

import (
	"strings"
	"testing"
)

// validConfig returns a configuration that passes validation; tests mutate
// single fields from here.
func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Default config should validate, got: %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "VERBOSE"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for bad log level")
	}
	if !strings.Contains(err.Error(), "Level") {
		t.Errorf("Error should mention the Level field, got: %v", err)
	}
}

func TestValidate_BadLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for bad log format")
	}
}

func TestValidate_BadStorageType(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Type = "s3"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for unsupported storage type")
	}
}

func TestValidate_MissingStorageRoot(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Filesystem = map[string]any{}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for missing storage root")
	}
	if !strings.Contains(err.Error(), "root") {
		t.Errorf("Error should mention root, got: %v", err)
	}
}

func TestValidate_NegativeMaxConnections(t *testing.T) {
	cfg := validConfig()
	cfg.Server.MaxConnections = -1

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for negative max_connections")
	}
}

func TestValidate_MetricsPortRange(t *testing.T) {
	cfg := validConfig()
	cfg.Metrics.Port = 70000

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for out-of-range metrics port")
	}
}

func TestValidate_AcceptBurstBelowRate(t *testing.T) {
	cfg := validConfig()
	cfg.Server.AcceptRatePerSecond = 100
	cfg.Server.AcceptBurst = 10

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for accept_burst below accept_rate_per_second")
	}
	if !strings.Contains(err.Error(), "accept_burst") {
		t.Errorf("Error should mention accept_burst, got: %v", err)
	}
}

func TestValidate_MissingShutdownTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ShutdownTimeout = 0

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for zero shutdown_timeout")
	}
}
