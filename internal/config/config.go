package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds configuration for the Patrol server.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`          // Listen address (default ":9000")
	LogLevel     string        `yaml:"log_level"`     // Log level: debug, info, warn, error
	LogFormat    string        `yaml:"log_format"`    // Log format: text, json
	DBPath       string        `yaml:"db_path"`       // SQLite database path (":memory:" for testing)
	TickInterval time.Duration `yaml:"tick_interval"` // Scheduler evaluation interval (default 5s)
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         ":9000",
		LogLevel:     "info",
		LogFormat:    "text",
		TickInterval: 5 * time.Second,
	}
}

// LoadFile merges a YAML config file over cfg. Fields absent from the
// file keep their current values.
func LoadFile(path string, cfg *ServerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
