package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RateConfig bounds inbound call handling (token bucket).
type RateConfig struct {
	Limit float64 `yaml:"limit"`
	Burst int     `yaml:"burst"`
}

// Config describes one node.
type Config struct {
	Name          string     `yaml:"name"`          // Node name, e.g. "demo@127.0.0.1"
	ListenAddr    string     `yaml:"listenAddr"`    // Accept address, e.g. ":4369"
	AdvertiseAddr string     `yaml:"advertiseAddr"` // Routable address registered for discovery
	EtcdEndpoints []string   `yaml:"etcdEndpoints"` // Empty disables discovery
	Rate          RateConfig `yaml:"rate"`          // Zero limit disables rate limiting
	CallTimeoutMs int        `yaml:"callTimeoutMs"` // Zero disables the handler deadline
}

// Load reads a node config from a YAML file.
func Load(path string) (*Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(f, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("config: node name is required")
	}
	if cfg.AdvertiseAddr == "" {
		cfg.AdvertiseAddr = cfg.ListenAddr
	}
	return &cfg, nil
}
