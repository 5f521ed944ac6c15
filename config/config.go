// Package config loads the librarydesk TOML configuration.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the full configuration. Missing keys keep their defaults.
// The fine rate and loan period are fixed business rules and are
// deliberately not configurable.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	API      APIConfig      `toml:"api"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Path: "library.db",
		},
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    8642,
			Metrics: true,
		},
	}
}

// Load reads the TOML file at path on top of the defaults. A missing
// file is not an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Addr returns the host:port the API listens on.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}
