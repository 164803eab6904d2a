// Package config loads the freshkeep YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"freshkeep"
)

// LogConfig selects the zap preset and level.
type LogConfig struct {
	Mode  string `yaml:"mode"`  // "development" | "production"
	Level string `yaml:"level"` // empty keeps the preset's level
}

// RPCConfig configures the msgpack RPC listener.
type RPCConfig struct {
	Addr string `yaml:"addr"`
}

// UnitConfig declares an extra unit on top of the default catalog.
type UnitConfig struct {
	Abbreviation string  `yaml:"abbreviation"`
	Name         string  `yaml:"name"`
	Factor       float64 `yaml:"factor"`
	Family       string  `yaml:"family"`
}

// Config is the root configuration.
type Config struct {
	Database string       `yaml:"database"`
	Log      LogConfig    `yaml:"log"`
	RPC      RPCConfig    `yaml:"rpc"`
	Units    []UnitConfig `yaml:"units"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Database: filepath.Join(dataHome(), "freshkeep.db"),
		Log:      LogConfig{Mode: "development"},
		RPC:      RPCConfig{Addr: "127.0.0.1:7420"},
	}
}

func dataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "freshkeep")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "freshkeep")
}

// Path resolves the config file: explicit flag, then FRESHKEEP_CONFIG, then
// ~/.config/freshkeep/config.yaml.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("FRESHKEEP_CONFIG"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "freshkeep.yaml"
	}
	return filepath.Join(home, ".config", "freshkeep", "config.yaml")
}

// Load reads path. A missing file yields Default(); keys absent from the file
// keep their defaults. FRESHKEEP_DB overrides the database path.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if env := os.Getenv("FRESHKEEP_DB"); env != "" {
		cfg.Database = env
	}
	if strings.HasPrefix(cfg.Database, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Database = filepath.Join(home, cfg.Database[2:])
		}
	}
	return cfg, nil
}

// CustomUnits converts the configured extra units. Their IDs are derived from
// the abbreviation so they stay stable between runs.
func (c *Config) CustomUnits() ([]freshkeep.Unit, error) {
	units := make([]freshkeep.Unit, 0, len(c.Units))
	for _, uc := range c.Units {
		u := freshkeep.Unit{
			ID:           freshkeep.UnitID(uc.Abbreviation),
			Abbreviation: uc.Abbreviation,
			Name:         uc.Name,
			Factor:       uc.Factor,
			Family:       freshkeep.Family(uc.Family),
		}
		if err := u.Validate(); err != nil {
			return nil, fmt.Errorf("config unit %q: %w", uc.Abbreviation, err)
		}
		units = append(units, u)
	}
	return units, nil
}
