// Package config loads the agent's settings from an optional YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/vincentbai/monotrack/internal/ctn"
	"github.com/vincentbai/monotrack/internal/dom"
)

const DefaultAddress = "127.0.0.1:8123"

type Config struct {
	Address      string            `yaml:"address"`
	DatabasePath string            `yaml:"database_path"`
	StaticDir    string            `yaml:"static_dir"`
	Cookie       ctn.CookieOptions `yaml:"cookie"`
	Attributes   dom.Attributes    `yaml:"attributes"`
}

// Load reads path when it is non-empty, applies MONOTRACK_* environment
// overrides and fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("MONOTRACK_ADDRESS"); v != "" {
		cfg.Address = v
	}
	if v := os.Getenv("MONOTRACK_DB"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("MONOTRACK_STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}

	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.DatabasePath == "" {
		dir, err := ApplicationDirectory()
		if err != nil {
			return nil, err
		}
		cfg.DatabasePath = filepath.Join(dir, "actions.db")
	}
	cfg.Attributes = cfg.Attributes.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Cookie.MaxAge < 0 {
		return errors.New("cookie max_age cannot be negative")
	}
	if c.StaticDir != "" {
		info, err := os.Stat(c.StaticDir)
		if err != nil {
			return fmt.Errorf("static_dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("static_dir %s is not a directory", c.StaticDir)
		}
	}
	return nil
}

// ApplicationDirectory returns the platform-specific data directory.
func ApplicationDirectory() (string, error) {
	homeDirectory, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDirectory, "Library", "Application Support", "Monotrack"), nil
	case "windows":
		return filepath.Join(homeDirectory, "AppData", "Roaming", "Monotrack"), nil
	default: // linux and others
		return filepath.Join(homeDirectory, ".local", "share", "Monotrack"), nil
	}
}
