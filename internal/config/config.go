package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/capekit/internal/constant"

	"gopkg.in/yaml.v3"
)

// Config describes the application level configuration loaded from json or yaml.
type Config struct {
	StorageDir  string `json:"storage_dir" yaml:"storage_dir"`
	JournalPath string `json:"journal_path" yaml:"journal_path"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{StorageDir: constant.DefaultStorageDir}
}

// LoadFirst tries to load configuration from the given paths, returning the
// first successfully decoded configuration. Paths that do not exist are
// skipped; if none exist the defaults are returned.
func LoadFirst(paths ...string) (*Config, error) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		cfg, err := Load(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Default(), nil
}

// Load reads configuration from a single file path. Files ending in .yaml or
// .yml are decoded as yaml, everything else as json.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if strings.TrimSpace(cfg.StorageDir) == "" {
		cfg.StorageDir = constant.DefaultStorageDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the process environment.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(constant.EnvStorageDir)); v != "" {
		c.StorageDir = v
	}
	if v := strings.TrimSpace(os.Getenv(constant.EnvJournal)); v != "" {
		c.JournalPath = v
	}
}

// Validate performs basic validation of the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.StorageDir) == "" {
		return errors.New("config.storage_dir must be set")
	}
	if strings.ContainsRune(c.JournalPath, 0) {
		return errors.New("config.journal_path contains a NUL byte")
	}
	return nil
}
