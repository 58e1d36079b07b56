// Package config loads the YAML configuration of the jqld daemon.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/tobsdb/jqldb/internal/filelock"
	"github.com/tobsdb/jqldb/pkg"
	"gopkg.in/yaml.v3"
)

type LockConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

type Config struct {
	// directory holding <server>/<database>/<table>.jdbt and users.json
	Root     string     `yaml:"root"`
	Listen   string     `yaml:"listen"`
	LogLevel string     `yaml:"log_level"`
	Lock     LockConfig `yaml:"lock"`
	Metrics  bool       `yaml:"metrics"`
}

func Default() *Config {
	return &Config{
		Root:     "./data",
		Listen:   ":7085",
		LogLevel: "error",
		Lock:     LockConfig{PollInterval: filelock.DefaultPollInterval},
		Metrics:  true,
	}
}

var logLevels = []string{"none", "off", "error", "debug"}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		pkg.DebugLog("no config file, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return errors.New("root must be set")
	}
	if c.Lock.PollInterval < 0 {
		return fmt.Errorf("lock.poll_interval must not be negative, got %s", c.Lock.PollInterval)
	}
	if c.LogLevel != "" && !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
