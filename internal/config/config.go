package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const defaultDirName = ".pathsocial"

var ErrInvalidConfig = errors.New("invalid config")

// Config holds runtime settings.
//
// Fields:
//   - DataDir: directory of the data file and managed images.
//   - PollInterval: how often the file is checked for external changes.
//   - LogLevel: minimum level written to the log.
type Config struct {
	DataDir      string
	PollInterval time.Duration
	LogLevel     string
}

// LoadDefaults populates c with defaults. The data directory lives in the
// user's home, or the working directory when the home cannot be resolved.
func (c *Config) LoadDefaults() {
	c.DataDir = defaultDataDir()
	c.PollInterval = 2 * time.Second
	c.LogLevel = "warn"
}

// LoadConfig applies defaults, then the JSON file named in args (if any),
// then the flags in args. Later sources take precedence. args excludes the
// program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data dir is empty", ErrInvalidConfig)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %s", ErrInvalidConfig, c.PollInterval)
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return defaultDirName
	}
	return filepath.Join(home, defaultDirName)
}
