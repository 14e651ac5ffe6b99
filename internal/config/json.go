package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/pathsocial/internal/flagx"
	"github.com/dmitrijs2005/pathsocial/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Pointer fields
// tell an absent key from a zero value.
type JsonConfig struct {
	DataDir      *string         `json:"data_dir"`
	PollInterval *timex.Duration `json:"poll_interval"`
	LogLevel     *string         `json:"log_level"`
}

// parseJson overlays cfg with the file named by -c or -config. Without either
// flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}

	if jc.DataDir != nil {
		cfg.DataDir = *jc.DataDir
	}
	if jc.PollInterval != nil {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	return nil
}
