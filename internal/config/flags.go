package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/pathsocial/internal/flagx"
)

// parseFlags overlays cfg with -d, -i and -l. Other arguments are filtered
// out first so flags meant for other parsers do not cause errors here.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("pathsocial", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	poll := fs.Int("i", int(cfg.PollInterval.Seconds()), "external change poll interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, "d", "i", "l")); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	// Only override when given, so sub-second values from JSON survive.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.PollInterval = time.Duration(*poll) * time.Second
		}
	})
	return nil
}
