// Package config loads runtime configuration for the pathsocial shell.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-d string   data directory holding data.json and images/
//	-i int      external change poll interval (seconds)
//	-l string   log level: debug, info, warn or error
//
// # JSON schema
//
// Intervals use timex.Duration, so they can be strings like "2s" or integer
// nanoseconds:
//
//	{
//	  "data_dir": "/home/me/.pathsocial",
//	  "poll_interval": "2s",
//	  "log_level": "warn"
//	}
//
// Keys missing from the file keep their earlier value.
package config
