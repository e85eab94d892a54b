package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/dlist/pkg/linkedlist"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.ListPolicy(); err != nil {
		return err
	}
	switch c.Output {
	case OutputText, OutputJSON:
	default:
		return fmt.Errorf("unknown output format %q (expected %s or %s)", c.Output, OutputText, OutputJSON)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.StatePath == "" {
		return fmt.Errorf("state_path is required")
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce must not be negative, got %s", c.WatchDebounce)
	}
	return nil
}

// ListPolicy returns the configured list failure policy.
func (c *Config) ListPolicy() (linkedlist.Policy, error) {
	return linkedlist.ParsePolicy(c.Policy)
}

// Level returns the configured log level. Verbose forces debug.
func (c *Config) Level() (slog.Level, error) {
	if c.Verbose {
		return slog.LevelDebug, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelWarn, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
