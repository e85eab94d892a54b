// Package config provides configuration management for the dlist CLI.
package config

import "time"

// Config holds all CLI configuration options.
type Config struct {
	Policy    string `koanf:"policy"`
	StatePath string `koanf:"state_path"`
	Output    string `koanf:"output"`
	Verbose   bool   `koanf:"verbose"`
	LogLevel  string `koanf:"log_level"`
	NoColor   bool   `koanf:"no_color"`

	// WatchDebounce is how long the watch command waits after a file event
	// before re-running.
	WatchDebounce time.Duration `koanf:"watch_debounce"`
}

// Default configuration values.
const (
	DefaultPolicy    = "abort"
	DefaultStateFile = ".dlist/state.db"
	DefaultOutput    = "text"
	DefaultLogLevel  = "warn"

	DefaultWatchDebounce = 100 * time.Millisecond
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)
