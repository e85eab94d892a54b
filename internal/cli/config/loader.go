package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in a command context.
type loggerKey struct{}

var (
	configFileUsed string
	currentConfig  *Config
)

// configFileNames are searched in the working directory when no file is given.
var configFileNames = []string{"dlist.yaml", "dlist.yml"}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// ResetConfig clears the loaded configuration. Used for testing.
func ResetConfig() {
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from defaults, file, environment and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"policy":     DefaultPolicy,
		"state_path": DefaultStateFile,
		"output":     DefaultOutput,
		"verbose":    false,
		"log_level":  DefaultLogLevel,
		"no_color":   false,
		// decoded by the duration hook
		"watch_debounce": DefaultWatchDebounce.String(),
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment: DLIST_STATE_PATH -> state_path
	if err := k.Load(env.Provider("DLIST_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "DLIST_"))
		if !k.Exists(key) {
			// not a config key (e.g. DLIST_TEST_POSTGRES_DSN)
			return ""
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Explicitly set flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			// --state is short for state_path
			if key == "state" {
				key = "state_path"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Output = strings.ToLower(cfg.Output)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the most recently loaded configuration.
func GetCurrentConfig() *Config {
	return currentConfig
}

// NewLogger builds the CLI logger for cfg. Logs go to w as text.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return slog.New(slog.DiscardHandler)
}
