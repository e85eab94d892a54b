package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/dlist/pkg/linkedlist"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("policy", "", "")
	fs.String("state", "", "")
	fs.StringP("output", "o", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.String("log-level", "", "")
	fs.Bool("no-color", false, "")
	return fs
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultPolicy, cfg.Policy)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, DefaultWatchDebounce, cfg.WatchDebounce)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "policy: report\nstate_path: /tmp/x.db\noutput: json\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "report", cfg.Policy)
	assert.Equal(t, "/tmp/x.db", cfg.StatePath)
	assert.Equal(t, OutputJSON, cfg.Output)
	assert.Equal(t, path, GetConfigFileUsed())

	policy, err := cfg.ListPolicy()
	require.NoError(t, err)
	assert.Equal(t, linkedlist.PolicyReport, policy)
}

func TestLoadConfig_DiscoversFileInWorkingDir(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dlist.yml"), []byte("policy: report\n"), 0o600))
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "report", cfg.Policy)
	assert.Equal(t, "dlist.yml", GetConfigFileUsed())
}

func TestLoadConfig_Precedence(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "policy: report\noutput: json\nstate_path: from_file.db\n")
	t.Setenv("DLIST_STATE_PATH", "from_env.db")
	t.Setenv("DLIST_OUTPUT", "text")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--state", "from_flag.db", "--policy", "abort"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "from_flag.db", cfg.StatePath, "flag beats env and file")
	assert.Equal(t, "abort", cfg.Policy, "flag beats file")
	assert.Equal(t, OutputText, cfg.Output, "env beats file")
}

func TestLoadConfig_WatchDebounce(t *testing.T) {
	ResetConfig()
	t.Setenv("DLIST_WATCH_DEBOUNCE", "250ms")

	cfg, err := LoadConfig(writeConfig(t, "watch_debounce: 2s\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.WatchDebounce, "env beats file")
}

func TestLoadConfig_IgnoresUnknownEnv(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	t.Setenv("DLIST_TEST_POSTGRES_DSN", "postgres://localhost/dlist")

	_, err := LoadConfig("", nil)
	require.NoError(t, err)
}

func TestLoadConfig_UnsetFlagsDoNotOverride(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "policy: report\n")

	flags := newFlags()
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "report", cfg.Policy)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{name: "unknown policy", content: "policy: ignore\n", errSubstr: "unknown policy"},
		{name: "unknown output", content: "output: xml\n", errSubstr: "unknown output format"},
		{name: "bad log level", content: "log_level: loud\n", errSubstr: "invalid log_level"},
		{name: "empty state path", content: "state_path: \"\"\n", errSubstr: "state_path is required"},
		{name: "malformed yaml", content: "policy: [\n", errSubstr: "error reading config file"},
		{name: "unknown key", content: "polcy: report\n", errSubstr: "polcy"},
		{name: "bad duration", content: "watch_debounce: soon\n", errSubstr: "unable to decode config"},
		{name: "negative duration", content: "watch_debounce: -1s\n", errSubstr: "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_Level(t *testing.T) {
	cfg := &Config{LogLevel: "info"}
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	cfg.Verbose = true
	level, err = cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := NewLogger(&Config{LogLevel: "error"}, os.Stderr)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
