package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/dlist/internal/cli/config"
	"github.com/leapstack-labs/dlist/internal/cli/output"
	"github.com/leapstack-labs/dlist/internal/scenario"
	"github.com/leapstack-labs/dlist/internal/state"
	"github.com/leapstack-labs/dlist/pkg/linkedlist"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Policy   linkedlist.Policy
	Renderer *output.Renderer
}

// NewCommandContext builds the context shared by all commands.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := getConfig()
	policy, err := cfg.ListPolicy()
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Policy:   policy,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output), cfg.NoColor),
	}, nil
}

// Runner returns a scenario runner using the configured policy.
func (c *CommandContext) Runner() *scenario.Runner {
	return scenario.NewRunner(c.Policy, c.Logger)
}

// OpenStore opens the snapshot store at the configured path. A postgres://
// URL selects the PostgreSQL backend. The caller must close it.
func (c *CommandContext) OpenStore(ctx context.Context) (state.Store, error) {
	if !state.IsPostgresDSN(c.Cfg.StatePath) {
		dir := filepath.Dir(c.Cfg.StatePath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store, err := state.OpenStore(ctx, c.Cfg.StatePath, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return store, nil
}

// getConfig returns the loaded configuration, or defaults when none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		Policy:    config.DefaultPolicy,
		StatePath: config.DefaultStateFile,
		Output:    config.DefaultOutput,
		LogLevel:  config.DefaultLogLevel,

		WatchDebounce: config.DefaultWatchDebounce,
	}
}
