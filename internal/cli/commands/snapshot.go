package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/dlist/internal/cli/output"
	"github.com/leapstack-labs/dlist/internal/scenario"
	"github.com/leapstack-labs/dlist/pkg/linkedlist"
	"github.com/spf13/cobra"
)

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and restore lists in the state database",
		Long: `Manage list snapshots stored in the state database.

A snapshot records the payloads of a verified list in order. Loading a
snapshot rebuilds the chain and verifies it again.`,
	}

	cmd.AddCommand(newSnapshotSaveCommand())
	cmd.AddCommand(newSnapshotLoadCommand())
	cmd.AddCommand(newSnapshotListCommand())
	cmd.AddCommand(newSnapshotDeleteCommand())
	return cmd
}

func newSnapshotSaveCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:     "save <scenario.yaml>",
		Short:   "Run a scenario and save the resulting list",
		Example: `  dlist snapshot save scenarios/splice.yaml --name after-splice`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			s, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			l, report, err := cmdCtx.Runner().Execute(s)
			if err != nil {
				return fmt.Errorf("scenario %s aborted: %w", s.Name, err)
			}
			if l == nil {
				return fmt.Errorf("scenario %s: %s", s.Name, report.CreateErr)
			}

			if name == "" {
				name = s.Name
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			store, err := cmdCtx.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			snap, err := store.SaveList(cmd.Context(), name, l)
			if err != nil {
				return err
			}
			return cmdCtx.Renderer.Snapshot(snap, l.Payloads(), true)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Snapshot name (default: scenario name)")
	return cmd
}

func newSnapshotLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <id>",
		Short: "Restore and verify a saved list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			store, err := cmdCtx.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			l, snap, err := store.LoadList(cmd.Context(), args[0],
				linkedlist.WithPolicy(linkedlist.PolicyReport), linkedlist.WithLogger(cmdCtx.Logger))
			if err != nil {
				return err
			}
			return cmdCtx.Renderer.Snapshot(snap, l.Payloads(), l.Verify())
		},
	}
}

func newSnapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			store, err := cmdCtx.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			snaps, err := store.ListSnapshots(cmd.Context())
			if err != nil {
				return err
			}
			return cmdCtx.Renderer.Snapshots(snaps)
		},
	}
}

func newSnapshotDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			store, err := cmdCtx.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteSnapshot(cmd.Context(), args[0]); err != nil {
				return err
			}
			if cmdCtx.Renderer.Mode() == output.ModeJSON {
				return cmdCtx.Renderer.JSON(map[string]string{"deleted": args[0]})
			}
			cmdCtx.Renderer.Println("deleted " + args[0])
			return nil
		},
	}
}
