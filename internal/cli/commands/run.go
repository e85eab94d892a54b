package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/dlist/internal/cli/output"
	"github.com/leapstack-labs/dlist/internal/scenario"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Run list scenarios",
		Long: `Build a list from each scenario file and execute its steps.

Under the abort policy the first precondition or invariant violation stops
the scenario with an error. Under the report policy violations are recorded
per step and the run continues.

Several scenarios run concurrently, each on its own arena. Reports are
printed in the order the files were given.`,
		Example: `  # Run a scenario with the configured policy
  dlist run scenarios/splice.yaml

  # Record violations instead of failing
  dlist run scenarios/splice.yaml --policy report -o json

  # Run every scenario in a directory, four at a time
  dlist run scenarios/*.yaml -j 4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd, args, jobs)
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Maximum scenarios run at once (0 = no limit)")
	return cmd
}

type scenarioRun struct {
	s      *scenario.Scenario
	report *scenario.Report
	err    error
}

func runScenarios(cmd *cobra.Command, paths []string, jobs int) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	runner := cmdCtx.Runner()

	runs := make([]scenarioRun, len(paths))
	var g errgroup.Group
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range paths {
		g.Go(func() error {
			s, err := scenario.Load(path)
			if err != nil {
				return err
			}
			report, runErr := runner.Run(s)
			runs[i] = scenarioRun{s: s, report: report, err: runErr}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var errs []error
	for _, run := range runs {
		if run.err != nil {
			errs = append(errs, fmt.Errorf("scenario %s aborted: %w", run.s.Name, run.err))
		}
	}

	if cmdCtx.Renderer.Mode() == output.ModeJSON && len(runs) > 1 {
		reports := make([]*scenario.Report, len(runs))
		for i, run := range runs {
			reports[i] = run.report
		}
		if err := cmdCtx.Renderer.JSON(reports); err != nil {
			return err
		}
		return errors.Join(errs...)
	}

	for _, run := range runs {
		if err := cmdCtx.Renderer.Report(run.report); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}
