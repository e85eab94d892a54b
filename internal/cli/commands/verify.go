package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/dlist/internal/cli/output"
	"github.com/leapstack-labs/dlist/internal/scenario"
	"github.com/spf13/cobra"
)

// ErrVerifyFailed is returned when a list fails verification.
var ErrVerifyFailed = errors.New("list failed verification")

// NewVerifyCommand creates the verify command.
func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <scenario.yaml>",
		Short: "Check the structure of a scenario's initial list",
		Long: `Build the initial list of a scenario (payloads, declared length and
corruptions) and check its links without running any steps.

Exits with an error when the list is inconsistent.`,
		Example: `  dlist verify scenarios/short_chain.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, args[0])
		},
	}
	return cmd
}

func runVerify(cmd *cobra.Command, path string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	s, err := scenario.Load(path)
	if err != nil {
		return err
	}

	l, _, buildErr := cmdCtx.Runner().Build(s)
	valid := buildErr == nil && l.Verify()

	r := cmdCtx.Renderer
	if r.Mode() == output.ModeJSON {
		result := struct {
			Name   string `json:"name"`
			Length int    `json:"length"`
			Valid  bool   `json:"valid"`
			Error  string `json:"error,omitempty"`
		}{Name: s.Name, Length: s.DeclaredLength(), Valid: valid}
		if buildErr != nil {
			result.Error = buildErr.Error()
		}
		if err := r.JSON(result); err != nil {
			return err
		}
	} else {
		r.Println(fmt.Sprintf("%s: declared length %d, %s", s.Name, s.DeclaredLength(), r.Verdict(valid)))
		if buildErr != nil {
			r.Println(buildErr.Error())
		} else {
			r.Println(r.Chain(l.Payloads()))
		}
	}

	if !valid {
		return fmt.Errorf("%w: %s", ErrVerifyFailed, s.Name)
	}
	return nil
}
