package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the tree invariants",
		Long: `Verify every structural invariant of the stored tree: at most one root,
no orphans, no cycles, and levels and sums that match each node's path to
the root.

Exit codes:
  0 - No violations
  1 - One or more violations
  2 - Command error

Example:
  treemngr check --db ./tree.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, closeEngine, err := rootOpts.openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine()

			f := rootOpts.formatter(cmd)
			report, err := eng.Verify(ctx)
			if err != nil {
				return WrapExitError(ExitFailure, "check failed", err)
			}

			if report.OK() {
				if f.Format == "json" {
					return f.Success(report)
				}
				return f.Success(fmt.Sprintf("✓ %d nodes, no violations", report.Nodes))
			}

			message := fmt.Sprintf("%d violation(s) in %d nodes", len(report.Violations), report.Nodes)
			if f.Format == "json" {
				if err := f.Error(CodeViolations, message, report); err != nil {
					return err
				}
			} else {
				for _, v := range report.Violations {
					fmt.Fprintf(f.Writer, "✗ %s #%d: %s\n", v.Kind, v.NodeID, v.Message)
				}
				fmt.Fprintln(f.Writer, message)
			}
			return &ExitError{Code: ExitFailure, Message: message, Reported: true}
		},
	}
}
