package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/treemngr/internal/ir"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the mutation journal",
		Long: `Print the newest journal entries, oldest first. Every successful
mutation appends one entry; its seq is the tree revision it produced.

--limit defaults to history_limit from the config file. A limit of 0
prints the whole journal.

Example:
  treemngr history
  treemngr history --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := opts.Limit
			if !cmd.Flags().Changed("limit") && opts.HistoryLimit > 0 {
				limit = opts.HistoryLimit
			}
			if limit < 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid limit %d: must be >= 0", limit))
			}

			ctx := cmd.Context()
			eng, closeEngine, err := opts.openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine()

			f := opts.formatter(cmd)
			ops, err := eng.History(ctx, limit)
			if err != nil {
				return WrapExitError(ExitFailure, "history failed", err)
			}
			if f.Format == "json" {
				return f.Success(ops)
			}
			if len(ops) == 0 {
				return f.Success("(no history)")
			}
			for _, op := range ops {
				fmt.Fprintln(f.Writer, formatOperation(op))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "number of entries (default from config)")

	return cmd
}

// formatOperation renders one journal entry as "seq kind #node k=v ...",
// with args sorted by key.
func formatOperation(op ir.Operation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%4d %-12s #%d", op.Seq, op.Kind, op.NodeID)
	for _, k := range slices.Sorted(maps.Keys(op.Args)) {
		fmt.Fprintf(&b, " %s=%d", k, op.Args[k])
	}
	return b.String()
}
