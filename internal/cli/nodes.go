package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/treemngr/internal/engine"
	"github.com/roach88/treemngr/internal/ir"
)

// parseID parses a positional node id argument.
func parseID(name, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid %s %q: must be an integer", name, s))
	}
	return id, nil
}

// parseValue parses a positional node value argument.
func parseValue(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid value %q: must be an integer", s))
	}
	return v, nil
}

// showData is the JSON payload of show. Root is null for an empty tree.
type showData struct {
	Root *ir.TreeNode `json:"root"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the whole tree",
		Long: `Print the tree from the root down, children ordered by id.

An empty tree is not an error: text output prints "(empty tree)" and JSON
output has a null root.

Example:
  treemngr show
  treemngr show --format json`,
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
			tree, err := eng.GetTree(ctx)
			if engine.IsTreeEmpty(err) {
				if f.Format == "json" {
					return f.Success(showData{})
				}
				return f.Success("(empty tree)")
			}
			if err != nil {
				return f.OperationError("show failed", err)
			}

			if f.Format == "json" {
				return f.Success(showData{Root: tree})
			}
			renderTree(f.Writer, tree)
			return nil
		},
	}
}

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Parent int64
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <value>",
		Short: "Create the root, or a child with --parent",
		Long: `Create a node holding value.

Without --parent the node becomes the root, which fails if the tree is not
empty. With --parent the node is appended under that parent. Use -- before
negative values.

Example:
  treemngr add 10
  treemngr add 3 --parent 1
  treemngr add --parent 1 -- -4`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseValue(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			eng, closeEngine, err := opts.openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine()

			var n ir.Node
			if cmd.Flags().Changed("parent") {
				n, err = eng.CreateChild(ctx, value, opts.Parent)
			} else {
				n, err = eng.CreateRoot(ctx, value)
			}
			f := opts.formatter(cmd)
			if err != nil {
				return f.OperationError("add failed", err)
			}
			return f.Success(n)
		},
	}

	cmd.Flags().Int64Var(&opts.Parent, "parent", 0, "parent node id (omit to create the root)")

	return cmd
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a node and its whole subtree",
		Long: `Remove a node together with every descendant.

Example:
  treemngr remove 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("node id", args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			eng, closeEngine, err := rootOpts.openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine()

			f := rootOpts.formatter(cmd)
			if err := eng.RemoveNode(ctx, id); err != nil {
				return f.OperationError("remove failed", err)
			}
			if f.Format == "json" {
				return f.Success(map[string]int64{"removed": id})
			}
			return f.Success(fmt.Sprintf("removed #%d", id))
		},
	}
}

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	Value  int64
	Parent int64
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a node's value and/or parent",
		Long: `Change a node's value, move it under a new parent, or both.

Sums and levels of the node and its whole subtree are recomputed. Moving a
node under itself or one of its descendants fails with E422 and leaves the
tree unchanged.

Example:
  treemngr update 2 --value 7
  treemngr update 2 --parent 4
  treemngr update 2 --value=-1 --parent 4`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("node id", args[0])
			if err != nil {
				return err
			}

			var u engine.Update
			if cmd.Flags().Changed("value") {
				u.Value = &opts.Value
			}
			if cmd.Flags().Changed("parent") {
				u.ParentID = &opts.Parent
			}
			if u.IsZero() {
				return NewExitError(ExitCommandError, "update requires --value or --parent")
			}

			ctx := cmd.Context()
			eng, closeEngine, err := opts.openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine()

			f := opts.formatter(cmd)
			n, err := eng.UpdateNode(ctx, id, u)
			if err != nil {
				return f.OperationError("update failed", err)
			}
			return f.Success(n)
		},
	}

	cmd.Flags().Int64Var(&opts.Value, "value", 0, "new value")
	cmd.Flags().Int64Var(&opts.Parent, "parent", 0, "new parent node id")

	return cmd
}

// NewCopyCommand creates the copy command.
func NewCopyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <source-id> <target-id>",
		Short: "Copy a subtree under another node",
		Long: `Copy the subtree rooted at source-id under target-id.

The copy keeps the shape and values of the source; ids are new and sums
and levels follow from the new position. Prints the top of the copy.

Example:
  treemngr copy 2 4`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := parseID("source id", args[0])
			if err != nil {
				return err
			}
			target, err := parseID("target id", args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			eng, closeEngine, err := rootOpts.openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine()

			f := rootOpts.formatter(cmd)
			n, err := eng.CopySubtree(ctx, source, target)
			if err != nil {
				return f.OperationError("copy failed", err)
			}
			return f.Success(n)
		},
	}
}

// NewPathCommand creates the path command.
func NewPathCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path <id>",
		Short: "Print the ancestor chain of a node",
		Long: `Print a node followed by each of its ancestors up to the root.

Example:
  treemngr path 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("node id", args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			eng, closeEngine, err := rootOpts.openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine()

			f := rootOpts.formatter(cmd)
			chain, err := eng.Ancestors(ctx, id)
			if err != nil {
				return f.OperationError("path failed", err)
			}
			if f.Format == "json" {
				return f.Success(chain)
			}
			for _, n := range chain {
				fmt.Fprintln(f.Writer, n)
			}
			return nil
		},
	}
}
