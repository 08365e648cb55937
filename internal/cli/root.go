package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/treemngr/internal/config"
	"github.com/roach88/treemngr/internal/engine"
	"github.com/roach88/treemngr/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string // SQLite path
	Config   string // explicit config file

	// HistoryLimit is the default for history --limit, from config.
	HistoryLimit int

	// Logger is built from the config log level in the root pre-run.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the treemngr CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "treemngr",
		Short: "Manage a single rooted tree of integer nodes",
		Long: `treemngr maintains one rooted tree of integer-valued nodes in SQLite.

Every node carries a derived sum (its value plus the values of all its
ancestors) and a level (its distance from the root). Insert, remove,
reparent and copy keep both consistent and never create a second root
or a cycle.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to config file (default $"+config.EnvVar+" or ./"+config.DefaultFile+")")

	// Add subcommands
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewCopyCommand(opts))
	cmd.AddCommand(NewPathCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve merges the config file under the flags that were set explicitly
// and builds the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	flags := cmd.Flags()
	if !flags.Changed("format") {
		o.Format = cfg.Format
	}
	if !flags.Changed("db") {
		o.Database = cfg.Database
	}
	o.HistoryLimit = cfg.HistoryLimit

	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	logger, err := newSlogLogger(cmd.ErrOrStderr(), cfg.LogLevel, o.Verbose)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure logging", err)
	}
	o.Logger = logger
	if cfg.Path != "" {
		logger.Debug("config loaded", "path", cfg.Path)
	}
	return nil
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return discardLogger
	}
	return o.Logger
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openEngine opens the configured database and resumes an engine on it.
// The returned close function must be called when the command is done.
func (o *RootOptions) openEngine(ctx context.Context) (*engine.Engine, func(), error) {
	if o.Database == "" {
		return nil, nil, NewExitError(ExitCommandError, "no database configured (use --db or a config file)")
	}

	logger := o.logger()
	st, err := store.Open(o.Database)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	closeStore := func() {
		if err := st.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}

	eng, err := engine.Resume(ctx, st, engine.WithLogger(logger))
	if err != nil {
		closeStore()
		return nil, nil, WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	logger.Debug("database ready", "path", o.Database, "revision", eng.Revision())
	return eng, closeStore, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// Execute runs the CLI with args and returns the process exit code.
// Errors not already reported by a command are printed to stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		// cobra argument and flag errors
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitCommandError
	}
	if !exitErr.Reported {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return exitErr.Code
}
