package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// testOptions returns root options for a fresh database in a temp dir,
// as the root pre-run would leave them.
func testOptions(t *testing.T, format string) *RootOptions {
	t.Helper()
	return &RootOptions{
		Format:       format,
		Database:     filepath.Join(t.TempDir(), "tree.db"),
		HistoryLimit: 20,
	}
}

// runCommand executes cmd with args and returns what it wrote to stdout.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// mustRun is runCommand for steps that must succeed.
func mustRun(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	out, err := runCommand(t, cmd, args...)
	require.NoError(t, err, out)
	return out
}

// seedTree builds root(10) -> a(3) -> b(2) in opts.Database.
func seedTree(t *testing.T, opts *RootOptions) {
	t.Helper()
	mustRun(t, NewAddCommand(opts), "10")
	mustRun(t, NewAddCommand(opts), "3", "--parent", "1")
	mustRun(t, NewAddCommand(opts), "2", "--parent", "2")
}

// isolate keeps config lookup away from the developer's environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("TREEMNGR_CONFIG", "")
	return dir
}
