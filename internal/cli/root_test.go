package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "treemngr", cmd.Use)
	assert.Contains(t, cmd.Long, "derived sum")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"show", "add", "remove", "update", "copy", "path", "check", "history", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("db"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("yaml"))
	assert.False(t, isValidFormat(""))
}

// execute runs the full CLI and returns exit code, stdout and stderr.
func execute(t *testing.T, ctx context.Context, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(ctx, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExecute_Session(t *testing.T) {
	dir := isolate(t)
	db := filepath.Join(dir, "tree.db")
	ctx := context.Background()

	code, out, _ := execute(t, ctx, "--db", db, "add", "10")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "#1 value=10 sum=10 level=0\n", out)

	code, out, _ = execute(t, ctx, "--db", db, "add", "3", "--parent", "1")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "#2 value=3 sum=13 level=1 parent=#1\n", out)

	code, out, stderr := execute(t, ctx, "--db", db, "add", "5")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "Error [E409]")
	assert.Empty(t, stderr, "reported errors are not printed twice")

	code, out, _ = execute(t, ctx, "--db", db, "update", "1", "--parent", "2")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "Error [E422]")

	code, out, _ = execute(t, ctx, "--db", db, "remove", "9")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "Error [E404]")

	code, out, _ = execute(t, ctx, "--db", db, "show")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "#1 value=10 sum=10 level=0\n  #2 value=3 sum=13 level=1 parent=#1\n", out)

	code, out, _ = execute(t, ctx, "--db", db, "check")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "2 nodes, no violations")

	// Revision continues across invocations.
	code, out, _ = execute(t, ctx, "--db", db, "history")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "   1 create_root  #1 value=10")
	assert.Contains(t, out, "   2 create_child #2 parent=1 value=3")
}

func TestExecute_CommandErrors(t *testing.T) {
	dir := isolate(t)
	db := filepath.Join(dir, "tree.db")
	ctx := context.Background()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"frobnicate"}, "unknown command"},
		{"bad format", []string{"--db", db, "--format", "yaml", "show"}, "invalid format"},
		{"bad id", []string{"--db", db, "remove", "abc"}, `invalid node id "abc"`},
		{"bad value", []string{"--db", db, "add", "ten"}, `invalid value "ten"`},
		{"empty update", []string{"--db", db, "update", "1"}, "update requires --value or --parent"},
		{"missing config", []string{"--config", filepath.Join(dir, "nope.toml"), "show"}, "failed to load config"},
		{"unopenable db", []string{"--db", filepath.Join(dir, "missing", "dir", "tree.db"), "show"}, "failed to open database"},
		{"missing args", []string{"--db", db, "copy", "1"}, "accepts 2 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, ctx, tt.args...)
			assert.Equal(t, ExitCommandError, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestExecute_ConfigFile(t *testing.T) {
	dir := isolate(t)
	db := filepath.Join(dir, "configured.db")
	cfg := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(
		"database = "+quote(db)+"\nformat = \"json\"\nlog_level = \"error\"\nhistory_limit = 1\n"), 0o644))
	ctx := context.Background()

	code, out, _ := execute(t, ctx, "--config", cfg, "add", "4")
	require.Equal(t, ExitSuccess, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	_, err := os.Stat(db)
	require.NoError(t, err, "database path comes from the config file")

	// --format on the command line beats the file.
	code, out, _ = execute(t, ctx, "--config", cfg, "--format", "text", "add", "1", "--parent", "1")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "#2 value=1 sum=5 level=1 parent=#1\n", out)

	// history_limit = 1 applies without --limit.
	code, out, _ = execute(t, ctx, "--config", cfg, "--format", "text", "history")
	require.Equal(t, ExitSuccess, code)
	assert.NotContains(t, out, "create_root")
	assert.Contains(t, out, "create_child")

	// The environment variable is picked up when --config is absent.
	t.Setenv("TREEMNGR_CONFIG", cfg)
	code, out, _ = execute(t, ctx, "show")
	require.Equal(t, ExitSuccess, code)
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestExecute_VerboseLogsToStderr(t *testing.T) {
	dir := isolate(t)
	db := filepath.Join(dir, "tree.db")

	code, out, stderr := execute(t, context.Background(), "-v", "--db", db, "add", "1")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "#1 value=1 sum=1 level=0\n", out)
	assert.Contains(t, stderr, "database ready")
	assert.Contains(t, stderr, "mutation")
}

func TestExecute_Cancelled(t *testing.T) {
	dir := isolate(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, _, _ := execute(t, ctx, "--db", filepath.Join(dir, "tree.db"), "show")
	assert.Equal(t, ExitInterrupted, code)
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
