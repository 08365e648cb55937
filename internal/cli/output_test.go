package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/treemngr/internal/engine"
	"github.com/roach88/treemngr/internal/ir"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(ir.Node{ID: 1, Value: 10, Sum: 10})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(CodeNotFound, "node 4 not found", nil)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E404", resp.Error.Code)
	assert.Equal(t, "node 4 not found", resp.Error.Message)
	assert.Nil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Error(CodeCycle, "node 2 cannot be its own parent", map[string]int64{"node_id": 2}))
	assert.Equal(t, "Error [E422]: node 2 cannot be its own parent\n", buf.String())

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error(CodeCycle, "node 2 cannot be its own parent", map[string]int64{"node_id": 2}))
	assert.Contains(t, buf.String(), "Details: map[node_id:2]")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			errBuf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    buf,
				ErrWriter: errBuf,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("running %d scenarios", 3)

			assert.Empty(t, buf.String(), "verbose output never goes to stdout when ErrWriter is set")
			if tt.wantLog {
				assert.Equal(t, "running 3 scenarios\n", errBuf.String())
			} else {
				assert.Empty(t, errBuf.String())
			}
		})
	}
}

func TestOperationError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantJSON string
	}{
		{
			name:     "not found",
			err:      engine.NewNotFoundError(5),
			wantCode: "E404",
			wantJSON: `{"status":"error","error":{"code":"E404","message":"node 5 not found","details":{"node_id":5}}}`,
		},
		{
			name:     "root exists",
			err:      engine.NewRootExistsError(),
			wantCode: "E409",
			wantJSON: `{"status":"error","error":{"code":"E409","message":"tree already has a root"}}`,
		},
		{
			name:     "cycle wrapped",
			err:      fmt.Errorf("outer: %w", engine.NewCycleError(2, 3)),
			wantCode: "E422",
			wantJSON: `{"status":"error","error":{"code":"E422","message":"node 2 cannot move under its descendant 3","details":{"node_id":2,"target_id":3}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: "json", Writer: buf}

			err := f.OperationError("op failed", tt.err)
			assert.JSONEq(t, tt.wantJSON, buf.String())

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, ExitFailure, exitErr.Code)
			assert.True(t, exitErr.Reported)
			assert.Equal(t, engine.CodeOf(tt.err), engine.CodeOf(err))
		})
	}
}

func TestOperationError_Infrastructure(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	err := f.OperationError("add failed", context.DeadlineExceeded)
	assert.Empty(t, buf.String(), "non-domain errors are left to Execute")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.False(t, exitErr.Reported)
	assert.Equal(t, ExitFailure, exitErr.Code)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", WrapExitError(ExitCommandError, "bad", errors.New("x")))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestExitError_Message(t *testing.T) {
	assert.Equal(t, "failed to open database: disk I/O error",
		WrapExitError(ExitCommandError, "failed to open database", errors.New("disk I/O error")).Error())
	assert.Equal(t, "no database configured", NewExitError(ExitCommandError, "no database configured").Error())
}

func TestRenderTree(t *testing.T) {
	tree := &ir.TreeNode{
		Node: ir.Node{ID: 1, Value: 1, Sum: 1},
		Children: []*ir.TreeNode{
			{
				Node: ir.Node{ID: 2, ParentID: ir.ParentRef(1), Value: 2, Sum: 3, Level: 1},
				Children: []*ir.TreeNode{
					{Node: ir.Node{ID: 4, ParentID: ir.ParentRef(2), Value: 4, Sum: 7, Level: 2}},
				},
			},
			{Node: ir.Node{ID: 3, ParentID: ir.ParentRef(1), Value: 3, Sum: 4, Level: 1}},
		},
	}

	buf := &bytes.Buffer{}
	renderTree(buf, tree)
	assert.Equal(t,
		"#1 value=1 sum=1 level=0\n"+
			"  #2 value=2 sum=3 level=1 parent=#1\n"+
			"    #4 value=4 sum=7 level=2 parent=#2\n"+
			"  #3 value=3 sum=4 level=1 parent=#1\n",
		buf.String())
}
