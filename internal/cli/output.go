package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/treemngr/internal/engine"
	"github.com/roach88/treemngr/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0   // Successful execution
	ExitFailure      = 1   // Domain failure (node not found, cycle), failed scenarios, invariant violations
	ExitCommandError = 2   // Command error (bad arguments, unopenable database, bad config)
	ExitInterrupted  = 130 // Cancelled by SIGINT/SIGTERM
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set when the error was already written through an
	// OutputFormatter, so Execute must not print it again.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E404", "E409", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Error codes for engine errors and other command failures.
const (
	CodeNotFound   = "E404"
	CodeConflict   = "E409"
	CodeCycle      = "E422"
	CodeCorrupt    = "E500"
	CodeViolations = "E_INVARIANT"
	CodeTestFailed = "E_TEST_FAILED"
)

var treeErrorCodes = map[engine.ErrorCode]string{
	engine.ErrCodeNodeNotFound: CodeNotFound,
	engine.ErrCodeTreeEmpty:    CodeNotFound,
	engine.ErrCodeRootExists:   CodeConflict,
	engine.ErrCodeCycle:        CodeCycle,
	engine.ErrCodeCorrupt:      CodeCorrupt,
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// OperationError reports the outcome of a failed engine call and returns
// the error the command should return. Tree errors are written through f
// with their E-code and exit with ExitFailure; anything else is wrapped
// with message and left for Execute to print.
func (f *OutputFormatter) OperationError(message string, err error) error {
	var te *engine.TreeError
	if !errors.As(err, &te) {
		return WrapExitError(ExitFailure, message, err)
	}

	var details any
	if te.NodeID != 0 || te.TargetID != 0 {
		d := map[string]int64{}
		if te.NodeID != 0 {
			d["node_id"] = te.NodeID
		}
		if te.TargetID != 0 {
			d["target_id"] = te.TargetID
		}
		details = d
	}
	if werr := f.Error(treeErrorCodes[te.Code], te.Message, details); werr != nil {
		return WrapExitError(ExitFailure, "failed to write output", werr)
	}
	return &ExitError{Code: ExitFailure, Message: message, Err: err, Reported: true}
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// renderTree writes t as an indented outline, one node per line.
func renderTree(w io.Writer, t *ir.TreeNode) {
	renderSubtree(w, t, 0)
}

func renderSubtree(w io.Writer, t *ir.TreeNode, depth int) {
	fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), t.Node)
	for _, c := range t.Children {
		renderSubtree(w, c, depth+1)
	}
}
