package harness

import "github.com/roach88/treemngr/internal/ir"

// TraceEvent records one executed step.
type TraceEvent struct {
	Step     int    `json:"step"`
	Op       string `json:"op"`
	NodeID   int64  `json:"node_id,omitempty"`
	Error    string `json:"error,omitempty"` // error kind, empty on success
	Revision int64  `json:"revision"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Tree is the final tree, nil if it ended empty.
	Tree *ir.TreeNode `json:"tree,omitempty"`

	// Aliases maps every "as" name to the id it was bound to.
	Aliases map[string]int64 `json:"aliases,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		Aliases: map[string]int64{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
