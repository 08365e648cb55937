package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/treemngr/internal/engine"
	"github.com/roach88/treemngr/internal/ir"
	"github.com/roach88/treemngr/internal/store"
	"github.com/roach88/treemngr/internal/testutil"
)

// errorNames maps engine error codes to scenario error kinds.
var errorNames = map[engine.ErrorCode]string{
	engine.ErrCodeRootExists:   "root_exists",
	engine.ErrCodeNodeNotFound: "node_not_found",
	engine.ErrCodeCycle:        "cycle",
	engine.ErrCodeTreeEmpty:    "tree_empty",
	engine.ErrCodeCorrupt:      "corrupt",
}

// Harness executes one scenario against one engine.
type Harness struct {
	engine *engine.Engine
	logger *slog.Logger
}

// Run executes a scenario with a background context.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with
// operation ids from a sequence generator so runs are reproducible.
//
// Execution flow:
//  1. Create fresh in-memory database and engine
//  2. Execute steps, checking each expect clause
//  3. Evaluate assertions against the final tree
//  4. Capture the final tree for golden comparison
//
// Expectation mismatches are reported in Result.Errors. The returned error
// is reserved for infrastructure failures (store errors, cancellation).
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		engine: engine.New(st,
			engine.WithIDGenerator(testutil.NewSequenceGenerator(scenario.Name)),
			engine.WithLogger(logger),
		),
		logger: logger,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, err
		}
	}

	for _, msg := range EvaluateAssertions(ctx, h.engine, result.Aliases, scenario.Assertions) {
		result.AddError(msg)
	}

	tree, err := h.engine.GetTree(ctx)
	switch {
	case engine.IsTreeEmpty(err):
	case err != nil:
		return nil, fmt.Errorf("read final tree: %w", err)
	default:
		result.Tree = tree
	}
	return result, nil
}

// executeStep runs one step, records it in the trace and checks its expect
// clause. Only infrastructure errors are returned.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	prefix := fmt.Sprintf("steps[%d] (%s)", i, step.Op)

	node, hasNode, err := h.call(ctx, step, result.Aliases)
	var refErr *refError
	if errors.As(err, &refErr) {
		result.AddError(fmt.Sprintf("%s: %v", prefix, refErr.err))
		return nil
	}

	kind := ""
	if err != nil {
		code := engine.CodeOf(err)
		if code == "" {
			return fmt.Errorf("%s: %w", prefix, err)
		}
		kind = errorNames[code]
	}

	ev := TraceEvent{Step: i, Op: step.Op, Error: kind, Revision: h.engine.Revision()}
	if err == nil {
		ev.NodeID = node.ID
	}
	result.AddTrace(ev)

	var expect Expect
	if step.Expect != nil {
		expect = *step.Expect
	}

	switch {
	case err != nil && expect.Error == "":
		result.AddError(fmt.Sprintf("%s: unexpected error: %v", prefix, err))
	case err != nil && kind != expect.Error:
		result.AddError(fmt.Sprintf("%s: expected error %s, got %s (%v)", prefix, expect.Error, kind, err))
	case err == nil && expect.Error != "":
		result.AddError(fmt.Sprintf("%s: expected error %s, got success", prefix, expect.Error))
	case err == nil && expect.Node != nil:
		if !hasNode {
			result.AddError(fmt.Sprintf("%s: expect.node is not supported for %s", prefix, step.Op))
			break
		}
		for _, msg := range matchNode(node, expect.Node, result.Aliases) {
			result.AddError(fmt.Sprintf("%s: %s", prefix, msg))
		}
	}

	if err == nil && hasNode && step.As != "" {
		result.Aliases[step.As] = node.ID
	}

	h.logger.Debug("step completed",
		"step", i,
		"op", step.Op,
		"node_id", ev.NodeID,
		"error", kind,
	)
	return nil
}

// call dispatches step to the engine. hasNode reports whether the
// operation returns a node; remove reports the removed id instead.
func (h *Harness) call(ctx context.Context, step Step, aliases map[string]int64) (ir.Node, bool, error) {
	resolve := func(r *Ref, field string) (int64, error) {
		if r == nil {
			return 0, &refError{fmt.Errorf("%s is required", field)}
		}
		id, err := r.resolve(aliases)
		if err != nil {
			return 0, &refError{fmt.Errorf("%s: %w", field, err)}
		}
		return id, nil
	}
	value := func() int64 {
		if step.Value == nil {
			return 0
		}
		return *step.Value
	}

	switch step.Op {
	case OpCreateRoot:
		n, err := h.engine.CreateRoot(ctx, value())
		return n, true, err

	case OpCreateChild:
		parent, err := resolve(step.Parent, "parent")
		if err != nil {
			return ir.Node{}, false, err
		}
		n, err := h.engine.CreateChild(ctx, value(), parent)
		return n, true, err

	case OpRemove:
		id, err := resolve(step.Node, "node")
		if err != nil {
			return ir.Node{}, false, err
		}
		return ir.Node{ID: id}, false, h.engine.RemoveNode(ctx, id)

	case OpUpdate:
		id, err := resolve(step.Node, "node")
		if err != nil {
			return ir.Node{}, false, err
		}
		u := engine.Update{Value: step.Value}
		if step.Parent != nil {
			parent, err := resolve(step.Parent, "parent")
			if err != nil {
				return ir.Node{}, false, err
			}
			u.ParentID = &parent
		}
		n, err := h.engine.UpdateNode(ctx, id, u)
		return n, true, err

	case OpCopy:
		source, err := resolve(step.Source, "source")
		if err != nil {
			return ir.Node{}, false, err
		}
		target, err := resolve(step.Target, "target")
		if err != nil {
			return ir.Node{}, false, err
		}
		n, err := h.engine.CopySubtree(ctx, source, target)
		return n, true, err

	case OpGetTree:
		tree, err := h.engine.GetTree(ctx)
		if err != nil {
			return ir.Node{}, true, err
		}
		return tree.Node, true, nil

	default:
		return ir.Node{}, false, &refError{fmt.Errorf("unknown op %q", step.Op)}
	}
}

// refError marks a scenario authoring problem (unknown alias, missing
// field) as opposed to an engine outcome.
type refError struct {
	err error
}

func (e *refError) Error() string { return e.err.Error() }
