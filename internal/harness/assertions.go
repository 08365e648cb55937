package harness

import (
	"context"
	"fmt"

	"github.com/roach88/treemngr/internal/engine"
	"github.com/roach88/treemngr/internal/ir"
)

// EvaluateAssertions checks every assertion against the engine's current
// tree and returns one message per failure.
func EvaluateAssertions(ctx context.Context, eng *engine.Engine, aliases map[string]int64, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		for _, msg := range evaluateAssertion(ctx, eng, aliases, a) {
			failures = append(failures, fmt.Sprintf("assertions[%d] (%s): %s", i, a.Type, msg))
		}
	}
	return failures
}

func evaluateAssertion(ctx context.Context, eng *engine.Engine, aliases map[string]int64, a Assertion) []string {
	switch a.Type {
	case AssertNode:
		id, err := resolveRef(a.Node, aliases)
		if err != nil {
			return []string{err.Error()}
		}
		n, err := eng.Node(ctx, id)
		if err != nil {
			return []string{err.Error()}
		}
		if a.Expect == nil {
			return nil
		}
		return matchNode(n, a.Expect, aliases)

	case AssertAbsent:
		id, err := resolveRef(a.Node, aliases)
		if err != nil {
			return []string{err.Error()}
		}
		n, err := eng.Node(ctx, id)
		switch {
		case engine.IsNotFound(err):
			return nil
		case err != nil:
			return []string{err.Error()}
		default:
			return []string{fmt.Sprintf("node %d still exists: %s", id, n)}
		}

	case AssertCount:
		if a.Count == nil {
			return []string{"count is required"}
		}
		tree, err := eng.GetTree(ctx)
		size := 0
		switch {
		case engine.IsTreeEmpty(err):
		case err != nil:
			return []string{err.Error()}
		default:
			size = tree.Size()
		}
		if size != *a.Count {
			return []string{fmt.Sprintf("tree has %d nodes, want %d", size, *a.Count)}
		}
		return nil

	case AssertInvariants:
		report, err := eng.Verify(ctx)
		if err != nil {
			return []string{err.Error()}
		}
		var out []string
		for _, v := range report.Violations {
			out = append(out, fmt.Sprintf("%s at node %d: %s", v.Kind, v.NodeID, v.Message))
		}
		return out

	case AssertSameShape:
		return sameShape(ctx, eng, aliases, a)

	default:
		return []string{fmt.Sprintf("unknown assertion type %q", a.Type)}
	}
}

// sameShape compares the value structure of two subtrees, ignoring ids.
func sameShape(ctx context.Context, eng *engine.Engine, aliases map[string]int64, a Assertion) []string {
	left, err := resolveRef(a.Node, aliases)
	if err != nil {
		return []string{err.Error()}
	}
	right, err := resolveRef(a.Other, aliases)
	if err != nil {
		return []string{err.Error()}
	}

	tree, err := eng.GetTree(ctx)
	if err != nil {
		return []string{err.Error()}
	}
	ls, rs := tree.Find(left), tree.Find(right)
	if ls == nil || rs == nil {
		return []string{fmt.Sprintf("subtree %d or %d not in tree", left, right)}
	}

	lh, err := ir.ShapeHash(ls)
	if err != nil {
		return []string{err.Error()}
	}
	rh, err := ir.ShapeHash(rs)
	if err != nil {
		return []string{err.Error()}
	}
	if lh != rh {
		return []string{fmt.Sprintf("subtree %d (%d nodes) differs from subtree %d (%d nodes)",
			left, ls.Size(), right, rs.Size())}
	}
	return nil
}

func resolveRef(r *Ref, aliases map[string]int64) (int64, error) {
	if r == nil {
		return 0, fmt.Errorf("node reference is required")
	}
	return r.resolve(aliases)
}

// matchNode compares the fields set in want against got.
func matchNode(got ir.Node, want *NodeExpect, aliases map[string]int64) []string {
	var out []string
	if want.Value != nil && got.Value != *want.Value {
		out = append(out, fmt.Sprintf("node %d: value = %d, want %d", got.ID, got.Value, *want.Value))
	}
	if want.Sum != nil && got.Sum != *want.Sum {
		out = append(out, fmt.Sprintf("node %d: sum = %d, want %d", got.ID, got.Sum, *want.Sum))
	}
	if want.Level != nil && got.Level != *want.Level {
		out = append(out, fmt.Sprintf("node %d: level = %d, want %d", got.ID, got.Level, *want.Level))
	}
	if want.Parent != nil {
		parent, err := want.Parent.resolve(aliases)
		switch {
		case err != nil:
			out = append(out, fmt.Sprintf("node %d: parent: %v", got.ID, err))
		case !got.HasParent(parent):
			out = append(out, fmt.Sprintf("node %d: parent = %s, want %d", got.ID, parentString(got), parent))
		}
	}
	return out
}

func parentString(n ir.Node) string {
	if n.ParentID == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *n.ParentID)
}
