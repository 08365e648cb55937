package engine

import (
	"context"
	"fmt"

	"github.com/roach88/treemngr/internal/ir"
)

// ViolationKind categorizes an invariant violation found by Verify.
type ViolationKind string

const (
	ViolationMultipleRoots ViolationKind = "multiple_roots"
	ViolationOrphan        ViolationKind = "orphan"
	ViolationCycle         ViolationKind = "cycle"
	ViolationLevel         ViolationKind = "level"
	ViolationSum           ViolationKind = "sum"
)

// Violation is one broken invariant.
type Violation struct {
	Kind    ViolationKind `json:"kind"`
	NodeID  int64         `json:"node_id"`
	Message string        `json:"message"`
}

// Report is the result of Verify.
type Report struct {
	Nodes      int         `json:"nodes"`
	Violations []Violation `json:"violations"`
}

// OK reports whether no violation was found.
func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

// Verify checks every structural invariant over the whole store:
// at most one root, every parent exists, the parent graph is acyclic, and
// each node's level and sum match its path to the root.
//
// Violations are reported per node in id order; an error is returned only
// when the store cannot be read.
func (e *Engine) Verify(ctx context.Context) (*Report, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	nodes, err := e.store.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	byID := make(map[int64]ir.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	report := &Report{Nodes: len(nodes), Violations: []Violation{}}
	add := func(kind ViolationKind, id int64, format string, args ...any) {
		report.Violations = append(report.Violations, Violation{
			Kind:    kind,
			NodeID:  id,
			Message: fmt.Sprintf(format, args...),
		})
	}

	var rootID int64
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if n.IsRoot() {
			if rootID != 0 {
				add(ViolationMultipleRoots, n.ID, "second root (first is %d)", rootID)
			} else {
				rootID = n.ID
			}
		}

		level, sum, kind, ok := pathTotals(n, byID)
		if !ok {
			switch kind {
			case ViolationOrphan:
				add(kind, n.ID, "parent chain references a missing node")
			default:
				add(kind, n.ID, "parent chain does not reach a root")
			}
			continue
		}
		if n.Level != level {
			add(ViolationLevel, n.ID, "level %d, want %d", n.Level, level)
		}
		if n.Sum != sum {
			add(ViolationSum, n.ID, "sum %d, want %d", n.Sum, sum)
		}
	}
	return report, nil
}

// pathTotals walks from n to the root through byID and returns the
// expected level and sum of n. When the walk fails it reports why: a
// missing ancestor (orphan) or a chain longer than the node count (cycle).
func pathTotals(n ir.Node, byID map[int64]ir.Node) (level int, sum int64, failure ViolationKind, ok bool) {
	cur := n
	for steps := 0; ; steps++ {
		if steps > len(byID) {
			return 0, 0, ViolationCycle, false
		}
		sum += cur.Value
		if cur.IsRoot() {
			return steps, sum, "", true
		}
		parent, found := byID[*cur.ParentID]
		if !found {
			return 0, 0, ViolationOrphan, false
		}
		cur = parent
	}
}
