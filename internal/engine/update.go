package engine

import (
	"context"
	"fmt"

	"github.com/roach88/treemngr/internal/ir"
	"github.com/roach88/treemngr/internal/store"
)

// Update lists the fields UpdateNode changes. A nil field is left as is.
type Update struct {
	Value    *int64
	ParentID *int64
}

// IsZero reports whether the update changes nothing.
func (u Update) IsZero() bool {
	return u.Value == nil && u.ParentID == nil
}

// UpdateNode changes the value and/or the parent of id, then recomputes
// sum and level for id and its whole subtree. It returns the node as
// stored after propagation.
//
// Every check runs before the first write:
//   - id must exist (NODE_NOT_FOUND for id)
//   - a new parent must exist (NODE_NOT_FOUND for the parent)
//   - a new parent must not be id or a descendant of id (CYCLE)
//
// A zero Update returns the node unchanged and is not journaled.
func (e *Engine) UpdateNode(ctx context.Context, id int64, u Update) (ir.Node, error) {
	return e.mutate(ctx, ir.OpUpdate, func(tx store.NodeStore) (ir.Node, map[string]int64, error) {
		n, err := findNode(ctx, tx, id)
		if err != nil {
			return ir.Node{}, nil, err
		}
		if u.IsZero() {
			return n, nil, nil
		}

		args := map[string]int64{}
		var parent *ir.Node

		if u.ParentID != nil {
			target := *u.ParentID
			if target == id {
				return ir.Node{}, nil, NewSelfParentError(id)
			}
			p, err := findNode(ctx, tx, target)
			if err != nil {
				return ir.Node{}, nil, err
			}
			cycle, err := isAncestorOrSelf(ctx, tx, id, target)
			if err != nil {
				return ir.Node{}, nil, err
			}
			if cycle {
				return ir.Node{}, nil, NewCycleError(id, target)
			}
			parent = &p
			n.ParentID = ir.ParentRef(target)
			args["parent"] = target
		} else if !n.IsRoot() {
			p, err := findNode(ctx, tx, *n.ParentID)
			if IsNotFound(err) {
				return ir.Node{}, nil, NewCorruptError(id, fmt.Sprintf("parent %d is missing", *n.ParentID))
			}
			if err != nil {
				return ir.Node{}, nil, err
			}
			parent = &p
		}

		if u.Value != nil {
			n.Value = *u.Value
			args["value"] = *u.Value
		}

		n.Sum, n.Level = n.Value, 0
		if parent != nil {
			n.Sum = parent.Sum + n.Value
			n.Level = parent.Level + 1
		}

		saved, err := tx.Save(ctx, n)
		if err != nil {
			return ir.Node{}, nil, fmt.Errorf("update node %d: %w", id, err)
		}
		if err := propagate(ctx, tx, saved); err != nil {
			return ir.Node{}, nil, err
		}

		updated, err := findNode(ctx, tx, id)
		if err != nil {
			return ir.Node{}, nil, err
		}
		return updated, args, nil
	})
}
