package engine

import (
	"context"
	"fmt"

	"github.com/roach88/treemngr/internal/ir"
	"github.com/roach88/treemngr/internal/store"
)

// propagate recomputes sum and level for every descendant of top,
// breadth-first, from each node's parent. top itself must already be saved
// with correct derived fields.
//
// The walk is bounded by the node count so corrupt data (a cycle below top)
// fails instead of looping. ctx is checked before each node.
func propagate(ctx context.Context, tx store.NodeStore, top ir.Node) error {
	limit, err := tx.Count(ctx)
	if err != nil {
		return fmt.Errorf("propagate: %w", err)
	}

	var visited int64
	queue := []ir.Node{top}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		parent := queue[0]
		queue = queue[1:]

		visited++
		if visited > limit {
			return NewCorruptError(top.ID, "subtree is larger than the tree")
		}

		children, err := tx.FindChildren(ctx, parent.ID)
		if err != nil {
			return fmt.Errorf("propagate: %w", err)
		}
		for _, child := range children {
			child.Sum = parent.Sum + child.Value
			child.Level = parent.Level + 1
			saved, err := tx.Save(ctx, child)
			if err != nil {
				return fmt.Errorf("propagate to node %d: %w", child.ID, err)
			}
			queue = append(queue, saved)
		}
	}
	return nil
}
