package engine

import (
	"context"
	"fmt"

	"github.com/roach88/treemngr/internal/ir"
	"github.com/roach88/treemngr/internal/store"
)

// snapshotEntry is one node of a subtree captured before copying, with the
// index of its parent entry (-1 for the top).
type snapshotEntry struct {
	value  int64
	parent int
}

// CopySubtree copies the subtree rooted at sourceID under targetParentID.
// Copies get fresh ids and derived fields computed from their new position;
// shape and values match the source. Returns the top-level copy.
//
// Returns a NODE_NOT_FOUND error for whichever endpoint is missing (source
// checked first). The source subtree is captured before the first insert,
// so copying a node under itself or its own descendant terminates and
// copies the subtree as it was.
func (e *Engine) CopySubtree(ctx context.Context, sourceID, targetParentID int64) (ir.Node, error) {
	return e.mutate(ctx, ir.OpCopy, func(tx store.NodeStore) (ir.Node, map[string]int64, error) {
		source, err := findNode(ctx, tx, sourceID)
		if err != nil {
			return ir.Node{}, nil, err
		}
		target, err := findNode(ctx, tx, targetParentID)
		if err != nil {
			return ir.Node{}, nil, err
		}

		entries, err := snapshotSubtree(ctx, tx, source)
		if err != nil {
			return ir.Node{}, nil, err
		}

		// entries are in BFS order, so every parent is inserted before its
		// children.
		copies := make([]ir.Node, len(entries))
		for i, entry := range entries {
			if err := ctx.Err(); err != nil {
				return ir.Node{}, nil, err
			}
			parent := target
			if entry.parent >= 0 {
				parent = copies[entry.parent]
			}
			copies[i], err = tx.Save(ctx, childOf(parent, entry.value))
			if err != nil {
				return ir.Node{}, nil, fmt.Errorf("copy node %d: %w", sourceID, err)
			}
		}

		return copies[0], map[string]int64{
			"source": sourceID,
			"target": targetParentID,
			"copied": int64(len(copies)),
		}, nil
	})
}

// snapshotSubtree captures the subtree under top in breadth-first order,
// children by id. Bounded by the node count like every other traversal.
func snapshotSubtree(ctx context.Context, tx store.NodeStore, top ir.Node) ([]snapshotEntry, error) {
	limit, err := tx.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot subtree: %w", err)
	}

	entries := []snapshotEntry{{value: top.Value, parent: -1}}
	ids := []int64{top.ID}
	for i := 0; i < len(ids); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if int64(len(ids)) > limit {
			return nil, NewCorruptError(top.ID, "subtree is larger than the tree")
		}
		children, err := tx.FindChildren(ctx, ids[i])
		if err != nil {
			return nil, fmt.Errorf("snapshot subtree: %w", err)
		}
		for _, c := range children {
			entries = append(entries, snapshotEntry{value: c.Value, parent: i})
			ids = append(ids, c.ID)
		}
	}
	return entries, nil
}
