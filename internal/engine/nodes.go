package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/treemngr/internal/ir"
	"github.com/roach88/treemngr/internal/store"
)

// CreateRoot creates the root node with sum = value and level = 0.
//
// Returns a ROOT_EXISTS error if the store holds any node at all.
func (e *Engine) CreateRoot(ctx context.Context, value int64) (ir.Node, error) {
	return e.mutate(ctx, ir.OpCreateRoot, func(tx store.NodeStore) (ir.Node, map[string]int64, error) {
		count, err := tx.Count(ctx)
		if err != nil {
			return ir.Node{}, nil, fmt.Errorf("create root: %w", err)
		}
		if count != 0 {
			return ir.Node{}, nil, NewRootExistsError()
		}

		root, err := tx.Save(ctx, ir.Node{Value: value, Sum: value, Level: 0})
		if err != nil {
			return ir.Node{}, nil, fmt.Errorf("create root: %w", err)
		}
		return root, map[string]int64{"value": value}, nil
	})
}

// CreateChild creates a node under parentID with
// sum = parent.sum + value and level = parent.level + 1.
//
// Returns a NODE_NOT_FOUND error for parentID if the parent does not exist.
func (e *Engine) CreateChild(ctx context.Context, value, parentID int64) (ir.Node, error) {
	return e.mutate(ctx, ir.OpCreateChild, func(tx store.NodeStore) (ir.Node, map[string]int64, error) {
		parent, err := findNode(ctx, tx, parentID)
		if err != nil {
			return ir.Node{}, nil, err
		}

		child, err := tx.Save(ctx, childOf(parent, value))
		if err != nil {
			return ir.Node{}, nil, fmt.Errorf("create child: %w", err)
		}
		return child, map[string]int64{"value": value, "parent": parentID}, nil
	})
}

// RemoveNode deletes id and its entire subtree.
//
// Returns a NODE_NOT_FOUND error if id does not exist.
func (e *Engine) RemoveNode(ctx context.Context, id int64) error {
	_, err := e.mutate(ctx, ir.OpRemove, func(tx store.NodeStore) (ir.Node, map[string]int64, error) {
		removed, err := tx.Delete(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return ir.Node{}, nil, NewNotFoundError(id)
		}
		if err != nil {
			return ir.Node{}, nil, fmt.Errorf("remove node %d: %w", id, err)
		}
		return ir.Node{ID: id}, map[string]int64{"removed": int64(removed)}, nil
	})
	return err
}

// childOf returns an unsaved node under parent with derived fields set.
func childOf(parent ir.Node, value int64) ir.Node {
	return ir.Node{
		ParentID: ir.ParentRef(parent.ID),
		Value:    value,
		Sum:      parent.Sum + value,
		Level:    parent.Level + 1,
	}
}
