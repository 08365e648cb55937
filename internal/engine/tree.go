package engine

import (
	"context"
	"fmt"

	"github.com/roach88/treemngr/internal/ir"
	"github.com/roach88/treemngr/internal/store"
)

// GetTree returns the root with every descendant resolved.
// Returns a TREE_EMPTY error when there is no root.
//
// The tree is built from a single ListNodes read grouped by parent id,
// so it is always a consistent snapshot. Children are ordered by id.
func (e *Engine) GetTree(ctx context.Context) (*ir.TreeNode, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	nodes, err := e.store.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("get tree: %w", err)
	}
	return buildTree(ctx, nodes)
}

// buildTree links nodes into a tree. nodes must be ordered by id; children
// inherit that order. Nodes not reachable from the root are left out.
func buildTree(ctx context.Context, nodes []ir.Node) (*ir.TreeNode, error) {
	byID := make(map[int64]*ir.TreeNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = &ir.TreeNode{Node: n, Children: []*ir.TreeNode{}}
	}

	var root *ir.TreeNode
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := byID[n.ID]
		if n.IsRoot() {
			if root == nil {
				root = t
			}
			continue
		}
		if parent, ok := byID[*n.ParentID]; ok {
			parent.Children = append(parent.Children, t)
		}
	}
	if root == nil {
		return nil, NewTreeEmptyError()
	}
	return root, nil
}

// Node returns a single node by id.
// Returns a NODE_NOT_FOUND error if id does not exist.
func (e *Engine) Node(ctx context.Context, id int64) (ir.Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return findNode(ctx, e.store, id)
}

// Ancestors returns the chain from id up to the root, inclusive: the node
// itself first, the root last.
//
// Returns a NODE_NOT_FOUND error if id does not exist.
func (e *Engine) Ancestors(ctx context.Context, id int64) ([]ir.Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	chain := []ir.Node{}
	err := walkAncestors(ctx, e.store, id, func(n ir.Node) bool {
		chain = append(chain, n)
		return true
	})
	if err != nil {
		return nil, err
	}
	return chain, nil
}

// walkAncestors calls fn for id and then each ancestor up to the root.
// Returning false from fn stops the walk early.
//
// The walk is bounded by the node count: a chain longer than that can only
// come from a stored cycle and is reported as a CORRUPT error. A parent
// that does not exist is also CORRUPT; a missing id is NODE_NOT_FOUND.
func walkAncestors(ctx context.Context, s store.NodeStore, id int64, fn func(ir.Node) bool) error {
	limit, err := s.Count(ctx)
	if err != nil {
		return fmt.Errorf("walk ancestors: %w", err)
	}

	n, err := findNode(ctx, s, id)
	if err != nil {
		return err
	}
	for steps := int64(1); ; steps++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if steps > limit {
			return NewCorruptError(id, "parent chain does not reach a root")
		}
		if !fn(n) || n.IsRoot() {
			return nil
		}

		parentID := *n.ParentID
		n, err = findNode(ctx, s, parentID)
		if IsNotFound(err) {
			return NewCorruptError(id, fmt.Sprintf("ancestor %d is missing", parentID))
		}
		if err != nil {
			return err
		}
	}
}

// isAncestorOrSelf reports whether candidate lies on the chain from id to
// the root.
func isAncestorOrSelf(ctx context.Context, s store.NodeStore, candidate, id int64) (bool, error) {
	found := false
	err := walkAncestors(ctx, s, id, func(n ir.Node) bool {
		found = n.ID == candidate
		return !found
	})
	return found, err
}
