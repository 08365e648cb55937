package ir

import "fmt"

// Node is a single tree element as persisted by the store.
//
// Sum and Level are derived by the engine and are never set by callers.
// ParentID is nil for the root.
type Node struct {
	ID       int64  `json:"id"`
	ParentID *int64 `json:"parent_id,omitempty"`
	Value    int64  `json:"value"`
	Sum      int64  `json:"sum"`
	Level    int    `json:"level"`
}

// IsRoot reports whether the node has no parent.
func (n Node) IsRoot() bool {
	return n.ParentID == nil
}

// HasParent reports whether the node's parent is id.
func (n Node) HasParent(id int64) bool {
	return n.ParentID != nil && *n.ParentID == id
}

// String renders the node in the compact form used by CLI text output and
// harness diagnostics.
func (n Node) String() string {
	if n.ParentID == nil {
		return fmt.Sprintf("#%d value=%d sum=%d level=%d", n.ID, n.Value, n.Sum, n.Level)
	}
	return fmt.Sprintf("#%d value=%d sum=%d level=%d parent=#%d", n.ID, n.Value, n.Sum, n.Level, *n.ParentID)
}

// ParentRef returns a pointer to a copy of id, for use as Node.ParentID.
func ParentRef(id int64) *int64 {
	return &id
}

// TreeNode is a node with its children resolved recursively.
// Children are ordered by ascending ID.
type TreeNode struct {
	Node
	Children []*TreeNode `json:"children"`
}

// Walk visits t and every descendant in depth-first pre-order.
// Returning false from fn stops the walk.
func (t *TreeNode) Walk(fn func(*TreeNode) bool) bool {
	if t == nil {
		return true
	}
	if !fn(t) {
		return false
	}
	for _, c := range t.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Size returns the number of nodes in the subtree rooted at t.
func (t *TreeNode) Size() int {
	n := 0
	t.Walk(func(*TreeNode) bool {
		n++
		return true
	})
	return n
}

// Find returns the subtree rooted at the node with the given id, or nil.
func (t *TreeNode) Find(id int64) *TreeNode {
	var found *TreeNode
	t.Walk(func(n *TreeNode) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}
