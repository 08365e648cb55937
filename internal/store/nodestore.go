package store

import (
	"context"
	"errors"

	"github.com/roach88/treemngr/internal/ir"
)

var (
	// ErrNotFound is returned when a requested node (or the root) does not exist.
	ErrNotFound = errors.New("node not found")

	// ErrConstraint is returned when a write would break a storage-level
	// invariant: a missing parent or a second root.
	ErrConstraint = errors.New("constraint violation")
)

// NodeStore is the CRUD-on-id surface the tree engine consumes.
type NodeStore interface {
	// FindByID returns the node with the given id or ErrNotFound.
	FindByID(ctx context.Context, id int64) (ir.Node, error)

	// ExistsByID reports whether a node with the given id exists.
	ExistsByID(ctx context.Context, id int64) (bool, error)

	// Save inserts n when n.ID is 0 (assigning a fresh id) and updates the
	// existing row otherwise. Updating a missing row returns ErrNotFound.
	Save(ctx context.Context, n ir.Node) (ir.Node, error)

	// Delete removes the node and its entire subtree. Returns the number of
	// nodes removed, or ErrNotFound.
	Delete(ctx context.Context, id int64) (int, error)

	// FindRoot returns the node without a parent or ErrNotFound.
	FindRoot(ctx context.Context) (ir.Node, error)

	// ExistsRoot reports whether a root node exists.
	ExistsRoot(ctx context.Context) (bool, error)

	// Count returns the total number of nodes.
	Count(ctx context.Context) (int64, error)

	// FindChildren returns the direct children of parentID ordered by id.
	FindChildren(ctx context.Context, parentID int64) ([]ir.Node, error)

	// ListNodes returns every node ordered by id.
	ListNodes(ctx context.Context) ([]ir.Node, error)

	// AppendOperation journals a mutation. The store assigns Seq (one past
	// the highest existing seq) and returns it.
	AppendOperation(ctx context.Context, op ir.Operation) (int64, error)
}

// JournalReader reads back the mutation journal.
type JournalReader interface {
	// ReadOperations returns the newest limit entries in ascending seq
	// order. A limit <= 0 returns everything.
	ReadOperations(ctx context.Context, limit int) ([]ir.Operation, error)

	// LastSeq returns the highest seq, or 0 for an empty journal.
	LastSeq(ctx context.Context) (int64, error)
}

// Backend is a NodeStore that can run a function inside a transaction.
//
// InTx commits when fn returns nil and rolls back otherwise. The NodeStore
// passed to fn is only valid for the duration of the call.
type Backend interface {
	NodeStore
	JournalReader
	InTx(ctx context.Context, fn func(tx NodeStore) error) error
}
