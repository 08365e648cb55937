package engine

import (
	"errors"
	"fmt"
)

// TreeError is a domain error raised by a tree operation.
//
// Callers branch on Code (or the Is* predicates); Message is for humans.
// Infrastructure failures (SQL errors, cancellation) are never TreeErrors.
type TreeError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// NodeID is the node the error is about: the missing node, or the node
	// being reparented for cycle errors.
	NodeID int64

	// TargetID is the requested parent for cycle errors.
	TargetID int64
}

// ErrorCode categorizes tree errors.
type ErrorCode string

const (
	// ErrCodeRootExists indicates CreateRoot on a non-empty tree.
	ErrCodeRootExists ErrorCode = "ROOT_EXISTS"

	// ErrCodeNodeNotFound indicates a referenced node does not exist.
	ErrCodeNodeNotFound ErrorCode = "NODE_NOT_FOUND"

	// ErrCodeCycle indicates a reparent onto the node itself or one of its
	// descendants.
	ErrCodeCycle ErrorCode = "CYCLE"

	// ErrCodeTreeEmpty indicates a read of a tree without a root.
	ErrCodeTreeEmpty ErrorCode = "TREE_EMPTY"

	// ErrCodeCorrupt indicates stored data that violates acyclicity.
	ErrCodeCorrupt ErrorCode = "CORRUPT"
)

// Error implements the error interface.
func (e *TreeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewRootExistsError creates a TreeError for a second CreateRoot.
func NewRootExistsError() *TreeError {
	return &TreeError{
		Code:    ErrCodeRootExists,
		Message: "tree already has a root",
	}
}

// NewNotFoundError creates a TreeError for a missing node.
func NewNotFoundError(id int64) *TreeError {
	return &TreeError{
		Code:    ErrCodeNodeNotFound,
		Message: fmt.Sprintf("node %d not found", id),
		NodeID:  id,
	}
}

// NewCycleError creates a TreeError for reparenting id under its
// descendant target.
func NewCycleError(id, target int64) *TreeError {
	return &TreeError{
		Code:     ErrCodeCycle,
		Message:  fmt.Sprintf("node %d cannot move under its descendant %d", id, target),
		NodeID:   id,
		TargetID: target,
	}
}

// NewSelfParentError creates a TreeError for reparenting id under itself.
// It shares ErrCodeCycle with NewCycleError.
func NewSelfParentError(id int64) *TreeError {
	return &TreeError{
		Code:     ErrCodeCycle,
		Message:  fmt.Sprintf("node %d cannot be its own parent", id),
		NodeID:   id,
		TargetID: id,
	}
}

// NewTreeEmptyError creates a TreeError for a read of an empty tree.
func NewTreeEmptyError() *TreeError {
	return &TreeError{
		Code:    ErrCodeTreeEmpty,
		Message: "tree has no root",
	}
}

// NewCorruptError creates a TreeError for a parent chain that does not end
// at a root within the node count.
func NewCorruptError(id int64, reason string) *TreeError {
	return &TreeError{
		Code:    ErrCodeCorrupt,
		Message: fmt.Sprintf("node %d: %s", id, reason),
		NodeID:  id,
	}
}

// CodeOf returns the TreeError code of err, or "" if err is not a TreeError.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var te *TreeError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// IsRootExists returns true if the error is a root-already-exists error.
func IsRootExists(err error) bool {
	return CodeOf(err) == ErrCodeRootExists
}

// IsNotFound returns true if the error is a node-not-found error.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNodeNotFound
}

// IsCycleError returns true if the error is a cycle error.
func IsCycleError(err error) bool {
	return CodeOf(err) == ErrCodeCycle
}

// IsTreeEmpty returns true if the error is a tree-empty error.
func IsTreeEmpty(err error) bool {
	return CodeOf(err) == ErrCodeTreeEmpty
}

// IsCorrupt returns true if the error reports corrupt stored data.
func IsCorrupt(err error) bool {
	return CodeOf(err) == ErrCodeCorrupt
}
