package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/treemngr/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// forEachBackend runs fn once per Backend implementation so both share the
// same contract tests.
func forEachBackend(t *testing.T, fn func(t *testing.T, b Backend)) {
	t.Helper()
	t.Run("sqlite", func(t *testing.T) {
		fn(t, createTestStore(t))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemStore())
	})
}

// mustSave saves n and fails the test on error.
func mustSave(t *testing.T, s NodeStore, n ir.Node) ir.Node {
	t.Helper()
	saved, err := s.Save(context.Background(), n)
	if err != nil {
		t.Fatalf("Save(%v) failed: %v", n, err)
	}
	return saved
}

// seedChain creates root(10) -> child(3) -> grandchild(2) with consistent
// derived fields and returns the three saved nodes.
func seedChain(t *testing.T, s NodeStore) (root, child, grandchild ir.Node) {
	t.Helper()
	root = mustSave(t, s, ir.Node{Value: 10, Sum: 10, Level: 0})
	child = mustSave(t, s, ir.Node{ParentID: ir.ParentRef(root.ID), Value: 3, Sum: 13, Level: 1})
	grandchild = mustSave(t, s, ir.Node{ParentID: ir.ParentRef(child.ID), Value: 2, Sum: 15, Level: 2})
	return root, child, grandchild
}
