package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/treemngr/internal/ir"
	"github.com/roach88/treemngr/internal/store"
	"github.com/roach88/treemngr/internal/testutil"
)

// openSQLite opens a file-backed store in t's temp dir.
func openSQLite(t *testing.T) *store.Store {
	t.Helper()
	s, _ := testutil.OpenStore(t)
	return s
}

// forEachBackend runs fn against an engine over each store implementation.
func forEachBackend(t *testing.T, fn func(t *testing.T, e *Engine)) {
	t.Helper()
	t.Run("sqlite", func(t *testing.T) {
		fn(t, New(openSQLite(t)))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, New(store.NewMemStore()))
	})
}

// chain is root(10) -> a(3) -> b(2).
type chain struct {
	root, a, b ir.Node
}

func seedChain(t *testing.T, e *Engine) chain {
	t.Helper()
	ctx := context.Background()

	root, err := e.CreateRoot(ctx, 10)
	require.NoError(t, err)
	a, err := e.CreateChild(ctx, 3, root.ID)
	require.NoError(t, err)
	b, err := e.CreateChild(ctx, 2, a.ID)
	require.NoError(t, err)
	return chain{root: root, a: a, b: b}
}

// requireValid fails the test if any tree invariant is broken.
func requireValid(t *testing.T, e *Engine) {
	t.Helper()
	report, err := e.Verify(context.Background())
	require.NoError(t, err)
	require.Empty(t, report.Violations, "tree invariants violated")
}

// mustGet reads a node straight from the engine's store.
func mustGet(t *testing.T, e *Engine, id int64) ir.Node {
	t.Helper()
	n, err := e.store.FindByID(context.Background(), id)
	require.NoError(t, err)
	return n
}

func requireAbsent(t *testing.T, e *Engine, id int64) {
	t.Helper()
	ok, err := e.store.ExistsByID(context.Background(), id)
	require.NoError(t, err)
	require.False(t, ok, "node %d should be absent", id)
}

func int64Ptr(v int64) *int64 {
	return &v
}
