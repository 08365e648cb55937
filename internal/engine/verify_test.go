package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/treemngr/internal/ir"
)

func violationKinds(r *Report) []ViolationKind {
	kinds := make([]ViolationKind, len(r.Violations))
	for i, v := range r.Violations {
		kinds[i] = v.Kind
	}
	return kinds
}

func TestVerify_EmptyTree(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *Engine) {
		report, err := e.Verify(context.Background())
		require.NoError(t, err)
		assert.True(t, report.OK())
		assert.Equal(t, 0, report.Nodes)
	})
}

func TestVerify_ValidTree(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *Engine) {
		seedChain(t, e)

		report, err := e.Verify(context.Background())
		require.NoError(t, err)
		assert.True(t, report.OK())
		assert.Equal(t, 3, report.Nodes)
	})
}

func TestVerify_WrongDerivedFields(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *Engine) {
		ctx := context.Background()
		c := seedChain(t, e)

		bad := c.b
		bad.Sum = 99
		bad.Level = 7
		_, err := e.store.Save(ctx, bad)
		require.NoError(t, err)

		report, err := e.Verify(ctx)
		require.NoError(t, err)
		assert.False(t, report.OK())
		assert.Equal(t, []ViolationKind{ViolationLevel, ViolationSum}, violationKinds(report))
		for _, v := range report.Violations {
			assert.Equal(t, c.b.ID, v.NodeID)
		}
	})
}

func TestVerify_Cycle(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *Engine) {
		ctx := context.Background()
		c := seedChain(t, e)

		// Bypass the engine: a -> b -> a.
		looped := c.a
		looped.ParentID = ir.ParentRef(c.b.ID)
		_, err := e.store.Save(ctx, looped)
		require.NoError(t, err)

		report, err := e.Verify(ctx)
		require.NoError(t, err)
		assert.Equal(t, []ViolationKind{ViolationCycle, ViolationCycle}, violationKinds(report))

		_, err = e.Ancestors(ctx, c.b.ID)
		assert.True(t, IsCorrupt(err), "ancestor walk must stop on a stored cycle, got %v", err)

		_, err = e.UpdateNode(ctx, c.b.ID, Update{Value: int64Ptr(1)})
		assert.True(t, IsCorrupt(err), "propagation must stop on a stored cycle, got %v", err)
	})
}

func TestVerify_OrphanAndSecondRoot(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)
	e := New(s)
	c := seedChain(t, e)

	// Disable the store backstops to simulate data written by another tool.
	_, err := s.DB().Exec("PRAGMA foreign_keys = OFF")
	require.NoError(t, err)
	_, err = s.DB().Exec("DROP INDEX idx_nodes_single_root")
	require.NoError(t, err)
	_, err = s.DB().Exec("DELETE FROM nodes WHERE id = ?", c.a.ID)
	require.NoError(t, err)
	_, err = s.DB().Exec("INSERT INTO nodes (parent_id, value, sum, level) VALUES (NULL, 1, 1, 0)")
	require.NoError(t, err)

	report, err := e.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ViolationKind{ViolationOrphan, ViolationMultipleRoots}, violationKinds(report))
	assert.Equal(t, c.b.ID, report.Violations[0].NodeID)

	_, err = e.Ancestors(ctx, c.b.ID)
	assert.True(t, IsCorrupt(err))
}
