package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAll(t *testing.T) {
	scenarios := loadTestdata(t)

	results, err := RunAll(context.Background(), scenarios, 2)
	require.NoError(t, err)
	require.Len(t, results, len(scenarios))

	for i, r := range results {
		require.NotNil(t, r, scenarios[i].Name)
		assert.True(t, r.Pass, "%s: %v", scenarios[i].Name, r.Errors)
		assert.Len(t, r.Trace, len(scenarios[i].Steps), scenarios[i].Name)
	}
}

func TestRunAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunAll(ctx, loadTestdata(t), 0)
	require.ErrorIs(t, err, context.Canceled)
}
