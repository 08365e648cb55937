package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestdata(t *testing.T) []*Scenario {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		require.NoError(t, err, p)
		scenarios = append(scenarios, s)
	}
	return scenarios
}

func TestScenarios(t *testing.T) {
	for _, s := range loadTestdata(t) {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, len(s.Steps))

			if s.Golden {
				require.NoError(t, AssertGolden(t, s.Name, result))
			}
		})
	}
}

func TestRun_BindsAliases(t *testing.T) {
	s := mustParse(t, `
name: aliases
description: Aliases bind to created ids.
steps:
  - op: create_root
    value: 1
    as: root
  - op: create_child
    value: 2
    parent: root
    as: kid
  - op: copy
    source: kid
    target: root
    as: twin
`)
	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, map[string]int64{"root": 1, "kid": 2, "twin": 3}, result.Aliases)
	require.NotNil(t, result.Tree)
	assert.Equal(t, 3, result.Tree.Size())
}

func TestRun_ReportsMismatches(t *testing.T) {
	s := mustParse(t, `
name: mismatches
description: Every expectation here is wrong.
steps:
  - op: create_root
    value: 10
    as: root
    expect:
      node: {sum: 11}
  - op: create_root
    value: 1
  - op: create_child
    value: 3
    parent: root
    expect:
      error: cycle
  - op: remove
    node: 55
    expect:
      error: cycle
assertions:
  - type: count
    count: 9
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "steps[0] (create_root): node 1: sum = 10, want 11")
	assert.Contains(t, result.Errors[1], "steps[1] (create_root): unexpected error")
	assert.Contains(t, result.Errors[2], "expected error cycle, got success")
	assert.Contains(t, result.Errors[3], "expected error cycle, got node_not_found")
	assert.Contains(t, result.Errors[4], "tree has 2 nodes, want 9")
}

func TestRun_UnknownAliasAtRuntime(t *testing.T) {
	// "later" is only bound by a step that fails, so the reference dangles.
	s := mustParse(t, `
name: dangling
description: Refers to an alias whose step failed.
steps:
  - op: create_child
    value: 1
    parent: 3
    as: later
    expect:
      error: node_not_found
  - op: remove
    node: later
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `steps[1] (remove): node: unknown alias "later"`)
	assert.Len(t, result.Trace, 1)
}

func TestRun_TraceRevisions(t *testing.T) {
	s := mustParse(t, `
name: revisions
description: Only successful mutations advance the revision.
steps:
  - op: create_root
    value: 1
    as: root
  - op: create_root
    value: 2
    expect: {error: root_exists}
  - op: update
    node: root
  - op: update
    node: root
    value: 4
`)
	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	revisions := make([]int64, 0, len(result.Trace))
	for _, ev := range result.Trace {
		revisions = append(revisions, ev.Revision)
	}
	assert.Equal(t, []int64{1, 1, 1, 2}, revisions)
	assert.Equal(t, "root_exists", result.Trace[1].Error)
}

func TestRunContext_Cancelled(t *testing.T) {
	s := mustParse(t, `
name: cancelled
description: Never gets to run.
steps:
  - op: create_root
    value: 1
`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunContext(ctx, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func mustParse(t *testing.T, yaml string) *Scenario {
	t.Helper()
	s, err := ParseScenario(t.Name()+".yaml", []byte(yaml))
	require.NoError(t, err)
	return s
}
