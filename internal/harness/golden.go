package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/treemngr/internal/ir"
)

// TreeSnapshot captures the trace and final tree of a scenario execution.
// It is serialized as canonical JSON for deterministic comparison.
type TreeSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	Tree         *ir.TreeNode
}

// toCanonicalMap converts a TreeSnapshot to a map[string]any for canonical JSON serialization.
func (s *TreeSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"step":     event.Step,
			"op":       event.Op,
			"revision": event.Revision,
		}
		if event.NodeID != 0 {
			eventMap["node_id"] = event.NodeID
		}
		if event.Error != "" {
			eventMap["error"] = event.Error
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"tree":          ir.Snapshot(s.Tree),
	}
}

// GoldenBytes renders the canonical golden form of a result.
func GoldenBytes(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TreeSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Tree:         result.Tree,
	}
	data, err := ir.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return nil, fmt.Errorf("golden snapshot: %w", err)
	}
	return data, nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := GoldenBytes(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}

// GoldenPath returns the golden file for a scenario: <goldenDir>/<name>.golden.
func GoldenPath(goldenDir, scenarioName string) string {
	return filepath.Join(goldenDir, scenarioName+".golden")
}

// CompareGolden reports whether the golden file at path matches result.
// A missing golden file is an error.
func CompareGolden(path, scenarioName string, result *Result) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read golden file: %w", err)
	}
	got, err := GoldenBytes(scenarioName, result)
	if err != nil {
		return false, err
	}
	return bytes.Equal(bytes.TrimRight(want, "\n"), got), nil
}

// WriteGolden writes the golden form of result to path, creating the
// parent directory as needed.
func WriteGolden(path, scenarioName string, result *Result) error {
	data, err := GoldenBytes(scenarioName, result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create golden dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write golden file: %w", err)
	}
	return nil
}
