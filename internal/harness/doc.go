// Package harness runs executable tree scenarios against the engine.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: reparent_cycle
//	description: "moving a node under its descendant fails"
//	steps:
//	  - op: create_root
//	    value: 10
//	    as: root
//	  - op: create_child
//	    value: 3
//	    parent: root
//	    as: a
//	  - op: create_child
//	    value: 2
//	    parent: a
//	    as: b
//	  - op: update
//	    node: a
//	    parent: b
//	    expect:
//	      error: cycle
//	assertions:
//	  - type: node
//	    node: b
//	    expect: { sum: 15, level: 2 }
//	golden: true
//
// Node references (node, parent, source, target) are either an alias bound
// by an earlier step's "as" or a literal node id.
//
// # Operations
//
//   - create_root: value
//   - create_child: value, parent
//   - remove: node
//   - update: node, and value and/or parent
//   - copy: source, target
//   - get_tree: no arguments; binds the root
//
// # Assertion Types
//
//   - node: the node exists and its fields match expect (subset match)
//   - absent: the node does not exist
//   - count: the tree has exactly count nodes
//   - invariants: engine.Verify reports no violations
//   - same_shape: two subtrees have the same shape hash
//
// # Validation
//
// Loading is strict twice over: the YAML decoder rejects unknown fields,
// and the document is then checked against an embedded CUE schema
// (schema.cue) that encodes the per-op required fields.
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory SQLite store with sequential
// operation ids, so the final tree (and its golden snapshot) is identical
// across runs.
package harness
