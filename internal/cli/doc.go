// Package cli implements the treemngr command-line interface.
//
// Each command opens the SQLite database, resumes an engine from the
// mutation journal, performs one operation and exits. Settings come from a
// TOML config file (see package config); flags given on the command line
// override it.
//
// # Commands
//
//   - show: print the tree
//   - add: create the root, or a child with --parent
//   - remove, update, copy: structural mutations
//   - path: ancestor chain of a node
//   - check: invariant verification
//   - history: the mutation journal
//   - test: run YAML conformance scenarios
//
// # Output
//
// --format json wraps every result in {"status", "data", "error"}. Engine
// errors map to E404 (node not found), E409 (root exists) and E422 (cycle)
// and exit with code 1; bad arguments and unopenable databases exit 2.
//
// # Logging
//
// Logs go to stderr through a charmbracelet/log handler behind log/slog.
// The level comes from the config file; --verbose (-v) forces debug.
package cli
