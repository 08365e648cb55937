// Package store provides durable storage for treemngr nodes.
//
// The store is a flat, id-indexed table of nodes. Children are never stored;
// they are computed from parent_id through a secondary index.
//
// # Implementations
//
//   - Store: SQLite-backed, the default for the CLI
//   - MemStore: in-memory, for tests and embedding
//
// Both implement Backend: the NodeStore operations plus InTx, which runs a
// function against a transactional view. A function that returns an error
// leaves the store exactly as it was.
//
// # Critical Patterns
//
// Cascading delete: deleting a node deletes its whole subtree in one
// statement. No row may reference a missing parent.
//
// Never-reused ids: node ids are AUTOINCREMENT; a deleted id is never handed
// out again.
//
// Deterministic reads: every multi-row query is ORDER BY id (nodes) or
// ORDER BY seq (journal).
//
// Single root backstop: a partial unique index rejects a second row with
// parent_id IS NULL even if a caller bypasses the engine.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
