// Package engine implements the treemngr tree engine.
//
// The engine owns every tree invariant: a single root, an acyclic parent
// graph, level = depth and sum = value plus all ancestor values. Callers
// never set Sum or Level; the engine derives them on every mutation.
//
// ARCHITECTURE:
//
// Stateless over a store:
// The engine keeps no node cache. Every operation reads what it needs from
// the store.Backend and writes inside a single store transaction, so a
// failed, rejected or cancelled operation leaves the store untouched.
//
// Concurrency:
// A sync.RWMutex serializes mutations (write lock) and lets reads (GetTree,
// Ancestors, Verify) run concurrently with each other but never with a
// mutation. Readers therefore never observe a half-propagated subtree.
// Across processes sharing one SQLite file, the store's write lock and
// per-operation transactions serialize writers.
//
// Mutation Flow:
//  1. Take the write lock
//  2. Open a store transaction
//  3. Validate every precondition before the first write
//  4. Write the node(s) and propagate derived fields through the subtree
//  5. Append one journal entry; its seq becomes the new revision
//  6. Commit, then advance the Clock
//
// CRITICAL PATTERNS:
//
// Validate before mutate:
// UpdateNode checks existence and cycles before touching the node, so a
// rejected update is never partially applied.
//
// Full-subtree propagation:
// After a value or parent change, every descendant's sum (and level) is
// recomputed breadth-first from its parent. Propagation is total; it does
// not stop early when a value happens to be unchanged.
//
// Bounded traversal:
// Ancestor walks are bounded by the node count. A longer chain means the
// stored data has a cycle and is reported as ErrCodeCorrupt instead of
// looping forever.
//
// Cancellation:
// Propagation, copy and tree building check ctx at node granularity.
package engine
