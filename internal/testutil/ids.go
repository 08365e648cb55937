package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator generates operation ids "<prefix>-0001", "<prefix>-0002",
// and so on, without ever running out.
//
// This enables deterministic journals: the same scenario with a fresh
// SequenceGenerator produces byte-identical history output. Unlike
// engine.FixedGenerator, it needs no up-front list of ids.
//
// Thread-safety: SequenceGenerator is safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator with the given prefix.
// If prefix is empty, "op" is used.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "op"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next id.
//
// Implements engine.OperationIDGenerator.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts the sequence at 1.
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
