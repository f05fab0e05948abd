package testutil

import (
	"fmt"
	"sync"
)

// SequentialSessionGenerator issues "<prefix>-0001", "<prefix>-0002", ...
//
// Unlike engine.FixedGenerator it never runs out, which suits scenarios
// with an arbitrary number of resets.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialSessionGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialSessionGenerator creates a generator with the given prefix.
// If prefix is empty, "test-session" is used.
func NewSequentialSessionGenerator(prefix string) *SequentialSessionGenerator {
	if prefix == "" {
		prefix = "test-session"
	}
	return &SequentialSessionGenerator{prefix: prefix}
}

// Generate returns the next session id.
//
// Implements engine.SessionIDGenerator.
func (g *SequentialSessionGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
