package engine

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/scanline/internal/ir"
)

// Session is the operator-facing configuration active while scanning.
//
// It is passed explicitly into every evaluation; the engine keeps no
// ambient globals.
type Session struct {
	// ModelName labels the production run. Required.
	ModelName string

	// Patterns is the space-delimited acceptance list. A code is accepted
	// when it contains any entry, ignoring case.
	Patterns string

	// Shift is stamped on every record (DAY, NIGHT, SWING).
	Shift string

	// Operator identifies the station operator for audit output.
	Operator string
}

// PatternList returns the non-blank acceptance patterns in order.
func (s Session) PatternList() []string {
	return ir.SplitPatterns(s.Patterns)
}

// normalizedModel returns the model name as stamped on records.
func (s Session) normalizedModel() string {
	return strings.TrimSpace(s.ModelName)
}

// SessionIDGenerator produces the identifier of a scanning session.
// A new session id is issued on startup with an empty store and on every
// reset. Implemented by UUIDv7Generator (production) and FixedGenerator
// (tests).
type SessionIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined session ids for testing.
//
// This enables deterministic ledgers and golden snapshot comparison.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed, to catch test misconfiguration.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all session ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
