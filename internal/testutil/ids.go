// Package testutil holds deterministic stand-ins and fixtures for tests.
package testutil

import "sync"

// FixedBuildIDs returns predetermined build ids in order.
//
// Thread-safety: FixedBuildIDs is safe for concurrent use via internal mutex.
type FixedBuildIDs struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedBuildIDs creates a generator that returns ids in order.
//
//	gen := NewFixedBuildIDs("build-1", "build-2")
//	gen.Generate() // "build-1"
//	gen.Generate() // "build-2"
//	gen.Generate() // panic: all build ids used
func NewFixedBuildIDs(ids ...string) *FixedBuildIDs {
	return &FixedBuildIDs{ids: ids}
}

// Generate returns the next id. It panics when all ids have been used, so
// a test that runs more builds than it planned for fails loudly.
func (g *FixedBuildIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedBuildIDs: all build ids used")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
