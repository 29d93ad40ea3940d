package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator hands out sequential ids ("plan-1", "plan-2", ...) so tests can
// predict which id a plan, assignment, or absence event was written under.
// Production wiring uses uuid.NewString instead.
type IDGenerator struct {
	mu     sync.Mutex
	prefix string
	next   uint64
}

// NewIDGenerator builds a generator for the given prefix. An empty prefix
// falls back to "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next yields the next id in the sequence, starting at <prefix>-1.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next)
}

// NextFunc adapts the generator to the func() string the services take. A nil
// generator yields empty ids.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Reset restarts the sequence so a fresh scenario begins at <prefix>-1 again.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.next = 0
	g.mu.Unlock()
}
