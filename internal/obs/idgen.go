package obs

import "sync/atomic"

// IDGenerator produces monotonically increasing correlation IDs for the
// telemetry tap — never consulted by the deterministic core, only by the
// side channel that observes it.
type IDGenerator struct {
	next uint64
}

// NewIDGenerator returns a generator seeded with the given value.
func NewIDGenerator(seed uint64) *IDGenerator {
	return &IDGenerator{next: seed}
}

// Next returns the next id.
func (g *IDGenerator) Next() uint64 {
	if g == nil {
		return 0
	}
	return atomic.AddUint64(&g.next, 1)
}
