package forkstream

import (
	"math/rand"
	"sync/atomic"
	"time"
)

// IDGenerator produces probabilistically-unique 32-bit stream ids: the
// high 16 bits of the current Unix time combined with a random value
// XORed against a monotonic counter. Two calls in the same process
// never collide within one second unless the counter wraps; ids are not
// unique across processes and not cryptographic.
type IDGenerator struct {
	counter atomic.Uint32
}

// Next returns the next stream id.
func (g *IDGenerator) Next() uint32 {
	ts := uint32(time.Now().Unix())
	c := g.counter.Add(1)
	return (ts & 0xFFFF0000) | ((rand.Uint32() ^ c) & 0x0000FFFF)
}

// defaultIDs is the process-wide generator used when Options.IDs is nil.
var defaultIDs IDGenerator
