// Package comm provides in-process communicators for the esio library.
// Ranks are goroutines of one process sharing a barrier; combined with
// the container driver's shared-open registry this realizes the
// collective semantics of the public API without an external
// message-passing substrate.
package comm

import (
	"fmt"
	"sync"

	esio "github.com/Tiancheng-Luo/go-esio"
)

// barrier is a reusable sense-reversing barrier.
type barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	size    int
	waiting int
	phase   uint64
}

func newBarrier(size int) *barrier {
	b := &barrier{size: size}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *barrier) await() {
	b.mu.Lock()
	phase := b.phase
	b.waiting++
	if b.waiting == b.size {
		b.waiting = 0
		b.phase++
		b.cond.Broadcast()
	} else {
		for phase == b.phase {
			b.cond.Wait()
		}
	}
	b.mu.Unlock()
}

// Local is one rank's view of an in-process group. All ranks of a group
// share the same barrier; duplicates share it too, so collectives on a
// duplicated communicator synchronize the same goroutines.
type Local struct {
	rank int
	size int
	name string
	b    *barrier
}

var _ esio.Comm = (*Local)(nil)

// NewLocalGroup creates an n-rank in-process group and returns one
// communicator per rank, in rank order. Each returned communicator must
// be driven by exactly one goroutine.
func NewLocalGroup(n int) ([]*Local, error) {
	if n < 1 {
		return nil, fmt.Errorf("comm: group size %d below one", n)
	}
	b := newBarrier(n)
	group := make([]*Local, n)
	for i := range group {
		group[i] = &Local{rank: i, size: n, name: "local", b: b}
	}
	return group, nil
}

// Self returns a single-rank group.
func Self() *Local {
	return &Local{rank: 0, size: 1, name: "self", b: newBarrier(1)}
}

// Rank returns this communicator's zero-based rank.
func (c *Local) Rank() int { return c.rank }

// Size returns the number of ranks in the group.
func (c *Local) Size() int { return c.size }

// Name returns the communicator's name.
func (c *Local) Name() string { return c.name }

// Barrier blocks until every rank of the group has entered it.
func (c *Local) Barrier() { c.b.await() }

// Dup returns an independent communicator over the same group.
func (c *Local) Dup(name string) (esio.Comm, error) {
	if name == "" {
		return nil, fmt.Errorf("comm: empty communicator name")
	}
	return &Local{rank: c.rank, size: c.size, name: name, b: c.b}, nil
}

// Free releases the communicator. Local groups hold no external
// resources.
func (c *Local) Free() error { return nil }
