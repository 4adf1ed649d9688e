// Package rng provides the thread-safe, uniform random source genflow's
// stage operators are required to use instead of an unsynchronized
// math/rand instance (spec §1 "Non-goals", §4.7, §9 "Global singletons").
//
// The generator is lock-free: its 64-bit state is advanced with a
// compare-and-swap loop (xorshift64*) rather than a mutex, so concurrent
// branches calling it at a barrier-synchronised step never block each
// other on a lock.
package rng

import (
	"math/bits"
	"sync/atomic"
	"time"
)

// Generator is a lock-free, thread-safe uniform random source. The zero
// value is not usable; construct one with New or NewSeeded.
type Generator struct {
	state atomic.Uint64
}

// New creates a Generator seeded from the current time.
func New() *Generator {
	return NewSeeded(uint64(time.Now().UnixNano()))
}

// NewSeeded creates a Generator with an explicit seed, for reproducible runs.
func NewSeeded(seed uint64) *Generator {
	g := &Generator{}
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	g.state.Store(seed)
	return g
}

// next advances the generator state atomically and returns the new value.
// xorshift64* passes a battery of statistical tests while needing only a
// single 64-bit word of state, which is what makes the CAS loop cheap.
func (g *Generator) next() uint64 {
	for {
		old := g.state.Load()
		x := old
		x ^= x >> 12
		x ^= x << 25
		x ^= x >> 27
		if g.state.CompareAndSwap(old, x) {
			return x * 0x2545F4914F6CDD1D
		}
	}
}

// Uint64 returns a uniformly distributed 64-bit value.
func (g *Generator) Uint64() uint64 { return g.next() }

// Float64 returns a uniformly distributed value in [0.0, 1.0).
func (g *Generator) Float64() float64 {
	// 53 bits of mantissa precision, matching math/rand's convention.
	return float64(g.next()>>11) / (1 << 53)
}

// Intn returns a uniformly distributed value in [0, n). It panics if n <= 0.
func (g *Generator) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	// Lemire's multiply-shift reduction, without its rejection step: no
	// division is needed, and a bias of at most n/2^64 per outcome remains.
	hi, _ := bits.Mul64(g.next(), uint64(n))
	return int(hi)
}

// Perm returns a pseudo-random permutation of [0, n) using Fisher-Yates,
// the same algorithm spec §4.3 names for group shuffling.
func (g *Generator) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := g.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// Shuffle shuffles n elements in place via swap, following Fisher-Yates.
func (g *Generator) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := g.Intn(i + 1)
		swap(i, j)
	}
}
