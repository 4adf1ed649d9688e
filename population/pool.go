package population

import (
	"sync"

	"github.com/aram/genflow/chromosome"
)

// Pool recycles chromosome storages so a population can reuse allocations
// across generations instead of round-tripping through the heap on every
// removal (spec §4.4). Allocation tries the pool before the heap; the pool
// is capped so a generation with heavy churn cannot grow it unbounded.
type Pool struct {
	mu           sync.Mutex
	free         []*Storage
	maxSize      int
	fitnessArity int
	schema       *TagSchema
}

// NewPool creates an object pool bounded to maxSize idle storages. Storages
// it allocates carry fitnessArity fitness values and the given tag schema.
func NewPool(maxSize, fitnessArity int, schema *TagSchema) *Pool {
	return &Pool{maxSize: maxSize, fitnessArity: fitnessArity, schema: schema}
}

// Get returns a storage wrapping c, reusing a recycled allocation if one is
// available.
func (p *Pool) Get(c chromosome.Chromosome) *Storage {
	p.mu.Lock()
	n := len(p.free)
	if n == 0 {
		p.mu.Unlock()
		return newStorage(c, p.fitnessArity, p.schema)
	}
	s := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	p.mu.Unlock()

	s.reset(c)
	return s
}

// Recycle returns s to the pool, dropping it instead if the pool is at
// capacity. It implements Recycler so a Group can return removed storages
// directly to the population that owns it.
func (p *Pool) Recycle(s *Storage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) >= p.maxSize {
		return
	}
	p.free = append(p.free, s)
}

// Len reports the number of idle storages currently held by the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Shrink discards idle storages until at most n remain, freeing memory
// after a generation with unusually heavy churn.
func (p *Pool) Shrink(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if len(p.free) > n {
		for i := n; i < len(p.free); i++ {
			p.free[i] = nil
		}
		p.free = p.free[:n]
	}
}
