package workflow

import "sync"

// barrier is a reusable (cyclic) N-party rendezvous point. Every party calls
// Wait; no party returns from Wait until all N have called it, after which
// every party is released together and the barrier resets for its next use
// (spec §4.7: "parallel threads, cooperative at barriers").
type barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	n       int
	count   int
	gen     int
	aborted bool
}

func newBarrier(n int) *barrier {
	b := &barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// wait blocks until every one of the barrier's n parties has called wait,
// then releases them all together. It returns early, without waiting for
// the remaining parties, if abort has been called — this lets a branch that
// exited early (e.g. on error) release the ones still waiting instead of
// deadlocking them.
func (b *barrier) wait() {
	b.mu.Lock()
	if b.aborted {
		b.mu.Unlock()
		return
	}
	gen := b.gen
	b.count++
	if b.count == b.n {
		b.count = 0
		b.gen++
		b.cond.Broadcast()
	} else {
		for gen == b.gen && !b.aborted {
			b.cond.Wait()
		}
	}
	b.mu.Unlock()
}

// abort wakes every party currently blocked in wait and makes every future
// wait call return immediately, until reset is called.
func (b *barrier) abort() {
	b.mu.Lock()
	b.aborted = true
	b.cond.Broadcast()
	b.mu.Unlock()
}

// reset clears a prior abort so the barrier can be reused for the next run.
func (b *barrier) reset() {
	b.mu.Lock()
	b.aborted = false
	b.count = 0
	b.mu.Unlock()
}
