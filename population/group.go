package population

import (
	"fmt"
	"sync/atomic"

	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/gaerr"
	"github.com/aram/genflow/internal/rng"
)

// Criteria is the total pre-order over storage pointers groups sort and
// insert by (spec §3, §4.3).
type Criteria = chromosome.SortCriteria[*Storage]

// Recycler accepts storages a group no longer needs, typically a
// Population's object pool. It lets Group stay decoupled from Population's
// concrete type.
type Recycler interface {
	Recycle(*Storage)
}

// Group is an ordered, optionally-sized, sortable bag of storage pointers
// with an optional membership flag (spec §3, §4.3).
//
// Group is not safe for concurrent use except through AddAtomic, which may
// be called concurrently from multiple branches provided no other method
// runs at the same time (spec §4.3).
type Group struct {
	items           []*Storage
	count           atomic.Int64
	sizable         bool
	membershipFlag  uint32
	recycleOnRemove bool
	recycler        Recycler

	shuffleBackup []*Storage
	hasBackup     bool
}

// NewGroup creates a chromosome group. If sizable is false, capacity fixes
// the group's maximum size. membershipFlag, when non-zero, is set on every
// resident storage's flag word to deduplicate inserts in O(1); recycler,
// when non-nil and recycleOnRemove is true, receives removed storages back
// into its object pool.
func NewGroup(sizable bool, capacity int, membershipFlag uint32, recycler Recycler, recycleOnRemove bool) *Group {
	g := &Group{
		items:           make([]*Storage, capacity),
		sizable:         sizable,
		membershipFlag:  membershipFlag,
		recycler:        recycler,
		recycleOnRemove: recycleOnRemove,
	}
	g.count.Store(0)
	return g
}

// Count returns the number of chromosomes currently in the group.
func (g *Group) Count() int { return int(g.count.Load()) }

// Capacity returns the size of the array used to store chromosomes.
func (g *Group) Capacity() int { return len(g.items) }

// IsSizable reports whether the group grows on demand.
func (g *Group) IsSizable() bool { return g.sizable }

// IsEmpty reports whether the group has no members.
func (g *Group) IsEmpty() bool { return g.Count() == 0 }

// At returns the storage at index i. It panics on an out-of-range index,
// matching slice indexing semantics.
func (g *Group) At(i int) *Storage { return g.items[i] }

// Items returns a snapshot slice of the group's current members in their
// present order. Callers that only need to read or reorder membership (the
// stage operators' selection/replacement/coupling contracts) use this
// instead of indexing with At in a loop.
func (g *Group) Items() []*Storage {
	n := g.Count()
	out := make([]*Storage, n)
	copy(out, g.items[:n])
	return out
}

// isMember reports whether p is already marked a member of this group.
func (g *Group) isMember(p *Storage) bool {
	return g.membershipFlag != 0 && p.Flags().TestAll(g.membershipFlag)
}

func (g *Group) mark(p *Storage) {
	if g.membershipFlag != 0 {
		p.Flags().Set(g.membershipFlag)
	}
	p.notifyInserted()
}

func (g *Group) unmark(p *Storage) {
	if g.membershipFlag != 0 {
		p.Flags().Clear(g.membershipFlag)
	}
	p.notifyRemoved()
}

func (g *Group) growIfNeeded() {
	if len(g.items) == 0 {
		g.items = make([]*Storage, 4)
		return
	}
	bigger := make([]*Storage, len(g.items)*2)
	copy(bigger, g.items)
	g.items = bigger
}

// Add appends p after the last chromosome in the group. If a membership
// flag is configured, a second Add of the same storage is a no-op that
// returns -1. Add fails with gaerr.ErrFull if the group is at capacity and
// not sizable.
func (g *Group) Add(p *Storage) (int, error) {
	if p == nil {
		return -1, fmt.Errorf("population: group add: %w", gaerr.ErrNullArgument)
	}
	if g.isMember(p) {
		return -1, nil
	}

	count := int(g.count.Load())
	if count == len(g.items) {
		if !g.sizable {
			return -1, fmt.Errorf("population: group add: %w", gaerr.ErrFull)
		}
		g.growIfNeeded()
	}

	g.items[count] = p
	g.count.Store(int64(count + 1))
	g.mark(p)
	g.discardShuffleBackup()
	return count, nil
}

// AddAtomic appends p without any overflow check. It is safe to call
// concurrently from multiple branches as long as no other Group method
// runs concurrently with it (spec §4.3); every successful call returns a
// distinct index.
func (g *Group) AddAtomic(p *Storage) int {
	idx := g.count.Add(1) - 1
	g.items[idx] = p
	if g.membershipFlag != 0 {
		p.Flags().Set(g.membershipFlag)
	}
	return int(idx)
}

// AddSorted inserts p maintaining order under criteria (spec §4.3).
//
// If the group is full and sizable, it grows before inserting. If full and
// fixed-size, p is compared to the last element under criteria: a p that is
// no better than last is rejected; otherwise last is evicted and p is
// inserted in sorted position. Elements within [0, topLimit) are protected
// from eviction.
func (g *Group) AddSorted(p *Storage, criteria Criteria, topLimit int) (bool, error) {
	if len(g.items) == 0 && !g.sizable {
		return false, fmt.Errorf("population: group addsorted: cannot store chromosomes in zero-size group: %w", gaerr.ErrInvalidOperation)
	}
	if topLimit < 0 || (!g.sizable && topLimit > len(g.items)) {
		return false, fmt.Errorf("population: group addsorted: topLimit %d out of range: %w", topLimit, gaerr.ErrArgumentOutOfRange)
	}
	count := int(g.count.Load())
	if g.isMember(p) {
		return false, nil
	}

	if count == len(g.items) {
		if g.sizable {
			g.growIfNeeded()
		} else if count > 0 {
			if count-1 < topLimit {
				// the last element is protected by topLimit; nothing may be evicted.
				return false, nil
			}
			last := g.items[count-1]
			if criteria.Compare(last, p) >= 0 {
				// last is at least as good as the candidate; reject it.
				return false, nil
			}
			g.unmark(last)
			g.items[count-1] = nil
			count--
		}
	}

	last := count - 1
	for last >= topLimit && criteria.Compare(g.items[last], p) < 0 {
		g.items[last+1] = g.items[last]
		last--
	}
	g.items[last+1] = p
	count++
	g.count.Store(int64(count))
	g.mark(p)
	g.discardShuffleBackup()
	return true, nil
}

// Remove removes the given storage from the group. It returns false if p is
// not found. When the group's recycle policy is on and dontRecycle is
// false, the removed storage returns to the owning population's pool.
func (g *Group) Remove(p *Storage, dontRecycle bool) bool {
	count := int(g.count.Load())
	for i := 0; i < count; i++ {
		if g.items[i] == p {
			g.removeAt(i, dontRecycle)
			return true
		}
	}
	return false
}

// RemoveAt removes the chromosome at the given index from the group.
func (g *Group) RemoveAt(index int, dontRecycle bool) error {
	count := int(g.count.Load())
	if index < 0 || index >= count {
		return fmt.Errorf("population: group removeat: index %d out of range: %w", index, gaerr.ErrArgumentOutOfRange)
	}
	g.removeAt(index, dontRecycle)
	return nil
}

// removeAt implements fill-gap removal: the last element is moved into the
// removed slot, so order is not preserved beyond what Sort enforces.
func (g *Group) removeAt(index int, dontRecycle bool) {
	count := int(g.count.Load())
	p := g.items[index]
	last := count - 1
	g.items[index] = g.items[last]
	g.items[last] = nil
	g.count.Store(int64(last))
	g.discardShuffleBackup()

	g.unmark(p)
	if g.recycleOnRemove && !dontRecycle && g.recycler != nil {
		g.recycler.Recycle(p)
	}
}

// RemoveLast removes the last chromosome in the group without consulting
// the group's recycle policy (spec §9's "remove without-args" resolved as
// remove-last-and-do-not-recycle, per the Open Question). It returns nil if
// the group is empty.
func (g *Group) RemoveLast() *Storage {
	return g.PopLast(true)
}

// Trim removes chromosomes at the bottom of the group until newCount remain.
func (g *Group) Trim(newCount int, dontRecycle bool) error {
	if newCount < 0 {
		return fmt.Errorf("population: group trim: negative newCount: %w", gaerr.ErrArgumentOutOfRange)
	}
	count := int(g.count.Load())
	for count > newCount {
		count--
		p := g.items[count]
		g.items[count] = nil
		g.unmark(p)
		if g.recycleOnRemove && !dontRecycle && g.recycler != nil {
			g.recycler.Recycle(p)
		}
	}
	g.count.Store(int64(count))
	g.discardShuffleBackup()
	return nil
}

// PopLast removes and returns the last chromosome in the group, or nil if
// the group is empty or the storage was recycled.
func (g *Group) PopLast(dontRecycle bool) *Storage {
	count := int(g.count.Load())
	if count == 0 {
		return nil
	}
	count--
	p := g.items[count]
	g.items[count] = nil
	g.count.Store(int64(count))
	g.discardShuffleBackup()
	g.unmark(p)

	if g.recycleOnRemove && !dontRecycle && g.recycler != nil {
		g.recycler.Recycle(p)
		return nil
	}
	return p
}

// Clear removes every chromosome from the group.
func (g *Group) Clear(dontRecycle bool) {
	count := int(g.count.Load())
	for i := 0; i < count; i++ {
		p := g.items[i]
		g.items[i] = nil
		g.unmark(p)
		if g.recycleOnRemove && !dontRecycle && g.recycler != nil {
			g.recycler.Recycle(p)
		}
	}
	g.count.Store(0)
	g.discardShuffleBackup()
}

// SetSize sets a new capacity for a fixed-size group. Chromosomes that no
// longer fit are removed from the group (without recycling, matching the
// teacher's resize-on-reconfigure behavior).
func (g *Group) SetSize(size int) error {
	if size < 0 {
		return fmt.Errorf("population: group setsize: negative size: %w", gaerr.ErrArgumentOutOfRange)
	}
	if g.sizable {
		return fmt.Errorf("population: group setsize: group is sizable: %w", gaerr.ErrInvalidOperation)
	}
	count := int(g.count.Load())
	for count > size {
		count--
		p := g.items[count]
		g.items[count] = nil
		g.unmark(p)
	}
	bigger := make([]*Storage, size)
	copy(bigger, g.items[:count])
	g.items = bigger
	g.count.Store(int64(count))
	g.discardShuffleBackup()
	return nil
}

// Sort stably sorts the group's members under criteria using merge sort,
// invalidating any outstanding shuffle backup.
func (g *Group) Sort(criteria Criteria) {
	count := int(g.count.Load())
	mergeSort(g.items[:count], criteria)
	g.discardShuffleBackup()
}

// Shuffle randomly reorders the group's members via Fisher-Yates. When
// backup is true, the pre-shuffle ordering is snapshotted and recoverable
// until the next structural mutation.
func (g *Group) Shuffle(backup bool, gen *rng.Generator) {
	count := int(g.count.Load())
	if backup {
		g.shuffleBackup = append(g.shuffleBackup[:0], g.items[:count]...)
		g.hasBackup = true
	} else {
		g.hasBackup = false
	}

	gen.Shuffle(count, func(i, j int) {
		g.items[i], g.items[j] = g.items[j], g.items[i]
	})
}

// RestoreShuffle restores the ordering saved by the most recent
// Shuffle(backup=true) call. It fails with gaerr.ErrInvalidOperation if no
// valid backup exists.
func (g *Group) RestoreShuffle() error {
	if !g.hasBackup {
		return fmt.Errorf("population: group restoreshuffle: no backup available: %w", gaerr.ErrInvalidOperation)
	}
	copy(g.items, g.shuffleBackup)
	g.hasBackup = false
	return nil
}

func (g *Group) discardShuffleBackup() { g.hasBackup = false }

// mergeSort performs a stable merge sort over items using criteria, scoring
// higher (criteria.Compare(a,b) > 0 meaning a is better) first.
func mergeSort(items []*Storage, criteria Criteria) {
	n := len(items)
	if n < 2 {
		return
	}
	buf := make([]*Storage, n)
	width := 1
	for width < n {
		for i := 0; i < n; i += 2 * width {
			mid := min(i+width, n)
			high := min(i+2*width, n)
			merge(items, buf, i, mid, high, criteria)
		}
		width *= 2
	}
}

func merge(items, buf []*Storage, lo, mid, hi int, criteria Criteria) {
	copy(buf[lo:hi], items[lo:hi])
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		// descending by "better" ranking: better items come first.
		if criteria.Compare(buf[i], buf[j]) >= 0 {
			items[k] = buf[i]
			i++
		} else {
			items[k] = buf[j]
			j++
		}
		k++
	}
	for i < mid {
		items[k] = buf[i]
		i++
		k++
	}
	for j < hi {
		items[k] = buf[j]
		j++
		k++
	}
}
