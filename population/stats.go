package population

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aram/genflow/gaerr"
)

// StatID names a counter or timer slot in a population's Statistics (spec
// §3, §4.9). Ids below statReservedEnd are reserved for framework-tracked
// counters; user code registers its own ids above that boundary.
type StatID int

const (
	// StatSelections counts selection operations performed this generation.
	StatSelections StatID = iota
	// StatMatings counts mating operations performed this generation.
	StatMatings
	// StatCrossovers counts crossovers performed this generation.
	StatCrossovers
	// StatMutationsAttempted counts mutation attempts this generation.
	StatMutationsAttempted
	// StatMutationsAccepted counts mutations kept this generation.
	StatMutationsAccepted

	// StatSelectionTime accumulates wall time spent in selection.
	StatSelectionTime
	// StatCouplingTime accumulates wall time spent in coupling.
	StatCouplingTime
	// StatReplacementTime accumulates wall time spent in replacement.
	StatReplacementTime

	statReservedEnd
)

// FirstUserStatID is the lowest id available to caller-defined counters and
// timers; ids below it collide with the framework's reserved slots.
const FirstUserStatID = int(statReservedEnd)

// Statistics is a keyed set of per-generation counters and timers (spec
// §3). Values are safe to read concurrently with writes from a single
// writer; the scheduler is responsible for funneling per-branch updates
// through its aggregation barrier before readers observe them (spec §4.9's
// "read-only during a generation's execution except via the aggregation
// barrier").
type Statistics struct {
	mu     sync.RWMutex
	counts map[int]int64
	timers map[int]time.Duration
}

// NewStatistics creates an empty statistics block.
func NewStatistics() *Statistics {
	return &Statistics{
		counts: make(map[int]int64),
		timers: make(map[int]time.Duration),
	}
}

// IncrCounter adds delta to the counter registered under id.
func (s *Statistics) IncrCounter(id StatID, delta int64) {
	s.mu.Lock()
	s.counts[int(id)] += delta
	s.mu.Unlock()
}

// Counter returns the current value of the counter registered under id.
func (s *Statistics) Counter(id StatID) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[int(id)]
}

// AddTimer accumulates d into the timer registered under id.
func (s *Statistics) AddTimer(id StatID, d time.Duration) {
	s.mu.Lock()
	s.timers[int(id)] += d
	s.mu.Unlock()
}

// Timer returns the accumulated duration for the timer registered under id.
func (s *Statistics) Timer(id StatID) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timers[int(id)]
}

// Reset zeroes every counter and timer, called at the start of a generation.
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.counts {
		s.counts[k] = 0
	}
	for k := range s.timers {
		s.timers[k] = 0
	}
}

// Tracker observes a population once per generation (spec §4.4, §4.9). A
// tracker is stateful: it may accumulate history across Update calls.
type Tracker interface {
	// Update is invoked exactly once per generation with the current
	// population snapshot and the zero-based generation index.
	Update(pop *Population, generation int)
}

// TrackerFunc adapts a function to Tracker.
type TrackerFunc func(pop *Population, generation int)

// Update implements Tracker.
func (f TrackerFunc) Update(pop *Population, generation int) { f(pop, generation) }

// trackerRegistry dispatches Update to every registered tracker exactly
// once per generation, in ascending id order so dispatch order is
// deterministic across runs (spec §4.9 P3).
type trackerRegistry struct {
	mu       sync.Mutex
	trackers map[int]Tracker
}

func newTrackerRegistry() *trackerRegistry {
	return &trackerRegistry{trackers: make(map[int]Tracker)}
}

// register adds a tracker under id. Re-registering an id replaces the
// existing tracker, matching the teacher's "last setter wins" config style.
func (r *trackerRegistry) register(id int, t Tracker) error {
	if t == nil {
		return fmt.Errorf("population: register tracker %d: %w", id, gaerr.ErrNullArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trackers[id] = t
	return nil
}

func (r *trackerRegistry) unregister(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.trackers, id)
}

func (r *trackerRegistry) dispatch(pop *Population, generation int) {
	r.mu.Lock()
	ids := make([]int, 0, len(r.trackers))
	for id := range r.trackers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	snapshot := make([]Tracker, len(ids))
	for i, id := range ids {
		snapshot[i] = r.trackers[id]
	}
	r.mu.Unlock()

	for _, t := range snapshot {
		t.Update(pop, generation)
	}
}

// SizeTrackerID is the tracker id a caller registers a PopulationSizeTracker
// under. Tracker ids and StatIDs are separate registries, so it does not
// clash with FirstUserStatID's numbering; it is positive, so it never
// collides with a stub's own internal trackers (spec §4.9's statsTrackerID),
// whose ids are negative.
const SizeTrackerID = 1

// PopulationSizeTracker observes the main group's count once per generation
// and keeps the current and highest-ever-seen values (spec §8 scenario 1,
// grounded on the original's Population::GaPopulationSizeTracker, registered
// via RegisterTracker the same way a stub registers its own log tracker).
type PopulationSizeTracker struct {
	mu      sync.Mutex
	current int
	peak    int
}

// NewPopulationSizeTracker creates a tracker with current and peak both zero.
func NewPopulationSizeTracker() *PopulationSizeTracker {
	return &PopulationSizeTracker{}
}

// Update implements Tracker: records the main group's count as of this
// generation boundary and raises peak if it is a new high.
func (t *PopulationSizeTracker) Update(pop *Population, generation int) {
	n := pop.Main().Count()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = n
	if n > t.peak {
		t.peak = n
	}
}

// Current returns the main group's count as of the tracker's last Update.
func (t *PopulationSizeTracker) Current() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Peak returns the highest count Update has observed.
func (t *PopulationSizeTracker) Peak() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peak
}
