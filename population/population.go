// Package population implements the chromosome storage, chromosome group,
// and population container layers (spec §3, §4.2-§4.4): the part of the
// engine that holds chromosomes, tracks their fitness and tags, and
// dispatches per-generation statistics.
package population

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/gaerr"
)

// State tracks a population's lifecycle relative to Initialize.
type State int32

const (
	// StateCreated marks a population that has not been initialized yet.
	StateCreated State = iota
	// StateInitialized marks a population whose main group has been filled.
	StateInitialized
)

// FitnessEvaluator computes the raw fitness vector for a single chromosome
// (spec §4.4's "fitness operation in individual-evaluation mode"). Concrete
// fitness operations live outside this package (spec §1); the population
// only needs something that can be called per chromosome.
type FitnessEvaluator interface {
	Evaluate(c chromosome.Chromosome) []float64
}

// FitnessEvaluatorFunc adapts a function to FitnessEvaluator.
type FitnessEvaluatorFunc func(c chromosome.Chromosome) []float64

// Evaluate implements FitnessEvaluator.
func (f FitnessEvaluatorFunc) Evaluate(c chromosome.Chromosome) []float64 { return f(c) }

// Generator produces new chromosomes to fill a population's main group
// during Initialize.
type Generator interface {
	Generate() chromosome.Chromosome
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func() chromosome.Chromosome

// Generate implements Generator.
func (f GeneratorFunc) Generate() chromosome.Chromosome { return f() }

// Population owns a fixed-size main group and a sizable crowding area
// (offspring staging), a shared config block reference, a tag schema, an
// object pool, a statistics block and a tracker registry (spec §3, §4.4).
type Population struct {
	configBlock chromosome.ConfigBlock

	schema   *TagSchema
	pool     *Pool
	stats    *Statistics
	trackers *trackerRegistry

	main     *Group
	crowding *Group

	fitnessArity int
	state        atomic.Int32
	generation   atomic.Int64

	logger *zap.Logger

	mu sync.Mutex
}

// Config bundles the parameters Population needs to construct its groups
// and pool.
type Config struct {
	// MainCapacity is the fixed size of the main group.
	MainCapacity int
	// FitnessArity is the number of scalar values in every fitness vector.
	FitnessArity int
	// PoolMaxSize bounds the object pool's idle storage count.
	PoolMaxSize int
	// ConfigBlock is the shared, reference-counted representation config.
	ConfigBlock chromosome.ConfigBlock
	// TagSchema is the set of tags every storage carries; nil means none.
	TagSchema *TagSchema
	// Logger receives initialization and generation-boundary logs. A nil
	// Logger (the default) discards them.
	Logger *zap.Logger
}

const mainMembershipFlag uint32 = 1 << 0

// New creates a population from cfg. The main group starts empty and fixed
// at cfg.MainCapacity; the crowding area starts empty and grows on demand.
func New(cfg Config) *Population {
	schema := cfg.TagSchema
	if schema == nil {
		schema = NewTagSchema()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Population{
		configBlock:  cfg.ConfigBlock,
		schema:       schema,
		fitnessArity: cfg.FitnessArity,
		stats:        NewStatistics(),
		trackers:     newTrackerRegistry(),
		logger:       logger,
	}
	p.pool = NewPool(cfg.PoolMaxSize, cfg.FitnessArity, schema)
	p.main = NewGroup(false, cfg.MainCapacity, mainMembershipFlag, p.pool, true)
	p.crowding = NewGroup(true, 0, mainMembershipFlag<<1, p.pool, true)
	return p
}

// Main returns the population's fixed-size main group.
func (p *Population) Main() *Group { return p.main }

// Crowding returns the population's offspring staging group.
func (p *Population) Crowding() *Group { return p.crowding }

// Pool returns the population's object pool.
func (p *Population) Pool() *Pool { return p.pool }

// Stats returns the population's statistics block.
func (p *Population) Stats() *Statistics { return p.stats }

// ConfigBlock returns the shared chromosome representation config.
func (p *Population) ConfigBlock() chromosome.ConfigBlock { return p.configBlock }

// TagSchema returns the population's tag schema.
func (p *Population) TagSchema() *TagSchema { return p.schema }

// Generation returns the current zero-based generation index.
func (p *Population) Generation() int { return int(p.generation.Load()) }

// State returns the population's lifecycle state.
func (p *Population) State() State { return State(p.state.Load()) }

// NewStorage wraps c in a storage allocated through the population's pool,
// sized for this population's fitness arity and tag schema.
func (p *Population) NewStorage(c chromosome.Chromosome) *Storage {
	return p.pool.Get(c)
}

// recycle returns s to this population's pool. Groups do not call it: they
// are given the pool itself as their Recycler.
func (p *Population) recycle(s *Storage) { p.pool.Recycle(s) }

// RegisterTag adds a tag to the population's schema; see TagSchema.Register
// for idempotency rules. It must be called before the first storage is
// allocated, or with an (id, type) pair identical to what is already
// registered (spec §4.4).
func (p *Population) RegisterTag(id int, def any, updater TagUpdater) error {
	return p.schema.Register(id, def, updater)
}

// RegisterTracker adds a stateful tracker under id, replacing any tracker
// previously registered under the same id.
func (p *Population) RegisterTracker(id int, t Tracker) error {
	return p.trackers.register(id, t)
}

// UnregisterTracker removes the tracker registered under id, if any.
func (p *Population) UnregisterTracker(id int) { p.trackers.unregister(id) }

// Initialize fills the main group to capacity using gen, evaluating raw
// fitness for each new chromosome through eval whenever eval is non-nil; a
// nil eval leaves raw fitness undefined. It fails with gaerr.ErrInvalidOperation if
// called more than once (spec §4.4: "mark the population INITIALIZED").
func (p *Population) Initialize(gen Generator, eval FitnessEvaluator) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() == StateInitialized {
		return fmt.Errorf("population: initialize: %w", gaerr.ErrInvalidOperation)
	}
	if gen == nil {
		return fmt.Errorf("population: initialize: %w", gaerr.ErrNullArgument)
	}

	for p.main.Count() < p.main.Capacity() {
		c := gen.Generate()
		s := p.NewStorage(c)
		if eval != nil {
			s.SetRawFitness(eval.Evaluate(c))
		}
		if _, err := p.main.Add(s); err != nil {
			return fmt.Errorf("population: initialize: %w", err)
		}
	}

	p.state.Store(int32(StateInitialized))
	p.logger.Info("population initialized", zap.Int("main_capacity", p.main.Capacity()))
	return nil
}

// NextGeneration is invoked at the tail of every generation flow (spec
// §4.4). It dispatches every registered tracker's Update exactly once,
// drains the crowding area into the main group (offspring that survived
// replacement but have not yet been promoted), advances the generation
// counter, and clears per-generation statistics.
func (p *Population) NextGeneration() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.trackers.dispatch(p, p.Generation())

	for !p.crowding.IsEmpty() {
		s := p.crowding.PopLast(true)
		if s == nil {
			break
		}
		if _, err := p.main.Add(s); err != nil {
			p.pool.Recycle(s)
		}
	}

	p.generation.Add(1)
	p.stats.Reset()
	p.logger.Debug("generation advanced", zap.Int64("generation", p.generation.Load()))
}
