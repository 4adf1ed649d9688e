package stage

import (
	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/internal/rng"
	"github.com/aram/genflow/population"
)

// noopCrossover clones both parents unchanged, for tests that only care
// about pairing/offspring-count behavior rather than gene recombination.
type noopCrossover struct{}

func (noopCrossover) Cross(a, b chromosome.Chromosome, gen *rng.Generator) []chromosome.Chromosome {
	return []chromosome.Chromosome{a.Clone(), b.Clone()}
}

// incrementMutation always increments the gene by 1.
type incrementMutation struct{}

func (incrementMutation) Mutate(c chromosome.Chromosome, gen *rng.Generator) {
	c.(*intChromosome).v++
}

// decrementMutation always decrements the gene by 1 (used to exercise
// improving-only rejection, since higher is "better" in these tests).
type decrementMutation struct{}

func (decrementMutation) Mutate(c chromosome.Chromosome, gen *rng.Generator) {
	c.(*intChromosome).v--
}

// chromComparator compares two raw *intChromosome values by their gene.
type chromComparator struct{}

func (chromComparator) Compare(a, b chromosome.Chromosome) int {
	av, bv := a.(*intChromosome).v, b.(*intChromosome).v
	switch {
	case av > bv:
		return 1
	case av < bv:
		return -1
	default:
		return 0
	}
}

// intChromosome is a minimal Chromosome for stage tests: a single mutable
// integer gene.
type intChromosome struct {
	v      int
	events []chromosome.MutationEvent
}

func (c *intChromosome) Clone() chromosome.Chromosome {
	return &intChromosome{v: c.v}
}
func (c *intChromosome) ConfigBlock() chromosome.ConfigBlock { return testConfigBlock{} }
func (c *intChromosome) MutationEvent(e chromosome.MutationEvent) {
	c.events = append(c.events, e)
}
func (c *intChromosome) RollbackTo(prev chromosome.Chromosome) {
	c.v = prev.(*intChromosome).v
}

type testConfigBlock struct{}

func (testConfigBlock) RepresentationName() string { return "int" }

// fitnessByValueComparator compares storages by their raw fitness[0],
// higher is better.
type fitnessByValueComparator struct{}

func (fitnessByValueComparator) Compare(a, b *population.Storage) int {
	av, _ := a.RawFitness()
	bv, _ := b.RawFitness()
	switch {
	case av[0] > bv[0]:
		return 1
	case av[0] < bv[0]:
		return -1
	default:
		return 0
	}
}

func newTestPopulation(mainCapacity int) *population.Population {
	return population.New(population.Config{
		MainCapacity: mainCapacity,
		FitnessArity: 1,
		PoolMaxSize:  32,
		ConfigBlock:  testConfigBlock{},
	})
}

// fillMain adds n storages to pop's main group, with raw fitness equal to
// their insertion index (0, 1, 2, ...).
func fillMain(pop *population.Population, n int) []*population.Storage {
	out := make([]*population.Storage, n)
	for i := 0; i < n; i++ {
		s := pop.NewStorage(&intChromosome{v: i})
		s.SetRawFitness([]float64{float64(i)})
		pop.Main().Add(s)
		out[i] = s
	}
	return out
}
