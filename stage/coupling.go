package stage

import (
	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/internal/rng"
	"github.com/aram/genflow/population"
)

// Pair is a mating tuple produced by a PairIndexer (spec §4.8, Coupling).
type Pair struct {
	A, B *population.Storage
}

// PairIndexer turns a flat list of selected parents into mating pairs.
type PairIndexer interface {
	Pairs(parents []*population.Storage, gen *rng.Generator) []Pair
}

// SimplePairIndexer pairs (i, i+1) mod N.
type SimplePairIndexer struct{}

func (SimplePairIndexer) Pairs(parents []*population.Storage, gen *rng.Generator) []Pair {
	return simplePairs(parents)
}

func simplePairs(parents []*population.Storage) []Pair {
	n := len(parents)
	if n == 0 {
		return nil
	}
	pairs := make([]Pair, n)
	for i := range parents {
		pairs[i] = Pair{A: parents[i], B: parents[(i+1)%n]}
	}
	return pairs
}

// InversePairIndexer pairs best-worst, second-best-second-worst, etc, under
// Comparator (spec §4.8's Inverse coupling variant). parents is assumed
// already ordered best-to-worst by the preceding selection stage; if not,
// set Comparator to have InversePairIndexer sort first.
type InversePairIndexer struct {
	Comparator chromosome.Comparator[*population.Storage]
}

func (ix InversePairIndexer) Pairs(parents []*population.Storage, gen *rng.Generator) []Pair {
	ordered := parents
	if ix.Comparator != nil {
		ordered = make([]*population.Storage, len(parents))
		copy(ordered, parents)
		sortByComparator(ordered, ix.Comparator)
	}
	n := len(ordered)
	pairs := make([]Pair, 0, (n+1)/2)
	for i, j := 0, n-1; i <= j; i, j = i+1, j-1 {
		pairs = append(pairs, Pair{A: ordered[i], B: ordered[j]})
	}
	return pairs
}

func sortByComparator(s []*population.Storage, cmp chromosome.Comparator[*population.Storage]) {
	// insertion sort: coupling groups are small (selection_size), and this
	// keeps ties in their incoming order, matching the group's own stable
	// merge sort convention.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && cmp.Compare(s[j-1], s[j]) < 0; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// RandomPairIndexer shuffles the parents, then applies Simple pairing.
type RandomPairIndexer struct{}

func (RandomPairIndexer) Pairs(parents []*population.Storage, gen *rng.Generator) []Pair {
	shuffled := make([]*population.Storage, len(parents))
	copy(shuffled, parents)
	gen.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return simplePairs(shuffled)
}

// CellularPairIndexer pairs each parent with a neighbor chosen by an
// external topology function (spec §4.8's Cellular variant: "topological
// neighbourhood (external)").
type CellularPairIndexer struct {
	Neighbor func(parents []*population.Storage, i int, gen *rng.Generator) int
}

func (ix CellularPairIndexer) Pairs(parents []*population.Storage, gen *rng.Generator) []Pair {
	pairs := make([]Pair, len(parents))
	for i := range parents {
		j := ix.Neighbor(parents, i, gen)
		pairs[i] = Pair{A: parents[i], B: parents[j]}
	}
	return pairs
}

// CouplingOperation pairs selection output and invokes mating to produce
// offspring chromosomes, wrapped into fresh Storage values via pop
// (spec §4.8, Coupling).
type CouplingOperation struct {
	Indexer PairIndexer
	Mating  MatingConfiguration
}

// Couple produces one Storage per offspring chromosome Mate returns for
// every pair Indexer computes from parents.
func (c CouplingOperation) Couple(pop *population.Population, parents []*population.Storage, gen *rng.Generator) []*population.Storage {
	pairs := c.Indexer.Pairs(parents, gen)
	offspring := make([]*population.Storage, 0, len(pairs)*2)
	for _, p := range pairs {
		children := c.Mating.Mate(p.A.Chromosome(), p.B.Chromosome(), gen)
		for _, child := range children {
			offspring = append(offspring, pop.NewStorage(child))
		}
	}
	return offspring
}
