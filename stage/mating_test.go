package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/internal/rng"
)

func TestMateAlwaysCrossesWhenProbabilityIsOne(t *testing.T) {
	a := &intChromosome{v: 1}
	b := &intChromosome{v: 2}
	m := MatingConfiguration{Crossover: noopCrossover{}, CrossoverProbability: 1.0}

	offspring := m.Mate(a, b, rng.NewSeeded(1))
	require.Len(t, offspring, 2)
	assert.Equal(t, 1, offspring[0].(*intChromosome).v)
	assert.Equal(t, 2, offspring[1].(*intChromosome).v)
}

func TestMateSkipsCrossoverWhenProbabilityIsZero(t *testing.T) {
	a := &intChromosome{v: 1}
	b := &intChromosome{v: 2}
	m := MatingConfiguration{Crossover: noopCrossover{}, CrossoverProbability: 0.0}

	offspring := m.Mate(a, b, rng.NewSeeded(1))
	require.Len(t, offspring, 2)
	// with probability 0, offspring are direct clones of the parents, same
	// as noopCrossover would have produced — values equal either way.
	assert.Equal(t, 1, offspring[0].(*intChromosome).v)
	assert.Equal(t, 2, offspring[1].(*intChromosome).v)
}

func TestMateAppliesMutationWhenProbabilityIsOne(t *testing.T) {
	a := &intChromosome{v: 1}
	b := &intChromosome{v: 2}
	m := MatingConfiguration{
		Crossover:            noopCrossover{},
		CrossoverProbability: 1.0,
		Mutation:             incrementMutation{},
		MutationProbability:  1.0,
	}

	offspring := m.Mate(a, b, rng.NewSeeded(1))
	assert.Equal(t, 2, offspring[0].(*intChromosome).v)
	assert.Equal(t, 3, offspring[1].(*intChromosome).v)
}

func TestMateImprovingOnlyAcceptsBetterMutation(t *testing.T) {
	a := &intChromosome{v: 1}
	b := &intChromosome{v: 2}
	m := MatingConfiguration{
		Crossover:            noopCrossover{},
		CrossoverProbability: 1.0,
		Mutation:             incrementMutation{}, // always improves under chromComparator
		MutationProbability:  1.0,
		ImprovingOnly:        true,
		Comparator:           chromComparator{},
	}

	offspring := m.Mate(a, b, rng.NewSeeded(1))
	child := offspring[0].(*intChromosome)
	assert.Equal(t, 2, child.v)
	assert.Equal(t, []chromosome.MutationEvent{chromosome.MutationPrepare, chromosome.MutationAccept}, child.events)
}

func TestMateImprovingOnlyRejectsAndRollsBackWorseMutation(t *testing.T) {
	a := &intChromosome{v: 1}
	b := &intChromosome{v: 2}
	m := MatingConfiguration{
		Crossover:            noopCrossover{},
		CrossoverProbability: 1.0,
		Mutation:             decrementMutation{}, // always worsens under chromComparator
		MutationProbability:  1.0,
		ImprovingOnly:        true,
		Comparator:           chromComparator{},
	}

	offspring := m.Mate(a, b, rng.NewSeeded(1))
	child := offspring[0].(*intChromosome)
	assert.Equal(t, 1, child.v, "rejected mutation must roll back to the pre-mutation value")
	assert.Equal(t, []chromosome.MutationEvent{chromosome.MutationPrepare, chromosome.MutationReject}, child.events)
}
