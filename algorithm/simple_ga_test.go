package algorithm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/population"
	"github.com/aram/genflow/stage"
)

type intChromosome struct{ v int }

func (c *intChromosome) Clone() chromosome.Chromosome        { return &intChromosome{v: c.v} }
func (c *intChromosome) ConfigBlock() chromosome.ConfigBlock { return nil }
func (c *intChromosome) MutationEvent(chromosome.MutationEvent) {}

type byValue struct{}

func (byValue) Compare(a, b *population.Storage) int {
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
func (byValue) Clone() population.Criteria { return byValue{} }

func newTestPop(capacity int) *population.Population {
	return population.New(population.Config{MainCapacity: capacity, FitnessArity: 1, PoolMaxSize: 32})
}

func sequentialGenerator() population.Generator {
	n := 0
	return population.GeneratorFunc(func() chromosome.Chromosome {
		n++
		return &intChromosome{v: n}
	})
}

func fitnessByValue() stage.FitnessOperation {
	return stage.IndividualFitness{Fn: func(c chromosome.Chromosome) []float64 {
		return []float64{float64(c.(*intChromosome).v)}
	}}
}

func TestSimpleGAStubConnectRejectsMissingOperators(t *testing.T) {
	s := NewSimpleGAStub(newTestPop(4), sequentialGenerator())
	err := s.Connect(2)
	require.Error(t, err)
}

func TestSimpleGAStubConnectTwiceFails(t *testing.T) {
	s := NewSimpleGAStub(newTestPop(4), sequentialGenerator())
	s.SetFitness(fitnessByValue())
	s.SetSelection(stage.TopNSelector{}, stage.SelectionParams{SelectionSize: 2, CrossoverBuffersTagID: -1, Comparator: byValue{}})
	s.SetCoupling(stage.CouplingOperation{
		Indexer: stage.SimplePairIndexer{},
		Mating:  stage.MatingConfiguration{CrossoverProbability: 0},
	})
	s.SetReplacement(stage.WorstReplacement{}, stage.ReplacementParams{Comparator: byValue{}})

	require.NoError(t, s.Connect(2))
	assert.True(t, s.Connected())
	err := s.Connect(2)
	assert.Error(t, err)
}

func TestSimpleGAStubRunOneGenerationInitializesThenAdvances(t *testing.T) {
	pop := newTestPop(4)
	s := NewSimpleGAStub(pop, sequentialGenerator())
	s.SetSeed(1)
	s.SetFitness(fitnessByValue())
	s.SetSelection(stage.TopNSelector{}, stage.SelectionParams{SelectionSize: 2, CrossoverBuffersTagID: -1, Comparator: byValue{}})
	s.SetCoupling(stage.CouplingOperation{
		Indexer: stage.SimplePairIndexer{},
		Mating:  stage.MatingConfiguration{CrossoverProbability: 0},
	})
	s.SetReplacement(stage.WorstReplacement{}, stage.ReplacementParams{Comparator: byValue{}})

	require.NoError(t, s.Connect(2))

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, population.StateInitialized, pop.State())
	assert.Equal(t, 1, pop.Generation())
	assert.Equal(t, 4, pop.Main().Count())

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 2, pop.Generation())
}

func TestSimpleGAStubPopulationSizeTracksCapacityAfterFirstGeneration(t *testing.T) {
	// Spec scenario 1: capacity 8, initialize with 8 distinct chromosomes,
	// expect current=8, peak=8 once the first Run closes generation 0.
	pop := newTestPop(8)
	s := NewSimpleGAStub(pop, sequentialGenerator())
	s.SetFitness(fitnessByValue())
	s.SetSelection(stage.TopNSelector{}, stage.SelectionParams{SelectionSize: 2, CrossoverBuffersTagID: -1, Comparator: byValue{}})
	s.SetCoupling(stage.CouplingOperation{
		Indexer: stage.SimplePairIndexer{},
		Mating:  stage.MatingConfiguration{CrossoverProbability: 0},
	})
	s.SetReplacement(stage.WorstReplacement{}, stage.ReplacementParams{Comparator: byValue{}})

	require.NoError(t, s.Connect(2))
	require.NoError(t, s.Run(context.Background()))

	current, peak := s.PopulationSize()
	assert.Equal(t, 8, current)
	assert.Equal(t, 8, peak)
}

func TestSimpleGAStubDisconnectAllowsReconnect(t *testing.T) {
	pop := newTestPop(4)
	s := NewSimpleGAStub(pop, sequentialGenerator())
	s.SetFitness(fitnessByValue())
	s.SetSelection(stage.TopNSelector{}, stage.SelectionParams{SelectionSize: 2, CrossoverBuffersTagID: -1, Comparator: byValue{}})
	s.SetCoupling(stage.CouplingOperation{
		Indexer: stage.SimplePairIndexer{},
		Mating:  stage.MatingConfiguration{CrossoverProbability: 0},
	})
	s.SetReplacement(stage.WorstReplacement{}, stage.ReplacementParams{Comparator: byValue{}})

	require.NoError(t, s.Connect(2))
	require.NoError(t, s.Disconnect())
	assert.False(t, s.Connected())
	require.NoError(t, s.Connect(3))
	assert.Equal(t, 3, s.BranchCount())
}

func TestSimpleGAStubDescribeReflectsWiredStages(t *testing.T) {
	pop := newTestPop(4)
	s := NewSimpleGAStub(pop, sequentialGenerator())
	s.SetFitness(fitnessByValue())
	s.SetSelection(stage.TopNSelector{}, stage.SelectionParams{SelectionSize: 2, CrossoverBuffersTagID: -1, Comparator: byValue{}})
	s.SetCoupling(stage.CouplingOperation{
		Indexer: stage.SimplePairIndexer{},
		Mating:  stage.MatingConfiguration{CrossoverProbability: 0},
	})
	s.SetReplacement(stage.WorstReplacement{}, stage.ReplacementParams{Comparator: byValue{}})
	s.SetSort(byValue{})

	_, err := s.Describe()
	require.Error(t, err)

	require.NoError(t, s.Connect(2))
	desc, err := s.Describe()
	require.NoError(t, err)
	assert.Contains(t, desc, "couple")
	assert.Contains(t, desc, "sort")
	assert.NotContains(t, desc, "evaluate-fitness")
}

func TestSimpleGAStubWithoutCouplingFeedsSelectionDirectlyToReplacement(t *testing.T) {
	pop := newTestPop(4)
	s := NewSimpleGAStub(pop, sequentialGenerator())
	s.SetFitness(fitnessByValue())
	s.SetSelection(stage.BottomNSelector{}, stage.SelectionParams{SelectionSize: 2, CrossoverBuffersTagID: 0, Comparator: byValue{}})
	s.SetReplacement(stage.CrowdingReplacement{}, stage.ReplacementParams{})

	// trackers run before NextGeneration drains crowding into main, so this
	// one sees what replacement staged there.
	var staged int
	require.NoError(t, pop.RegisterTracker(1, population.TrackerFunc(func(p *population.Population, _ int) {
		staged = p.Crowding().Count()
	})))

	require.NoError(t, s.Connect(2))
	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 2, staged)
	assert.True(t, pop.Crowding().IsEmpty())
}

func TestSimpleGAStubWithScalingAndSortRunsCleanly(t *testing.T) {
	pop := newTestPop(4)
	s := NewSimpleGAStub(pop, sequentialGenerator())
	s.SetFitness(fitnessByValue())
	s.SetSelection(stage.TopNSelector{}, stage.SelectionParams{SelectionSize: 2, CrossoverBuffersTagID: -1, Comparator: byValue{}})
	s.SetCoupling(stage.CouplingOperation{
		Indexer: stage.SimplePairIndexer{},
		Mating:  stage.MatingConfiguration{CrossoverProbability: 0},
	})
	s.SetReplacement(stage.WorstReplacement{}, stage.ReplacementParams{Comparator: byValue{}})
	s.SetScaling(stage.IdentityScaling{FitnessArity: 1})
	s.SetSort(byValue{})

	require.NoError(t, s.Connect(3))
	require.NoError(t, s.Run(context.Background()))

	items := pop.Main().Items()
	for i := 1; i < len(items); i++ {
		prev, _ := items[i-1].ScaledFitness()
		cur, _ := items[i].ScaledFitness()
		assert.GreaterOrEqual(t, prev[0], cur[0])
	}
}
