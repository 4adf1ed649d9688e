package population

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/gaerr"
)

func newTestPopulation(capacity int) *Population {
	return New(Config{MainCapacity: capacity, FitnessArity: 1, PoolMaxSize: 16})
}

func TestPopulationInitializeFillsMainGroup(t *testing.T) {
	p := newTestPopulation(5)
	next := 0
	gen := GeneratorFunc(func() chromosome.Chromosome {
		next++
		return &fakeChromosome{id: next}
	})
	eval := FitnessEvaluatorFunc(func(c chromosome.Chromosome) []float64 {
		return []float64{float64(c.(*fakeChromosome).id)}
	})

	require.NoError(t, p.Initialize(gen, eval))
	assert.Equal(t, 5, p.Main().Count())
	assert.Equal(t, StateInitialized, p.State())

	raw, defined := p.Main().At(0).RawFitness()
	require.True(t, defined)
	assert.Equal(t, []float64{1}, raw)
}

func TestPopulationInitializeTwiceFails(t *testing.T) {
	p := newTestPopulation(1)
	gen := GeneratorFunc(func() chromosome.Chromosome { return &fakeChromosome{id: 1} })

	require.NoError(t, p.Initialize(gen, nil))
	err := p.Initialize(gen, nil)
	assert.ErrorIs(t, err, gaerr.ErrInvalidOperation)
}

func TestPopulationNextGenerationDrainsCrowdingIntoMain(t *testing.T) {
	p := newTestPopulation(2)
	gen := GeneratorFunc(func() chromosome.Chromosome { return &fakeChromosome{id: 1} })
	require.NoError(t, p.Initialize(gen, nil))

	// simulate replacement freeing one main slot for an offspring staged in
	// crowding.
	victim := p.Main().At(0)
	require.True(t, p.Main().Remove(victim, true))

	offspring := p.NewStorage(&fakeChromosome{id: 99})
	_, err := p.Crowding().Add(offspring)
	require.NoError(t, err)

	p.NextGeneration()

	assert.Equal(t, 2, p.Main().Count())
	assert.True(t, p.Crowding().IsEmpty())
	assert.Equal(t, 1, p.Generation())
}

func TestPopulationNextGenerationDispatchesTrackersExactlyOnce(t *testing.T) {
	p := newTestPopulation(1)
	gen := GeneratorFunc(func() chromosome.Chromosome { return &fakeChromosome{id: 1} })
	require.NoError(t, p.Initialize(gen, nil))

	calls := 0
	require.NoError(t, p.RegisterTracker(1, TrackerFunc(func(*Population, int) { calls++ })))

	p.NextGeneration()
	p.NextGeneration()

	assert.Equal(t, 2, calls)
}

func TestPopulationRegisterTagIdempotentAcrossEqualType(t *testing.T) {
	p := newTestPopulation(1)
	require.NoError(t, p.RegisterTag(1, 0, nil))
	require.NoError(t, p.RegisterTag(1, 0, nil))
}
