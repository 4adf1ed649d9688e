package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/population"
)

func TestIndividualFitnessEvaluatesAndWritesRaw(t *testing.T) {
	pop := newTestPopulation(1)
	s := pop.NewStorage(&intChromosome{v: 7})

	f := IndividualFitness{Fn: func(c chromosome.Chromosome) []float64 {
		return []float64{float64(c.(*intChromosome).v) * 2}
	}}

	assert.True(t, f.AllowsIndividualEvaluation())
	f.EvaluatePopulation([]*population.Storage{s})

	raw, ok := s.RawFitness()
	assert.True(t, ok)
	assert.Equal(t, []float64{14}, raw)
}

func TestPopulationFitnessDisallowsIndividualEvaluation(t *testing.T) {
	var batchSizes int
	f := PopulationFitness{Fn: func(storages []*population.Storage) {
		batchSizes = len(storages)
		for _, s := range storages {
			s.SetRawFitness([]float64{1})
		}
	}}

	assert.False(t, f.AllowsIndividualEvaluation())

	pop := newTestPopulation(3)
	storages := []*population.Storage{
		pop.NewStorage(&intChromosome{v: 1}),
		pop.NewStorage(&intChromosome{v: 2}),
	}
	f.EvaluatePopulation(storages)
	assert.Equal(t, 2, batchSizes)
	for _, s := range storages {
		raw, ok := s.RawFitness()
		assert.True(t, ok)
		assert.Equal(t, []float64{1}, raw)
	}
}
