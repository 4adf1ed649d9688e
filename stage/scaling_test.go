package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aram/genflow/population"
)

func TestIdentityScalingCopiesRawToScaled(t *testing.T) {
	pop := newTestPopulation(1)
	s := pop.NewStorage(&intChromosome{v: 1})
	s.SetRawFitness([]float64{3.5})

	IdentityScaling{FitnessArity: 1}.Scale(s)

	scaled, ok := s.ScaledFitness()
	assert.True(t, ok)
	assert.Equal(t, []float64{3.5}, scaled)
}

func TestIdentityScalingNoOpWithoutRawFitness(t *testing.T) {
	pop := newTestPopulation(1)
	s := pop.NewStorage(&intChromosome{v: 1})

	IdentityScaling{FitnessArity: 1}.Scale(s)

	_, ok := s.ScaledFitness()
	assert.False(t, ok)
}

func TestLinearScalingAppliesFactorAndOffset(t *testing.T) {
	pop := population.New(population.Config{
		MainCapacity: 1,
		FitnessArity: 2,
		PoolMaxSize:  32,
		ConfigBlock:  testConfigBlock{},
	})
	s := pop.NewStorage(&intChromosome{v: 1})
	s.SetRawFitness([]float64{2, 4})

	LinearScaling{FitnessArity: 2, Factor: 2, Offset: 1}.Scale(s)

	scaled, ok := s.ScaledFitness()
	assert.True(t, ok)
	assert.Equal(t, []float64{5, 9}, scaled)
}
