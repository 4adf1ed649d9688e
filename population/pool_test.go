package population

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolGetAllocatesWhenEmpty(t *testing.T) {
	p := NewPool(4, 1, NewTagSchema())
	s := p.Get(&fakeChromosome{id: 1})
	require.NotNil(t, s)
	assert.Equal(t, 0, p.Len())
}

func TestPoolRecycleThenGetReusesStorage(t *testing.T) {
	p := NewPool(4, 1, NewTagSchema())
	s := p.Get(&fakeChromosome{id: 1})
	s.SetRawFitness([]float64{9})

	p.Recycle(s)
	assert.Equal(t, 1, p.Len())

	reused := p.Get(&fakeChromosome{id: 2})
	assert.Same(t, s, reused)
	_, defined := reused.RawFitness()
	assert.False(t, defined, "reset must clear raw fitness definedness")
	assert.Equal(t, 2, reused.Chromosome().(*fakeChromosome).id)
}

func TestPoolRecycleDropsBeyondMaxSize(t *testing.T) {
	p := NewPool(1, 1, NewTagSchema())
	p.Recycle(p.Get(&fakeChromosome{id: 1}))
	p.Recycle(p.Get(&fakeChromosome{id: 2}))
	assert.Equal(t, 1, p.Len())
}

func TestPoolShrink(t *testing.T) {
	p := NewPool(8, 1, NewTagSchema())
	storages := make([]*Storage, 5)
	for i := range storages {
		storages[i] = p.Get(&fakeChromosome{id: i})
	}
	for _, s := range storages {
		p.Recycle(s)
	}
	require.Equal(t, 5, p.Len())

	p.Shrink(2)
	assert.Equal(t, 2, p.Len())
}
