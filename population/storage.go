package population

import (
	"fmt"

	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/gaerr"
)

// Storage owns one chromosome, its two fitness slots, its membership flag
// word, and its tag array (spec §3, §4.2). It is created by a Population
// (or recycled from its object pool) and destroyed/recycled once it leaves
// every group and the pool's unlinked set.
type Storage struct {
	chrom        chromosome.Chromosome
	raw          []float64
	rawDefined   bool
	scaled       []float64
	scaledDefined bool
	flags        Flags
	tags         []any
	schema       *TagSchema
}

func newStorage(c chromosome.Chromosome, fitnessArity int, schema *TagSchema) *Storage {
	return &Storage{
		chrom:  c,
		raw:    make([]float64, fitnessArity),
		scaled: make([]float64, fitnessArity),
		tags:   schema.newTagValues(),
		schema: schema,
	}
}

// reset prepares a recycled storage for a new chromosome, keeping the tag
// array's slice allocation but resetting it to schema defaults.
func (s *Storage) reset(c chromosome.Chromosome) {
	s.chrom = c
	s.rawDefined = false
	s.scaledDefined = false
	for i := range s.raw {
		s.raw[i] = 0
		s.scaled[i] = 0
	}
	s.flags = Flags{}
	copy(s.tags, s.schema.newTagValues())
}

// Chromosome returns the wrapped chromosome value.
func (s *Storage) Chromosome() chromosome.Chromosome { return s.chrom }

// Flags returns the storage's mutable membership/state bitset.
func (s *Storage) Flags() *Flags { return &s.flags }

// RawFitness returns the raw fitness vector. The second result reports
// whether SetRawFitness has been called since the storage was created or
// recycled.
func (s *Storage) RawFitness() ([]float64, bool) { return s.raw, s.rawDefined }

// SetRawFitness installs the raw fitness vector computed by the fitness
// operation and notifies the tag schema of a re-fitness event.
func (s *Storage) SetRawFitness(values []float64) {
	copy(s.raw, values)
	s.rawDefined = true
	s.schema.notify(s, TagRefitnessed)
}

// ScaledFitness returns the scaled fitness vector. It is defined after the
// first scaling stage of a generation (spec §3).
func (s *Storage) ScaledFitness() ([]float64, bool) { return s.scaled, s.scaledDefined }

// SetScaledFitness installs the scaled fitness vector computed by the
// scaling operation.
func (s *Storage) SetScaledFitness(values []float64) {
	copy(s.scaled, values)
	s.scaledDefined = true
}

// Tag returns the value of the tag registered under id.
func (s *Storage) Tag(id int) (any, error) {
	i, ok := s.schema.indexOf(id)
	if !ok {
		return nil, fmt.Errorf("population: tag %d: %w", id, gaerr.ErrNotFound)
	}
	return s.tags[i], nil
}

// SetTag overwrites the value of the tag registered under id.
func (s *Storage) SetTag(id int, value any) error {
	i, ok := s.schema.indexOf(id)
	if !ok {
		return fmt.Errorf("population: tag %d: %w", id, gaerr.ErrNotFound)
	}
	s.tags[i] = value
	return nil
}

// notifyInserted is called by a group when the storage becomes a member.
func (s *Storage) notifyInserted() { s.schema.notify(s, TagInserted) }

// notifyRemoved is called by a group when the storage stops being a member.
func (s *Storage) notifyRemoved() { s.schema.notify(s, TagRemoved) }
