package stage

import (
	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/internal/rng"
)

// CrossoverOperation recombines two parents into offspring (spec §1: a
// crossover primitive, external to the core). Implementations decide how
// many offspring they produce; Simple single-point style operations
// typically return two.
type CrossoverOperation interface {
	Cross(a, b chromosome.Chromosome, gen *rng.Generator) []chromosome.Chromosome
}

// MutationOperation mutates a single chromosome in place (spec §1: a
// mutation primitive, external to the core).
type MutationOperation interface {
	Mutate(c chromosome.Chromosome, gen *rng.Generator)
}

// MatingConfiguration is the "mating configuration" spec §4.8 describes:
// crossover and mutation operators plus their probabilities and the
// improving-only mutation policy.
type MatingConfiguration struct {
	Crossover            CrossoverOperation
	CrossoverProbability float64
	Mutation             MutationOperation
	MutationProbability  float64

	// ImprovingOnly, when set, keeps a mutation only if the mutated
	// chromosome compares better than its pre-mutation self under
	// Comparator (spec §4.8's mating contract); otherwise it is rolled
	// back and MutationReject is sent. With a nil Comparator every mutation
	// is kept.
	ImprovingOnly bool
	Comparator    chromosome.Comparator[chromosome.Chromosome]
}

// Clone returns an independent copy (operation.Configuration).
func (m MatingConfiguration) Clone() MatingConfiguration { return m }

// Mate produces offspring from a and b: crosses them with
// CrossoverProbability (otherwise the offspring are direct clones of the
// parents), then applies mutation to each offspring with
// MutationProbability, honoring ImprovingOnly (spec §4.8, Mating).
func (m MatingConfiguration) Mate(a, b chromosome.Chromosome, gen *rng.Generator) []chromosome.Chromosome {
	var offspring []chromosome.Chromosome
	if m.Crossover != nil && gen.Float64() < m.CrossoverProbability {
		offspring = m.Crossover.Cross(a, b, gen)
	} else {
		offspring = []chromosome.Chromosome{a.Clone(), b.Clone()}
	}

	for _, child := range offspring {
		m.mutateOne(child, gen)
	}
	return offspring
}

func (m MatingConfiguration) mutateOne(child chromosome.Chromosome, gen *rng.Generator) {
	if m.Mutation == nil || gen.Float64() >= m.MutationProbability {
		return
	}
	if !m.ImprovingOnly {
		m.Mutation.Mutate(child, gen)
		return
	}

	before := child.Clone()
	child.MutationEvent(chromosome.MutationPrepare)
	m.Mutation.Mutate(child, gen)

	accepted := m.Comparator == nil || m.Comparator.Compare(child, before) > 0
	if accepted {
		child.MutationEvent(chromosome.MutationAccept)
		return
	}
	child.MutationEvent(chromosome.MutationReject)
	rollback(child, before)
}

// rollback restores dst's representation from src. Since Chromosome is an
// opaque external contract without an in-place-assign method, rollback
// relies on a RollbackTarget implementation when the consumer needs a true
// in-place revert; otherwise the rejected mutation's effects on child are
// left as the consumer's Mutate implementation chose to leave them (a
// Mutate that supports improving-only rollback should implement
// RollbackTarget).
func rollback(dst, src chromosome.Chromosome) {
	if r, ok := dst.(RollbackTarget); ok {
		r.RollbackTo(src)
	}
}

// RollbackTarget is an optional Chromosome capability: a chromosome whose
// mutation can be undone in place implements it so MatingConfiguration.Mate
// can honor a rejected improving-only mutation exactly (spec §4.8's "rolls
// back otherwise").
type RollbackTarget interface {
	RollbackTo(previous chromosome.Chromosome)
}
