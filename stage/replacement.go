package stage

import (
	"fmt"

	"github.com/aram/genflow/chromosome"
	"github.com/aram/genflow/gaerr"
	"github.com/aram/genflow/internal/rng"
	"github.com/aram/genflow/population"
)

// ReplacementParams configures a replacement operation (spec §4.8).
// IndicesBufferTagID names a population-tag scratch buffer; no variant in
// this package reads it.
type ReplacementParams struct {
	Elitism            int
	IndicesBufferTagID int
	Comparator         chromosome.Comparator[*population.Storage]
}

// Clone returns an independent copy (operation.Parameters).
func (p ReplacementParams) Clone() ReplacementParams { return p }

// ReplacementOperation inserts offspring into the main group (spec §4.8).
type ReplacementOperation interface {
	Replace(pop *population.Population, offspring []*population.Storage, params ReplacementParams, gen *rng.Generator) error
}

// WorstReplacement removes the len(offspring) worst main-group members
// under params.Comparator, then appends offspring.
type WorstReplacement struct{}

func (WorstReplacement) Replace(pop *population.Population, offspring []*population.Storage, params ReplacementParams, gen *rng.Generator) error {
	main := pop.Main()
	k := len(offspring)
	if k > main.Count() {
		return fmt.Errorf("stage: worst replacement: %d offspring exceed main group size %d: %w", k, main.Count(), gaerr.ErrArgumentOutOfRange)
	}
	items := ordered(main.Items(), params.Comparator)
	worst := items[len(items)-k:]
	for _, s := range worst {
		main.Remove(s, false)
	}
	for _, s := range offspring {
		if _, err := main.Add(s); err != nil {
			return err
		}
	}
	return nil
}

// CrowdingReplacement stages offspring into the crowding group without
// evicting main; a later step (or the next NextGeneration drain) trims them
// into main (spec §4.8: "caller trims later").
type CrowdingReplacement struct{}

func (CrowdingReplacement) Replace(pop *population.Population, offspring []*population.Storage, params ReplacementParams, gen *rng.Generator) error {
	for _, s := range offspring {
		if _, err := pop.Crowding().Add(s); err != nil {
			return err
		}
	}
	return nil
}

// RandomReplacement protects the top params.Elitism main-group members and
// replaces one random other member per offspring, at most as many as there
// are non-elite members (spec §4.8: "Random (with elitism)"). It draws the
// replaced members with gen.Perm; params.IndicesBufferTagID is not read.
type RandomReplacement struct{}

func (RandomReplacement) Replace(pop *population.Population, offspring []*population.Storage, params ReplacementParams, gen *rng.Generator) error {
	main := pop.Main()
	if params.Elitism > main.Count() {
		return fmt.Errorf("stage: random replacement: elitism %d exceeds main group size %d: %w", params.Elitism, main.Count(), gaerr.ErrArgumentOutOfRange)
	}
	ranked := ordered(main.Items(), params.Comparator)
	candidates := ranked[params.Elitism:]

	// replace one non-elite member per offspring, up to however many
	// non-elite slots exist; a fixed-size main group can't grow to fit
	// surplus offspring, so any offspring beyond the non-elite pool size
	// is dropped.
	k := len(offspring)
	if k > len(candidates) {
		k = len(candidates)
	}

	perm := gen.Perm(len(candidates))
	for i := 0; i < k; i++ {
		main.Remove(candidates[perm[i]], false)
		if _, err := main.Add(offspring[i]); err != nil {
			return err
		}
	}
	return nil
}

// ParentReplacement replaces each offspring's recorded parent (spec §4.8:
// "Parent" variant). ParentOf must return the parent storage an offspring
// was produced from; CouplingOperation records no parent link, so the
// caller supplies this mapping.
type ParentReplacement struct {
	ParentOf func(offspring *population.Storage) *population.Storage
}

func (r ParentReplacement) Replace(pop *population.Population, offspring []*population.Storage, params ReplacementParams, gen *rng.Generator) error {
	main := pop.Main()
	for _, s := range offspring {
		parent := r.ParentOf(s)
		if parent != nil {
			main.Remove(parent, false)
		}
		if _, err := main.Add(s); err != nil {
			return err
		}
	}
	return nil
}

// PopulationReplacement swaps the entire offspring set into main, keeping
// the top params.Elitism existing members (spec §4.8: "Population"
// variant).
type PopulationReplacement struct{}

func (PopulationReplacement) Replace(pop *population.Population, offspring []*population.Storage, params ReplacementParams, gen *rng.Generator) error {
	main := pop.Main()
	ranked := ordered(main.Items(), params.Comparator)
	rest := ranked[params.Elitism:]

	for _, s := range rest {
		main.Remove(s, false)
	}
	for _, s := range offspring {
		if main.Count() >= main.Capacity() {
			break
		}
		if _, err := main.Add(s); err != nil {
			return err
		}
	}
	return nil
}
